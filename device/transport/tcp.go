package transport

import (
	"fmt"
	"net"
	"time"
)

// TCP is a transport over a TCP socket, e.g. a serial device server.
type TCP struct {
	*pump
	conn net.Conn
}

// DialTCP connects to address (e.g., "192.168.1.30:4001").
func DialTCP(address string, timeout time.Duration) (*TCP, error) {
	if address == "" {
		return nil, fmt.Errorf("no device address (ip:port) provided for TCP link")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	return newTCP(conn), nil
}

func newTCP(conn net.Conn) *TCP {
	return &TCP{
		pump: newPump(conn, nil),
		conn: conn,
	}
}

func (t *TCP) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}
