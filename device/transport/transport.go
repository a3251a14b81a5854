// Package transport provides the byte streams the framing link runs over.
//
// Every transport drains its connection into an in-memory buffer from a
// background goroutine, so BytesAvailable can answer without blocking and
// Read only ever hands out bytes that have already arrived.
package transport

import (
	"errors"

	"hdlclink/config"
)

// ErrClosed is returned once the underlying connection is gone.
var ErrClosed = errors.New("transport closed")

// Transport is the byte stream a link owns.
type Transport interface {
	// BytesAvailable reports how many received bytes are buffered. It never
	// blocks. The buffer is bounded: when nobody reads, the oldest bytes are
	// discarded to make room for new ones.
	BytesAvailable() (int, error)

	// Read copies buffered bytes into p without waiting for more. A short
	// read with a nil error means nothing more is buffered.
	Read(p []byte) (int, error)

	Write(p []byte) (int, error)

	// ResetInputBuffer discards received bytes that have not been read.
	ResetInputBuffer() error

	Close() error
}

// Open connects to the transport named by conf.Device: a host:port dials
// TCP, anything else is opened as a serial port.
func Open(conf config.LinkConfig) (Transport, error) {
	if conf.IsTCP() {
		t, err := DialTCP(conf.Device, conf.DialTimeout.Duration)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	s, err := OpenSerial(conf)
	if err != nil {
		return nil, err
	}
	return s, nil
}
