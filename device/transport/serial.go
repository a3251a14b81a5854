package transport

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"hdlclink/config"
)

// defaultReadTimeout bounds each port read so Close is never stuck behind
// a read that waits forever.
const defaultReadTimeout = 100 * time.Millisecond

// Serial is a serial port transport.
type Serial struct {
	*pump
	port serial.Port
}

// OpenSerial opens the serial device described by conf.
func OpenSerial(conf config.LinkConfig) (*Serial, error) {
	if conf.Device == "" {
		return nil, fmt.Errorf("no device path (e.g., /dev/ttyUSB0 or COM3) provided for serial link")
	}

	mode, err := serialMode(conf)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(conf.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", conf.Device, err)
	}

	timeout := conf.ReadTimeout.Duration
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &Serial{
		pump: newPump(port, port.ResetInputBuffer),
		port: port,
	}, nil
}

// Drain waits until all written bytes have left the port.
func (s *Serial) Drain() error {
	return s.port.Drain()
}

func serialMode(conf config.LinkConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: conf.Baud,
		DataBits: conf.DataBits,
	}

	switch strings.ToLower(conf.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unknown parity %q", conf.Parity)
	}

	switch conf.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 1.5:
		mode.StopBits = serial.OnePointFiveStopBits
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %v", conf.StopBits)
	}

	return mode, nil
}
