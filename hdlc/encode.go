package hdlc

import (
	"io"
	"sync"
)

// Encode wraps payload into a complete wire frame:
// Flag, stuffed(payload || crc16), Flag.
func Encode(payload []byte) []byte {
	body := append(make([]byte, 0, len(payload)+ChecksumSize), payload...)
	body = AppendChecksum(body, payload)

	frame := make([]byte, 0, len(body)+len(body)/8+2)
	frame = append(frame, Flag)
	for _, b := range body {
		if NeedsEscaping(b) {
			frame = append(frame, Escape, b^EscapeConstant)
		} else {
			frame = append(frame, b)
		}
	}
	return append(frame, Flag)
}

// Decode decodes the first frame found in wire using a fresh Frame.
// Bytes after the terminating delimiter are ignored.
func Decode(wire []byte) ([]byte, error) {
	f := NewFrame()
	for _, b := range wire {
		if f.AddByte(b) {
			if f.Failed() {
				return nil, f.Err()
			}
			return f.Payload(), nil
		}
	}
	return nil, ErrIncomplete
}

// Encoder writes whole frames to an io.Writer. It is safe for concurrent
// use; each frame goes out in a single Write.
type Encoder interface {
	Encode(payload []byte) (int, error)
}

func NewEncoder(writer io.Writer) Encoder {
	return &encoder{
		writer: writer,
	}
}

type encoder struct {
	writer io.Writer
	mu     sync.Mutex
}

func (e *encoder) Encode(payload []byte) (int, error) {
	frame := Encode(payload)

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.writer.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	return n, err
}
