package hdlc

import (
	"bytes"
	"encoding/binary"
)

// Frame assembles one frame from raw link bytes. It does no I/O; feed it
// with AddByte and inspect the result once AddByte returns true.
type Frame struct {
	state    State
	data     []byte
	crc      []byte
	finished bool
	err      error
}

// NewFrame returns an empty frame in the Reading state.
func NewFrame() *Frame {
	return &Frame{
		state: Reading,
		data:  make([]byte, 0, 64),
	}
}

// Reset returns f to its initial empty state.
func (f *Frame) Reset() {
	f.state = Reading
	f.data = f.data[:0]
	f.crc = nil
	f.finished = false
	f.err = nil
}

// AddByte feeds one raw byte. It returns true when b terminated the frame,
// either successfully or with an error.
func (f *Frame) AddByte(b byte) bool {
	if b == Flag {
		if f.state == Escaping {
			return f.abort(ErrFraming)
		}
		if len(f.data) >= MinFrameLength {
			return f.finish()
		}
		// Leading or stray delimiter: start over.
		f.data = f.data[:0]
		return false
	}

	if f.state == Escaping {
		f.state = Reading
		b ^= EscapeConstant
	} else if b == Escape {
		f.state = Escaping
		return false
	}

	f.data = append(f.data, b)

	if len(f.data) > MaxFrameLength {
		return f.abort(ErrOversize)
	}

	return false
}

func (f *Frame) finish() bool {
	n := len(f.data) - ChecksumSize
	payload, crc := f.data[:n], f.data[n:]

	f.crc = append(f.crc[:0], crc...)
	f.data = payload

	if binary.BigEndian.Uint16(crc) != Checksum(payload) {
		return f.abort(ErrChecksum)
	}

	f.finished = true
	f.err = nil
	return true
}

func (f *Frame) abort(err error) bool {
	f.finished = true
	f.err = err
	return true
}

// Payload returns the decoded bytes. After a successful finish this is the
// payload without its checksum.
func (f *Frame) Payload() []byte {
	return f.data
}

// Detach returns a copy of the decoded bytes that outlives a Reset.
func (f *Frame) Detach() []byte {
	return bytes.Clone(f.data)
}

// CRC returns the checksum bytes split off the tail, nil before finishing.
func (f *Frame) CRC() []byte {
	return f.crc
}

func (f *Frame) Len() int {
	return len(f.data)
}

func (f *Frame) State() State {
	return f.state
}

// Finished reports whether the frame reached a terminal result.
func (f *Frame) Finished() bool {
	return f.finished
}

// Failed reports whether the terminal result is an error.
func (f *Frame) Failed() bool {
	return f.err != nil
}

func (f *Frame) Err() error {
	return f.err
}
