// Package hdlc implements the HDLC-style framing used on the link: 0x7E
// delimited frames, 0x7D byte stuffing and a big-endian CRC-16 trailer.
package hdlc

import "errors"

// Framing constants
const (
	Flag           byte = 0x7E // Frame delimiter
	Escape         byte = 0x7D // Escape prefix
	EscapeConstant byte = 0x20 // XOR mask applied to escaped bytes
)

// Frame size limits, counted on decoded bytes (payload + checksum).
const (
	ChecksumSize     = 2
	MaxFrameLength   = 1024
	MinFrameLength   = 1 + ChecksumSize
	MaxPayloadLength = MaxFrameLength - ChecksumSize
)

// State is the decoder mode of a Frame.
type State int

const (
	Reading State = iota
	Escaping
)

func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case Escaping:
		return "escaping"
	}
	return "unknown"
}

var (
	ErrFraming    = errors.New("invalid framing (got end in escape mode)")
	ErrOversize   = errors.New("frame too big")
	ErrChecksum   = errors.New("Invalid Frame (CRC FAIL)")
	ErrIncomplete = errors.New("incomplete frame")
)

// NeedsEscaping reports whether b must be stuffed inside a frame body.
func NeedsEscaping(b byte) bool {
	return b == Flag || b == Escape
}
