package packet

import (
	"encoding/hex"
	"time"
)

// PacketType tells a decoded frame apart from a link error.
type PacketType int

const (
	TypeFrame PacketType = iota // A frame that passed its checksum
	TypeError                   // A framing, size, checksum or transport error
)

func (t PacketType) String() string {
	switch t {
	case TypeFrame:
		return "frame"
	case TypeError:
		return "error"
	}
	return "unknown"
}

// Packet is one terminal result observed on the link, delivered in the
// order its terminating byte arrived.
type Packet struct {
	Type PacketType

	// Payload holds the decoded payload for TypeFrame and whatever bytes had
	// been decoded when a TypeError frame was aborted.
	Payload []byte

	// Err is set for TypeError.
	Err error

	Received time.Time
}

// NewFrame returns a TypeFrame packet stamped with the current time.
func NewFrame(payload []byte) *Packet {
	return &Packet{Type: TypeFrame, Payload: payload, Received: time.Now()}
}

// NewError returns a TypeError packet stamped with the current time.
func NewError(err error, data []byte) *Packet {
	return &Packet{Type: TypeError, Payload: data, Err: err, Received: time.Now()}
}

func (p *Packet) OK() bool {
	return p.Type == TypeFrame && p.Err == nil
}

// Hex renders the payload as lowercase hex.
func (p *Packet) Hex() string {
	return hex.EncodeToString(p.Payload)
}
