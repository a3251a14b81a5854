// Package link drives the HDLC frame assembler from a transport. It sends
// frames, reads them one at a time with a deadline, or runs a background
// reader that hands every terminal result to a channel.
//
// A link has one reader at a time: ReadFrame refuses to run while the
// background reader is active and the other way round, since both consume
// the same bytes from the transport.
package link

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hdlclink/device/transport"
	"hdlclink/hdlc"
	"hdlclink/packet"
)

// DefaultPollInterval is how long a reader waits before asking the
// transport again when no bytes are pending.
const DefaultPollInterval = time.Millisecond

var (
	ErrTimeout       = errors.New("readFrame timeout")
	ErrReaderRunning = errors.New("reader already running")
	ErrReaderStopped = errors.New("reader not running")
	ErrEmptyPayload  = errors.New("empty payload")
	ErrInconsistent  = errors.New("unexpected framing error")
	ErrTransport     = errors.New("transport failure")
)

// Link is a framing link bound to an open transport, which it owns.
type Link struct {
	transport  transport.Transport
	encoder    hdlc.Encoder
	log        zerolog.Logger
	poll       time.Duration
	resetInput bool

	mu      sync.Mutex
	pending *hdlc.Frame // partial frame not owned by any reader
	last    *packet.Packet
	reading bool // a blocking read is in progress
	running bool // the background reader is active
	stop    chan struct{}
	exited  chan *hdlc.Frame
	handoff chan *packet.Packet // internal channel of StartHandlers
	handled chan struct{}
}

type Option func(*Link)

// WithResetInput controls whether New discards bytes already buffered by
// the transport. The default is true.
func WithResetInput(reset bool) Option {
	return func(l *Link) {
		l.resetInput = reset
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.poll = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Link) {
		l.log = logger
	}
}

// New binds a link to t.
func New(t transport.Transport, opts ...Option) (*Link, error) {
	l := &Link{
		transport:  t,
		encoder:    hdlc.NewEncoder(t),
		log:        log.Logger,
		poll:       DefaultPollInterval,
		resetInput: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	n, err := t.BytesAvailable()
	if err != nil {
		return nil, transportError(err)
	}
	l.log.Debug().Int("buffered", n).Msg("link init")

	if l.resetInput {
		if err := t.ResetInputBuffer(); err != nil {
			return nil, transportError(err)
		}
	}

	return l, nil
}

// SendFrame encodes payload and writes it as one frame.
func (l *Link) SendFrame(payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > hdlc.MaxPayloadLength {
		return fmt.Errorf("%w: %d byte payload exceeds %d", hdlc.ErrOversize, len(payload), hdlc.MaxPayloadLength)
	}

	n, err := l.encoder.Encode(payload)
	if err != nil {
		return transportError(err)
	}

	l.log.Info().Int("bytes", n).Msg("sent frame")
	l.log.Debug().Hex("payload", payload).Msg("frame contents")
	return nil
}

// LastPacket returns the most recent terminal result seen by any reader,
// or nil.
func (l *Link) LastPacket() *packet.Packet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Close stops the background reader if it runs and closes the transport.
func (l *Link) Close() error {
	if err := l.StopReader(); err != nil && !errors.Is(err, ErrReaderStopped) {
		return err
	}
	return l.transport.Close()
}

// drain feeds the bytes the transport currently holds into f, creating f
// on the first byte. It stops at the first byte that terminates the frame
// and returns the result; the returned frame is the one to continue with.
func (l *Link) drain(f *hdlc.Frame) (*hdlc.Frame, *packet.Packet, error) {
	n, err := l.transport.BytesAvailable()
	if err != nil {
		return f, nil, transportError(err)
	}

	var one [1]byte
	for i := 0; i < n; i++ {
		m, err := l.transport.Read(one[:])
		if err != nil {
			return f, nil, transportError(err)
		}
		if m < 1 {
			return f, nil, transportError(fmt.Errorf("short read: %d of %d pending bytes", i, n))
		}

		if f == nil {
			f = hdlc.NewFrame()
		}
		if f.AddByte(one[0]) {
			return nil, l.complete(f), nil
		}
	}
	return f, nil, nil
}

// complete turns a terminated frame into a packet and records it.
func (l *Link) complete(f *hdlc.Frame) *packet.Packet {
	var pkt *packet.Packet
	switch {
	case f.Finished() && !f.Failed():
		pkt = packet.NewFrame(f.Detach())
		l.log.Debug().Hex("payload", pkt.Payload).Msg("received frame")
	case f.Finished():
		pkt = packet.NewError(f.Err(), f.Detach())
		l.log.Warn().Err(f.Err()).Hex("data", pkt.Payload).Msg("frame error")
	default:
		pkt = packet.NewError(ErrInconsistent, f.Detach())
		l.log.Error().Str("state", f.State().String()).Msg("frame terminated without result")
	}

	l.mu.Lock()
	l.last = pkt
	l.mu.Unlock()
	return pkt
}

func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// IsTransportError reports whether err came from the transport rather than
// from decoding a frame.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}
