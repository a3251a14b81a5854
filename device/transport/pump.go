package transport

import (
	"bytes"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"

	"hdlclink/hdlc"
)

const pumpChunkSize = 512

// maxBuffered bounds unread input. Once full, the oldest bytes are dropped;
// a frame cut that way fails its checksum and the assembler resyncs on the
// next delimiter.
const maxBuffered = 16 * hdlc.MaxFrameLength

// pump drains conn into buf until conn fails or is closed.
type pump struct {
	conn  io.ReadWriteCloser
	reset func() error // clears hardware input buffers, may be nil

	mu     sync.Mutex
	buf    bytes.Buffer
	err    error
	closed bool

	done chan struct{}
}

func newPump(conn io.ReadWriteCloser, reset func() error) *pump {
	p := &pump{
		conn:  conn,
		reset: reset,
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pump) run() {
	defer close(p.done)

	chunk := make([]byte, pumpChunkSize)
	for {
		// Serial ports return (0, nil) when their read timeout expires.
		n, err := p.conn.Read(chunk)

		p.mu.Lock()
		if n > 0 {
			p.buf.Write(chunk[:n])
			if over := p.buf.Len() - maxBuffered; over > 0 {
				p.buf.Next(over)
			}
		}
		if err != nil {
			p.err = p.classify(err)
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// classify maps end-of-stream conditions onto ErrClosed; must hold mu.
func (p *pump) classify(err error) error {
	if p.closed || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return errors.Wrap(err, "transport read failed")
}

func (p *pump) BytesAvailable() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := p.buf.Len(); n > 0 {
		return n, nil
	}
	return 0, p.err
}

func (p *pump) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buf.Len() == 0 {
		return 0, p.err
	}
	return p.buf.Read(b)
}

func (p *pump) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	n, err := p.conn.Write(b)
	if err != nil {
		return n, errors.Wrap(err, "transport write failed")
	}
	return n, nil
}

func (p *pump) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	if p.reset != nil {
		if err := p.reset(); err != nil {
			return errors.Wrap(err, "reset input buffer")
		}
	}
	return nil
}

// Close closes the connection and waits for the pump goroutine to exit.
func (p *pump) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.conn.Close()
	<-p.done
	return err
}
