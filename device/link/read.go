package link

import (
	"context"
	"errors"
	"time"

	"hdlclink/packet"
)

// ReadFrame waits up to timeout for the next frame and returns its payload.
// Decode failures come back as hdlc.ErrFraming, hdlc.ErrOversize or
// hdlc.ErrChecksum; an expired deadline as ErrTimeout.
func (l *Link) ReadFrame(timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.ReadFrameContext(ctx)
}

// ReadFrameContext is ReadFrame bounded by ctx. A context deadline is
// reported as ErrTimeout, a cancellation as ctx.Err().
func (l *Link) ReadFrameContext(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	if l.running || l.reading {
		l.mu.Unlock()
		return nil, ErrReaderRunning
	}
	l.reading = true
	f := l.pending
	l.pending = nil
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.pending = f
		l.reading = false
		l.mu.Unlock()
	}()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}

		var (
			pkt *packet.Packet
			err error
		)
		f, pkt, err = l.drain(f)
		if err != nil {
			f = nil
			return nil, err
		}
		if pkt != nil {
			if pkt.OK() {
				return pkt.Payload, nil
			}
			return nil, pkt.Err
		}

		select {
		case <-ctx.Done():
			return nil, contextError(ctx.Err())
		case <-ticker.C:
		}
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
