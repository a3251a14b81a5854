package link

import (
	"time"

	"hdlclink/hdlc"
	"hdlclink/packet"
)

// StartReader starts the background reader. Every terminal result is sent
// on out in arrival order, one at a time: the reader does not consume more
// bytes until the previous packet has been taken. Decode errors arrive as
// TypeError packets and the reader carries on. A transport failure arrives
// as a TypeError packet wrapping ErrTransport, after which the reader
// stops consuming; call StopReader to release it.
func (l *Link) StartReader(out chan<- *packet.Packet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked(out)
}

// StartHandlers runs the background reader and calls onFrame or onError
// for each result from a single goroutine. Either handler may be nil.
// StopReader returns only after the last handler call has returned.
func (l *Link) StartHandlers(onFrame func(payload []byte), onError func(err error, data []byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	handoff := make(chan *packet.Packet)
	if err := l.startLocked(handoff); err != nil {
		return err
	}
	l.handoff = handoff
	l.handled = make(chan struct{})

	go dispatch(handoff, l.handled, onFrame, onError)
	return nil
}

func dispatch(in <-chan *packet.Packet, done chan<- struct{}, onFrame func([]byte), onError func(error, []byte)) {
	defer close(done)
	for pkt := range in {
		if pkt.OK() {
			if onFrame != nil {
				onFrame(pkt.Payload)
			}
		} else if onError != nil {
			onError(pkt.Err, pkt.Payload)
		}
	}
}

// startLocked must be called with mu held.
func (l *Link) startLocked(out chan<- *packet.Packet) error {
	if l.running || l.reading {
		return ErrReaderRunning
	}

	l.running = true
	l.stop = make(chan struct{})
	l.exited = make(chan *hdlc.Frame, 1)

	f := l.pending
	l.pending = nil

	go l.receiveLoop(f, out, l.stop, l.exited)

	l.log.Info().Dur("poll", l.poll).Msg("reader started")
	return nil
}

// StopReader stops the background reader and waits for it to exit. No
// packet is delivered after it returns.
func (l *Link) StopReader() error {
	l.mu.Lock()
	if !l.running || l.stop == nil {
		l.mu.Unlock()
		return ErrReaderStopped
	}
	stop, exited := l.stop, l.exited
	handoff, handled := l.handoff, l.handled
	l.stop, l.handoff, l.handled = nil, nil, nil
	l.mu.Unlock()

	close(stop)
	f := <-exited

	if handoff != nil {
		close(handoff)
		<-handled
	}

	l.mu.Lock()
	l.pending = f
	l.running = false
	l.exited = nil
	l.mu.Unlock()

	l.log.Info().Msg("reader stopped")
	return nil
}

// Running reports whether the background reader is active.
func (l *Link) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// receiveLoop owns f until it exits, then hands it back on exited so a
// later reader continues the partial frame.
func (l *Link) receiveLoop(f *hdlc.Frame, out chan<- *packet.Packet, stop <-chan struct{}, exited chan<- *hdlc.Frame) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	defer func() {
		exited <- f
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		var (
			pkt *packet.Packet
			err error
		)
		f, pkt, err = l.drain(f)
		if err != nil {
			f = nil
			l.log.Error().Err(err).Msg("reader transport failure")
			pkt = packet.NewError(err, nil)
		}

		if pkt != nil {
			select {
			case out <- pkt:
			case <-stop:
				return
			}
			if err != nil {
				<-stop
				return
			}
			// More bytes may already be pending.
			continue
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
