package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hdlclink/device/transport"
	"hdlclink/hdlc"
	"hdlclink/packet"
)

func TestReadFrame(t *testing.T) {
	l, ft := newTestLink(t)
	payload := []byte("hello")
	ft.push(hdlc.Encode(payload))

	got, err := l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	last := l.LastPacket()
	require.NotNil(t, last)
	require.Equal(t, packet.TypeFrame, last.Type)
	require.Equal(t, payload, last.Payload)
}

func TestReadFrameStopsAtFirstFrame(t *testing.T) {
	l, ft := newTestLink(t)
	first, second := hdlc.Encode([]byte("first")), hdlc.Encode([]byte("second"))
	ft.push(append(append([]byte{}, first...), second...))

	got, err := l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got)
	require.Equal(t, len(second), ft.pending())

	got, err = l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestReadFrameTimeout(t *testing.T) {
	l, _ := newTestLink(t)

	start := time.Now()
	_, err := l.ReadFrame(30 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestReadFrameResumesPartialFrame(t *testing.T) {
	l, ft := newTestLink(t)
	payload := []byte("split across reads")
	wire := hdlc.Encode(payload)

	ft.push(wire[:7])
	_, err := l.ReadFrame(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Zero(t, ft.pending())

	ft.push(wire[7:])
	got, err := l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameArrivesDuringWait(t *testing.T) {
	l, ft := newTestLink(t)
	payload := []byte("late")

	go func() {
		time.Sleep(20 * time.Millisecond)
		ft.push(hdlc.Encode(payload))
	}()

	got, err := l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameDecodeErrors(t *testing.T) {
	corrupt := hdlc.Encode([]byte{0x10, 0x20, 0x30})
	corrupt[2] ^= 0x01

	for name, tc := range map[string]struct {
		wire []byte
		want error
	}{
		"checksum": {corrupt, hdlc.ErrChecksum},
		"framing":  {[]byte{hdlc.Flag, 0x01, 0x02, 0x03, hdlc.Escape, hdlc.Flag}, hdlc.ErrFraming},
		"oversize": {hdlc.Encode(make([]byte, hdlc.MaxPayloadLength+1)), hdlc.ErrOversize},
	} {
		t.Run(name, func(t *testing.T) {
			l, ft := newTestLink(t)
			ft.push(tc.wire)

			_, err := l.ReadFrame(time.Second)
			require.ErrorIs(t, err, tc.want)

			last := l.LastPacket()
			require.Equal(t, packet.TypeError, last.Type)
			require.ErrorIs(t, last.Err, tc.want)
		})
	}
}

func TestReadFrameRecoversAfterError(t *testing.T) {
	l, ft := newTestLink(t)
	ft.push([]byte{hdlc.Flag, 0x01, 0x02, 0x03, hdlc.Escape, hdlc.Flag})
	ft.push(hdlc.Encode([]byte("good")))

	_, err := l.ReadFrame(time.Second)
	require.ErrorIs(t, err, hdlc.ErrFraming)

	got, err := l.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("good"), got)
}

func TestReadFrameContextCanceled(t *testing.T) {
	l, _ := newTestLink(t)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := l.ReadFrameContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadFrameTransportFailure(t *testing.T) {
	l, ft := newTestLink(t)
	ft.fail(transport.ErrClosed)

	_, err := l.ReadFrame(time.Second)
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, transport.ErrClosed)
}

func TestReadFrameRefusedWhileReaderRuns(t *testing.T) {
	l, _ := newTestLink(t)
	require.NoError(t, l.StartReader(make(chan *packet.Packet)))
	defer l.StopReader()

	_, err := l.ReadFrame(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrReaderRunning)
}
