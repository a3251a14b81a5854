package link

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hdlclink/device/transport"
	"hdlclink/hdlc"
	"hdlclink/logging"
	"hdlclink/packet"
)

// fakeTransport is a scripted transport: tests push inbound bytes and
// inspect what the link wrote.
type fakeTransport struct {
	mu     sync.Mutex
	in     bytes.Buffer
	out    bytes.Buffer
	err    error
	resets int
	closed bool
}

func (f *fakeTransport) push(p []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in.Write(p)
}

func (f *fakeTransport) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeTransport) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.in.Len()
}

func (f *fakeTransport) written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.out.Bytes())
}

func (f *fakeTransport) BytesAvailable() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.in.Len() == 0 && f.err != nil {
		return 0, f.err
	}
	return f.in.Len(), nil
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.in.Len() == 0 {
		return 0, f.err
	}
	return f.in.Read(p)
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.out.Write(p)
}

func (f *fakeTransport) ResetInputBuffer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.in.Reset()
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestLink(t *testing.T, opts ...Option) (*Link, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	l, err := New(ft, append([]Option{WithLogger(logging.Nop())}, opts...)...)
	require.NoError(t, err)
	return l, ft
}

func TestNewResetsInput(t *testing.T) {
	ft := &fakeTransport{}
	ft.push([]byte("stale"))

	_, err := New(ft, WithLogger(logging.Nop()))
	require.NoError(t, err)
	require.Equal(t, 1, ft.resets)
	require.Zero(t, ft.pending())
}

func TestNewKeepsInputWhenAsked(t *testing.T) {
	ft := &fakeTransport{}
	ft.push([]byte("keep"))

	_, err := New(ft, WithLogger(logging.Nop()), WithResetInput(false))
	require.NoError(t, err)
	require.Zero(t, ft.resets)
	require.Equal(t, 4, ft.pending())
}

func TestNewFailsOnDeadTransport(t *testing.T) {
	ft := &fakeTransport{err: transport.ErrClosed}

	_, err := New(ft, WithLogger(logging.Nop()))
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, transport.ErrClosed)
}

func TestSendFrame(t *testing.T) {
	l, ft := newTestLink(t)

	payload := []byte{0x01, 0x02, 0x7E, 0x03}
	require.NoError(t, l.SendFrame(payload))
	wire := ft.written()
	require.Equal(t, []byte{0x7E, 0x01, 0x02, 0x7D, 0x5E, 0x03, 0x87, 0x21, 0x7E}, wire)

	f := hdlc.NewFrame()
	for i, b := range wire {
		done := f.AddByte(b)
		require.Equal(t, i == len(wire)-1, done, "byte %d", i)
	}
	require.False(t, f.Failed())
	require.Equal(t, payload, f.Payload())
}

func TestSendFrameRejectsBadPayloads(t *testing.T) {
	l, ft := newTestLink(t)

	require.ErrorIs(t, l.SendFrame(nil), ErrEmptyPayload)
	require.ErrorIs(t, l.SendFrame(make([]byte, hdlc.MaxPayloadLength+1)), hdlc.ErrOversize)
	require.Empty(t, ft.written())

	require.NoError(t, l.SendFrame(make([]byte, hdlc.MaxPayloadLength)))
}

func TestSendFrameTransportFailure(t *testing.T) {
	l, ft := newTestLink(t)
	ft.fail(transport.ErrClosed)

	err := l.SendFrame([]byte("x"))
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, transport.ErrClosed)
}

func TestCloseClosesTransport(t *testing.T) {
	l, ft := newTestLink(t)
	require.NoError(t, l.StartReader(make(chan *packet.Packet)))
	require.NoError(t, l.Close())
	require.True(t, ft.closed)
	require.False(t, l.Running())
}
