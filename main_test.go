package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"hdlclink/device/link"
	"hdlclink/device/transport"
	"hdlclink/hdlc"
	"hdlclink/logging"
	"hdlclink/packet"
)

func TestLoadValidatesAfterFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdlclink.toml")
	require.NoError(t, os.WriteFile(path, []byte("[link]\ndevice = \"\"\n"), 0o600))

	bare := &app{configPath: path}
	require.ErrorContains(t, bare.load(), "link.device is empty")

	a := &app{configPath: path, device: "/dev/ttyACM0", logLevel: "warn"}
	require.NoError(t, a.load())
	require.Equal(t, "/dev/ttyACM0", a.conf.Link.Device)
	require.Equal(t, "warn", a.conf.Log.Level)
}

func TestParsePayload(t *testing.T) {
	p, err := parsePayload("hi", false)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), p)

	p, err = parsePayload("01027e03", true)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x7E, 0x03}, p)

	_, err = parsePayload("zz", true)
	require.Error(t, err)
}

func TestSelftest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sent, err := selftest(ctx, 25, 7)
	require.NoError(t, err)
	require.Positive(t, sent)
}

func newLinkPair(t *testing.T) (*link.Link, *link.Link) {
	t.Helper()
	a, b := transport.NewLoopback()
	sender, err := link.New(a, link.WithLogger(logging.Nop()))
	require.NoError(t, err)
	receiver, err := link.New(b, link.WithLogger(logging.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() {
		sender.Close()
		receiver.Close()
	})
	return sender, receiver
}

func TestReadFrames(t *testing.T) {
	sender, receiver := newLinkPair(t)

	require.NoError(t, sender.SendFrame([]byte("hi")))
	require.NoError(t, sender.SendFrame([]byte{0x00, 0x7E}))

	var out bytes.Buffer
	require.NoError(t, readFrames(&out, receiver, time.Second, 2, false))
	require.Equal(t, "6869 |hi|\n007e |.~|\n", out.String())
}

func TestReadFramesUntilTimeout(t *testing.T) {
	sender, receiver := newLinkPair(t)
	require.NoError(t, sender.SendFrame([]byte("only")))

	var out bytes.Buffer
	require.NoError(t, readFrames(&out, receiver, 50*time.Millisecond, 0, false))
	require.Equal(t, "6f6e6c79 |only|\n", out.String())
}

func TestReadFramesCountTimesOut(t *testing.T) {
	_, receiver := newLinkPair(t)

	err := readFrames(&bytes.Buffer{}, receiver, 20*time.Millisecond, 1, false)
	require.ErrorIs(t, err, link.ErrTimeout)
}

func TestMonitorModelStopsOnTransportError(t *testing.T) {
	ch := make(chan *packet.Packet)
	m := initialModel("loop", ch)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	next, cmd := next.Update(packet.NewFrame([]byte("ok")))
	require.NotNil(t, cmd)
	require.Nil(t, next.(model).err)
	require.Contains(t, next.View(), "ok")

	next, _ = next.Update(packet.NewError(hdlc.ErrChecksum, nil))
	require.Nil(t, next.(model).err)

	next, _ = next.Update(packet.NewError(fmt.Errorf("%w: %w", link.ErrTransport, transport.ErrClosed), nil))
	require.NotNil(t, next.(model).err)
	require.Contains(t, next.View(), "Link error")
}
