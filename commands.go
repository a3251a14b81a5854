package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hdlclink/device/link"
	"hdlclink/device/transport"
	"hdlclink/hdlc"
	"hdlclink/logging"
	"hdlclink/packet"
	"hdlclink/ui/framelog"
)

func newSendCmd(a *app) *cobra.Command {
	var asHex bool

	cmd := &cobra.Command{
		Use:   "send <payload>",
		Short: "Send one frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parsePayload(args[0], asHex)
			if err != nil {
				return err
			}

			l, err := a.open(a.logger)
			if err != nil {
				return err
			}
			defer l.Close()

			return l.SendFrame(payload)
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "payload is hex encoded")
	return cmd
}

func parsePayload(arg string, asHex bool) ([]byte, error) {
	if !asHex {
		return []byte(arg), nil
	}
	payload, err := hex.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return payload, nil
}

func newReadCmd(a *app) *cobra.Command {
	var (
		timeout time.Duration
		count   int
		keepOn  bool
	)

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read frames with a blocking read and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.open(a.logger)
			if err != nil {
				return err
			}
			defer l.Close()

			return readFrames(cmd.OutOrStdout(), l, timeout, count, keepOn)
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "time to wait for each frame")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "frames to read, 0 reads until a timeout")
	cmd.Flags().BoolVar(&keepOn, "keep-going", false, "print frame errors and keep reading")
	return cmd
}

// readFrames prints count frames from l. Decode errors end the read unless
// keepOn is set; a timeout always ends it.
func readFrames(w io.Writer, l *link.Link, timeout time.Duration, count int, keepOn bool) error {
	for n := 0; count == 0 || n < count; {
		payload, err := l.ReadFrame(timeout)
		switch {
		case err == nil:
			n++
			fmt.Fprintf(w, "%s |%s|\n", hex.EncodeToString(payload), framelog.Printable(payload))
		case errors.Is(err, link.ErrTimeout) && count == 0:
			return nil
		case keepOn && isDecodeError(err):
			fmt.Fprintf(w, "error: %v\n", err)
		default:
			return err
		}
	}
	return nil
}

func isDecodeError(err error) bool {
	return errors.Is(err, hdlc.ErrChecksum) || errors.Is(err, hdlc.ErrFraming) || errors.Is(err, hdlc.ErrOversize)
}

func newSelftestCmd(a *app) *cobra.Command {
	var (
		frames  int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Round-trip random frames over an in-memory link",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sent, err := selftest(ctx, frames, time.Now().UnixNano())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "selftest ok: %d frames, %d payload bytes\n", frames, sent)
			return nil
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 100, "frames to send")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "overall deadline")
	return cmd
}

// selftest sends frames random payloads from one end of a loopback pair
// and checks that the background reader on the other end sees each of
// them intact and in order. It returns the payload bytes sent.
func selftest(ctx context.Context, frames int, seed int64) (int, error) {
	a, b := transport.NewLoopback()
	sender, err := link.New(a, link.WithLogger(logging.Nop()))
	if err != nil {
		return 0, err
	}
	defer sender.Close()
	receiver, err := link.New(b, link.WithLogger(logging.Nop()))
	if err != nil {
		return 0, err
	}
	defer receiver.Close()

	r := rand.New(rand.NewSource(seed))
	payloads := make([][]byte, frames)
	total := 0
	for i := range payloads {
		p := make([]byte, 1+r.Intn(hdlc.MaxPayloadLength))
		r.Read(p)
		payloads[i] = p
		total += len(p)
	}

	out := make(chan *packet.Packet)
	if err := receiver.StartReader(out); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, p := range payloads {
			if err := sender.SendFrame(p); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		for i, want := range payloads {
			select {
			case pkt := <-out:
				if !pkt.OK() {
					return fmt.Errorf("frame %d: %w", i, pkt.Err)
				}
				if string(pkt.Payload) != string(want) {
					return fmt.Errorf("frame %d: payload mismatch", i)
				}
			case <-ctx.Done():
				return fmt.Errorf("frame %d: %w", i, ctx.Err())
			}
		}
		return nil
	})

	err = g.Wait()
	if stopErr := receiver.StopReader(); err == nil {
		err = stopErr
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}
