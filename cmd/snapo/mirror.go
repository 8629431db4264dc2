// Package main provides the mirror command for the Snap-O CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/bridge"
	"github.com/snap-o/cli/internal/config"
	"github.com/snap-o/cli/internal/ui"
)

var (
	mirrorOut     string
	mirrorBitRate int
	mirrorSize    string
	mirrorListen  string
)

// mirrorCmd streams the device screen live.
var mirrorCmd = &cobra.Command{
	Use:   "mirror <serial>",
	Short: "Mirror the screen live",
	Long: `Stream the device screen as raw H.264.

By default the elementary stream is written to a file (-o) or to
stdout for piping into a player. With --listen the stream is served
over WebSocket instead: each connected viewer receives the video as
binary NAL-unit messages, with the decoder parameter sets and latest
keyframe replayed to late joiners.

The stream runs until Ctrl-C.

EXAMPLES:
  snapo mirror emulator-5554 -o screen.h264
  snapo mirror emulator-5554 | ffplay -f h264 -i -
  snapo mirror emulator-5554 --listen
  snapo mirror emulator-5554 --listen 0.0.0.0:8080 --bit-rate 8000000`,
	Args: cobra.ExactArgs(1),
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().StringVarP(&mirrorOut, "out", "o", "", "Write the raw H.264 stream to this file (\"-\" for stdout)")
	mirrorCmd.Flags().IntVar(&mirrorBitRate, "bit-rate", 0, "Video bit rate in bits per second (default: configured)")
	mirrorCmd.Flags().StringVar(&mirrorSize, "size", "", "Video size as WIDTHxHEIGHT (default: display size)")
	mirrorCmd.Flags().StringVar(&mirrorListen, "listen", "", "Serve the stream over WebSocket on this address")
	// Bare --listen picks the standard mirror address.
	mirrorCmd.Flags().Lookup("listen").NoOptDefVal = config.DefaultConfig().Mirror.Listen
}

// runMirror executes the mirror command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (the device serial)
//
// Returns:
//   - error: Any error that occurred
func runMirror(cmd *cobra.Command, args []string) error {
	client, cfg, err := loadClient()
	if err != nil {
		return err
	}
	serial := args[0]

	bitRate := mirrorBitRate
	if bitRate == 0 {
		bitRate = cfg.Mirror.BitRate
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	session, err := client.StartScreenStream(ctx, serial, adb.StreamOptions{
		BitRate: bitRate,
		Size:    mirrorSize,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if f := cmd.Flags().Lookup("listen"); f.Changed {
		addr := mirrorListen
		if addr == f.NoOptDefVal && cfg.Mirror.Listen != "" {
			// Bare --listen uses the configured address.
			addr = cfg.Mirror.Listen
		}
		return serveMirror(ctx, session, serial, addr)
	}
	return writeMirror(ctx, session, serial)
}

// writeMirror drains the stream into a file or stdout.
func writeMirror(ctx context.Context, session *adb.ScreenStreamSession, serial string) error {
	var out *os.File
	switch mirrorOut {
	case "", "-":
		if ui.IsTerminal() {
			return fmt.Errorf("refusing to write raw H.264 to a terminal; pipe the output, or use -o or --listen")
		}
		out = os.Stdout
	default:
		f, err := os.Create(mirrorOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
		ui.PrintInfo("Mirroring %s to %s (Ctrl-C to stop)...", serial, mirrorOut)
	}

	for {
		chunk, err := session.ReadChunk(ctx, 64*1024)
		if len(chunk) > 0 {
			if _, werr := out.Write(chunk); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// serveMirror fans the stream out to WebSocket viewers until the
// context is cancelled or the stream ends.
func serveMirror(ctx context.Context, session *adb.ScreenStreamSession, serial, addr string) error {
	hub := bridge.NewHub()
	defer hub.Close()

	mux := http.NewServeMux()
	mux.Handle("/stream", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 2)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- hub.Pump(ctx, session)
	}()

	ui.PrintSuccess("Mirroring %s", serial)
	ui.PrintLink("Stream", "ws://"+addr+"/stream")
	ui.PrintDim("Press Ctrl-C to stop")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			log.Debug("Mirror loop ended", "error", runErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}
