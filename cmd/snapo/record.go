// Package main provides the record command for the Snap-O CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/ui"
	"github.com/snap-o/cli/internal/util"
)

var (
	recordOut       string
	recordBitRate   int
	recordTimeLimit int
	recordSize      string
)

// recordCmd records the device screen to an MP4 file.
var recordCmd = &cobra.Command{
	Use:   "record <serial>",
	Short: "Record the screen",
	Long: `Record the device screen to an MP4 file.

Recording runs until you press Ctrl-C or the time limit expires,
whichever comes first. The device-side recorder caps a single
recording at 180 seconds.

EXAMPLES:
  snapo record emulator-5554
  snapo record emulator-5554 -o repro.mp4 --time-limit 30
  snapo record emulator-5554 --bit-rate 12000000 --size 720x1600`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "Output file path (default: generated name)")
	recordCmd.Flags().IntVar(&recordBitRate, "bit-rate", 0, "Video bit rate in bits per second (default: configured)")
	recordCmd.Flags().IntVar(&recordTimeLimit, "time-limit", 0, "Maximum recording length in seconds (default: configured, max 180)")
	recordCmd.Flags().StringVar(&recordSize, "size", "", "Video size as WIDTHxHEIGHT (default: display size)")
}

// runRecord executes the record command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (the device serial)
//
// Returns:
//   - error: Any error that occurred
func runRecord(cmd *cobra.Command, args []string) error {
	client, cfg, err := loadClient()
	if err != nil {
		return err
	}
	serial := args[0]

	bitRate := recordBitRate
	if bitRate == 0 {
		bitRate = cfg.Capture.BitRate
	}
	limitSeconds := recordTimeLimit
	if limitSeconds == 0 {
		limitSeconds = cfg.Capture.TimeLimitSeconds
	}
	if limitSeconds <= 0 || limitSeconds > 180 {
		limitSeconds = 180
	}
	size := recordSize
	if size == "" {
		size = cfg.Capture.Size
	}
	out := recordOut
	if out == "" {
		out = util.CaptureFilename("recording", serial, time.Now(), "mp4")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session, err := client.StartRecording(ctx, serial, adb.RecordingOptions{
		BitRate:   bitRate,
		TimeLimit: time.Duration(limitSeconds) * time.Second,
		Size:      size,
	})
	if err != nil {
		return err
	}

	// Set up signal handling for graceful stop
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ui.StartSpinner(fmt.Sprintf("Recording %s (Ctrl-C to stop)...", serial))

	limit := time.NewTimer(time.Duration(limitSeconds) * time.Second)
	defer limit.Stop()

	select {
	case <-sigChan:
		ui.StopSpinner()
	case <-limit.C:
		ui.StopSpinner()
		ui.PrintInfo("Time limit reached")
	case <-ctx.Done():
		ui.StopSpinner()
	}

	// Use a fresh context for the stop sequence: the recording must be
	// finalized and pulled even when the command context is done.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := session.Stop(stopCtx, out); err != nil {
		return err
	}

	jsonOrPrint(cmd,
		map[string]interface{}{"path": out, "seconds": int(session.Elapsed().Seconds())},
		fmt.Sprintf("Recording saved: %s (%ds)", out, int(session.Elapsed().Seconds())))
	return nil
}
