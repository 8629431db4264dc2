// Package main provides the screenshot command for the Snap-O CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/ui"
	"github.com/snap-o/cli/internal/util"
)

var screenshotOut string

// screenshotCmd captures a device screenshot.
var screenshotCmd = &cobra.Command{
	Use:   "screenshot <serial>",
	Short: "Take a screenshot",
	Long: `Capture the device screen as a PNG.

The image is written to a generated file name in the current
directory unless -o is given. Use "-o -" to write the PNG to stdout
for piping.

EXAMPLES:
  snapo screenshot emulator-5554
  snapo screenshot emulator-5554 -o login-bug.png
  snapo screenshot emulator-5554 -o - | pngcrush - out.png`,
	Args: cobra.ExactArgs(1),
	RunE: runScreenshot,
}

func init() {
	screenshotCmd.Flags().StringVarP(&screenshotOut, "out", "o", "", "Output file path (default: generated name, \"-\" for stdout)")
}

// runScreenshot executes the screenshot command.
func runScreenshot(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}
	serial := args[0]

	ui.StartSpinner("Capturing screenshot...")
	png, err := client.Screenshot(cmd.Context(), serial)
	ui.StopSpinner()
	if err != nil {
		return err
	}

	if screenshotOut == "-" {
		_, err := os.Stdout.Write(png)
		return err
	}

	out := screenshotOut
	if out == "" {
		out = util.CaptureFilename("screenshot", serial, time.Now(), "png")
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return err
	}

	jsonOrPrint(cmd,
		map[string]interface{}{"path": out, "bytes": len(png)},
		fmt.Sprintf("Screenshot saved: %s (%d KB)", out, len(png)/1024))
	return nil
}
