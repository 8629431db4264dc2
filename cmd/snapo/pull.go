package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/ui"
)

// pullCmd copies a file off the device.
var pullCmd = &cobra.Command{
	Use:   "pull <serial> <remote-path> [local-path]",
	Short: "Pull a file from the device",
	Long: `Copy a file from the device to the local filesystem.

When no local path is given the file keeps its name in the current
directory.

EXAMPLES:
  snapo pull emulator-5554 /sdcard/Download/report.pdf
  snapo pull emulator-5554 /sdcard/DCIM/Camera/IMG_0001.jpg photo.jpg`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPull,
}

// runPull executes the pull command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (serial, remote path, optional local path)
//
// Returns:
//   - error: Any error that occurred
func runPull(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}
	serial, remotePath := args[0], args[1]

	localPath := filepath.Base(remotePath)
	if len(args) == 3 {
		localPath = args[2]
	}

	ui.StartSpinner(fmt.Sprintf("Pulling %s...", remotePath))
	err = client.Pull(cmd.Context(), serial, remotePath, localPath)
	ui.StopSpinner()
	if err != nil {
		return err
	}

	jsonOrPrint(cmd, map[string]any{
		"remote": remotePath,
		"local":  localPath,
	}, fmt.Sprintf("Pulled %s to %s", remotePath, localPath))
	return nil
}
