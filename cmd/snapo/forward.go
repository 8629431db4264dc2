package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/ui"
)

var forwardCopy bool

// forwardCmd exposes an app's abstract socket on a local TCP port.
var forwardCmd = &cobra.Command{
	Use:   "forward <serial> <socket-name>",
	Short: "Forward an app socket to a local port",
	Long: `Forward a device abstract socket to a local TCP port.

The port is chosen automatically and held open until Ctrl-C, then the
forward is removed from the server.

EXAMPLES:
  snapo forward emulator-5554 myapp-debug
  snapo forward emulator-5554 myapp-debug --copy`,
	Args: cobra.ExactArgs(2),
	RunE: runForward,
}

func init() {
	forwardCmd.Flags().BoolVar(&forwardCopy, "copy", false, "Copy the local address to the clipboard")
}

// runForward executes the forward command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (serial, socket name)
//
// Returns:
//   - error: Any error that occurred
func runForward(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}
	serial, socketName := args[0], args[1]

	fwd, err := client.Forward(cmd.Context(), serial, socketName)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		out, err := json.MarshalIndent(map[string]any{
			"serial":  fwd.Serial,
			"socket":  socketName,
			"port":    fwd.LocalPort,
			"address": fwd.Addr(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		ui.PrintSuccess("Forwarding %s to localabstract:%s", fwd.Addr(), socketName)
	}

	if forwardCopy {
		if err := clipboard.WriteAll(fwd.Addr()); err != nil {
			log.Warn("Could not copy to clipboard", "error", err)
		} else {
			ui.PrintDim("Address copied to clipboard")
		}
	}

	ui.PrintDim("Press Ctrl-C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-cmd.Context().Done():
	}

	// The command context may already be gone; the forward is removed
	// on a fresh one so cleanup still reaches the server.
	removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.RemoveForward(removeCtx, fwd); err != nil {
		log.Debug("Could not remove forward", "port", fwd.LocalPort, "error", err)
		return nil
	}
	ui.PrintInfo("Forward removed")
	return nil
}
