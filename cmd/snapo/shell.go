// Package main provides the shell command for the Snap-O CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// shellCmd runs a one-shot shell command on a device.
var shellCmd = &cobra.Command{
	Use:   "shell <serial> <command>...",
	Short: "Run a shell command on a device",
	Long: `Run a shell command on a device and print its output.

The command runs through the adb shell service, so output arrives the
way the device's shell produced it. Quote the command if it contains
characters your local shell would eat.

EXAMPLES:
  snapo shell emulator-5554 getprop ro.product.model
  snapo shell emulator-5554 "dumpsys battery | head -20"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runShell,
}

// runShell executes the shell command.
func runShell(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	serial := args[0]
	command := strings.Join(args[1:], " ")

	out, err := client.Shell(cmd.Context(), serial, command)
	if err != nil {
		return err
	}

	// Raw output, exactly as the device shell produced it.
	fmt.Print(out)
	if out != "" && !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}
