// Package main provides shared helper functions for CLI commands.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/config"
	"github.com/snap-o/cli/internal/ui"
)

// loadClient builds the adb client every device command shares: load
// the optional config file, discover the adb binary, and point the
// client at the default server address.
//
// Returns:
//   - *adb.Client: The wire-protocol client
//   - *config.Config: The loaded configuration
//   - error: Any error that occurred
func loadClient() (*adb.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	path := config.FindAdb(cfg)
	log.Debug("Resolved adb binary", "path", path)
	return adb.NewClient(path), cfg, nil
}

// jsonOrPrint outputs result as JSON if --json flag is set, otherwise prints the message.
func jsonOrPrint(cmd *cobra.Command, v interface{}, fallbackMsg string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		data, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(data))
	} else {
		ui.PrintSuccess("%s", fallbackMsg)
	}
}
