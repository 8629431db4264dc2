// Package main provides the devices command for the Snap-O CLI.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/devices"
	"github.com/snap-o/cli/internal/tui"
	"github.com/snap-o/cli/internal/ui"
)

var devicesWatch bool

// deviceJSON is the JSON shape for one listed device.
type deviceJSON struct {
	Serial         string `json:"serial"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	AVDName        string `json:"avd_name,omitempty"`
	Emulator       bool   `json:"emulator"`
}

// devicesCmd lists connected devices.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long: `List connected Android devices with their identities.

Serials come from the adb server; names, Android versions, and
emulator AVD names are read from each device's properties.

EXAMPLES:
  snapo devices           # One-shot table
  snapo devices --json    # Machine-readable listing
  snapo devices --watch   # Live view, updates as devices come and go`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesWatch, "watch", "w", false, "Watch for device changes in a live view")
}

// runDevices executes the devices command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runDevices(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	if devicesWatch {
		if !tui.ShouldRunTUI(jsonOutput, quiet) {
			return fmt.Errorf("--watch needs an interactive terminal (and no --json/--quiet)")
		}
		tracker := devices.NewTracker(client)
		sub := tracker.Subscribe()
		defer sub.Close()
		return tui.RunWatch(sub, version)
	}

	list, err := devices.List(cmd.Context(), client)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]deviceJSON, len(list))
		for i, d := range list {
			out[i] = deviceJSON{
				Serial:         d.Serial,
				Name:           d.DisplayName(),
				Model:          d.Model,
				Manufacturer:   d.Manufacturer,
				AndroidVersion: d.AndroidVersion,
				AVDName:        d.AVDName,
				Emulator:       d.IsEmulator(),
			}
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(list) == 0 {
		ui.PrintInfo("No devices connected")
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "Check your setup:", Command: "snapo doctor"},
			{Label: "Wait for one:", Command: "snapo devices --watch"},
		})
		return nil
	}

	table := ui.NewTable("SERIAL", "NAME", "ANDROID", "TYPE")
	table.SetMaxWidth(1, 40)
	for _, d := range list {
		kind := "device"
		if d.IsEmulator() {
			kind = "emulator"
		}
		android := d.AndroidVersion
		if android == "" {
			android = "-"
		}
		table.AddRow(d.Serial, d.DisplayName(), android, kind)
	}
	table.Render()
	return nil
}
