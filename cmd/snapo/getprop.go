package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/ui"
)

// getpropCmd reads system properties from a device.
var getpropCmd = &cobra.Command{
	Use:   "getprop <serial> [prefix]",
	Short: "Read device system properties",
	Long: `Read system properties from the device, optionally filtered by a
key prefix.

EXAMPLES:
  snapo getprop emulator-5554
  snapo getprop emulator-5554 ro.product.
  snapo getprop emulator-5554 ro.build. --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGetprop,
}

// runGetprop executes the getprop command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (serial, optional key prefix)
//
// Returns:
//   - error: Any error that occurred
func runGetprop(cmd *cobra.Command, args []string) error {
	client, _, err := loadClient()
	if err != nil {
		return err
	}
	serial := args[0]
	prefix := ""
	if len(args) == 2 {
		prefix = args[1]
	}

	props, err := client.Properties(cmd.Context(), serial, prefix)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		out, err := json.MarshalIndent(props, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(props) == 0 {
		ui.PrintInfo("No properties matched")
		return nil
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := ui.NewTable("PROPERTY", "VALUE")
	table.SetMaxWidth(1, 60)
	for _, k := range keys {
		table.AddRow(k, props[k])
	}
	table.Render()
	return nil
}
