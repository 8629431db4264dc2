// Package main provides the doctor command for CLI diagnostics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/config"
	"github.com/snap-o/cli/internal/devices"
	"github.com/snap-o/cli/internal/ui"
)

// DoctorCheck represents a single diagnostic check result.
type DoctorCheck struct {
	// Name is the check name (e.g., "Version", "Adb Binary").
	Name string `json:"name"`

	// Status is the check status: "ok", "warning", "error".
	Status string `json:"status"`

	// Message is the human-readable result message.
	Message string `json:"message"`

	// Details contains additional information (optional).
	Details string `json:"details,omitempty"`
}

// DoctorResult contains all diagnostic check results.
type DoctorResult struct {
	// Checks contains all individual check results.
	Checks []DoctorCheck `json:"checks"`

	// Issues is the count of checks with status "error" or "warning".
	Issues int `json:"issues"`

	// Healthy is true if no errors were found.
	Healthy bool `json:"healthy"`
}

var doctorOutputJSON bool

// doctorCmd runs diagnostic checks on the CLI installation.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check CLI health and device connectivity",
	Long: `Run diagnostic checks on the Snap-O CLI installation.

CHECKS PERFORMED:
  - CLI version
  - adb binary (on PATH, configured, or in a known SDK location?)
  - adb server (running and answering on its socket?)
  - Connected devices
  - Configuration file (~/.snapo/config.yaml valid?)

OUTPUT:
  Human-readable by default, JSON with --json flag.

EXAMPLES:
  snapo doctor              # Run all checks
  snapo doctor --json       # Output as JSON for scripting`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorOutputJSON, "json", false, "Output results as JSON")
}

// runDoctor executes all diagnostic checks.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runDoctor(cmd *cobra.Command, args []string) error {
	// Check if --json flag is set (either local or global)
	jsonOutput := doctorOutputJSON
	if globalJSON, _ := cmd.Root().PersistentFlags().GetBool("json"); globalJSON {
		jsonOutput = true
	}

	result := DoctorResult{
		Checks:  make([]DoctorCheck, 0),
		Healthy: true,
	}

	if !jsonOutput {
		ui.PrintBanner(version)
		ui.PrintInfo("Running diagnostic checks...")
		ui.Println()
	}

	cfg, err := config.Load()
	if err != nil {
		// A broken config file still leaves the defaults usable; the
		// config check below reports the parse failure.
		cfg = config.DefaultConfig()
	}
	adbPath := config.FindAdb(cfg)
	client := adb.NewClient(adbPath)

	// Check 1: CLI Version
	versionCheck := checkVersion()
	result.Checks = append(result.Checks, versionCheck)
	if versionCheck.Status == "error" {
		result.Healthy = false
		result.Issues++
	} else if versionCheck.Status == "warning" {
		result.Issues++
	}

	// Check 2: adb Binary
	binaryCheck := checkAdbBinary(adbPath)
	result.Checks = append(result.Checks, binaryCheck)
	if binaryCheck.Status == "error" {
		result.Healthy = false
		result.Issues++
	}

	// Check 3: adb Server
	serverCheck := checkAdbServer(cmd.Context(), client, adbPath)
	result.Checks = append(result.Checks, serverCheck)
	if serverCheck.Status == "error" {
		result.Healthy = false
		result.Issues++
	}

	// Check 4: Devices (skipped when there is no server and no binary
	// to start one)
	if serverCheck.Status != "error" {
		deviceCheck := checkDevices(cmd.Context(), client)
		result.Checks = append(result.Checks, deviceCheck)
		if deviceCheck.Status != "ok" {
			result.Issues++
		}
	}

	// Check 5: Configuration
	configCheck := checkConfigFile()
	result.Checks = append(result.Checks, configCheck)
	if configCheck.Status == "warning" {
		result.Issues++
		// The config file is optional, don't mark as unhealthy
	}

	// Output results
	if jsonOutput {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		printDoctorResults(result)
	}

	if !result.Healthy {
		return fmt.Errorf("health check failed")
	}

	return nil
}

// checkVersion reports the CLI version.
//
// Returns:
//   - DoctorCheck: The check result
func checkVersion() DoctorCheck {
	check := DoctorCheck{
		Name:   "Version",
		Status: "ok",
	}

	if version == "dev" {
		check.Status = "warning"
		check.Message = "Development build"
		check.Details = "Running a development build, not a released version"
	} else {
		check.Message = fmt.Sprintf("v%s", version)
		check.Details = fmt.Sprintf("Commit: %s, Built: %s", commit, date)
	}

	return check
}

// checkAdbBinary checks whether an adb binary could be located.
//
// Parameters:
//   - adbPath: The resolved binary path (empty when not found)
//
// Returns:
//   - DoctorCheck: The check result
func checkAdbBinary(adbPath string) DoctorCheck {
	check := DoctorCheck{
		Name:   "Adb Binary",
		Status: "ok",
	}

	if adbPath == "" {
		check.Status = "error"
		check.Message = "Not found"
		check.Details = fmt.Sprintf("Install Android platform-tools, or set %s", config.EnvAdbPath)
		return check
	}

	check.Message = fmt.Sprintf("Found at %s", adbPath)
	return check
}

// checkAdbServer probes the adb server without starting it.
//
// Parameters:
//   - ctx: Context for cancellation
//   - client: The wire-protocol client
//   - adbPath: The resolved binary path (empty when not found)
//
// Returns:
//   - DoctorCheck: The check result
func checkAdbServer(ctx context.Context, client *adb.Client, adbPath string) DoctorCheck {
	check := DoctorCheck{
		Name:   "Adb Server",
		Status: "ok",
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	v, err := client.ServerVersion(probeCtx)
	latency := time.Since(start)

	if err != nil {
		if adbPath == "" {
			check.Status = "error"
			check.Message = "Not running"
			check.Details = "No adb binary available to start it with"
			return check
		}
		check.Status = "warning"
		check.Message = "Not running"
		check.Details = "The next device command starts it automatically"
		return check
	}

	check.Message = fmt.Sprintf("Running (version %d, latency: %dms)", v, latency.Milliseconds())
	check.Details = fmt.Sprintf("Listening on %s", adb.DefaultServerAddr)
	return check
}

// checkDevices lists connected devices.
//
// Parameters:
//   - ctx: Context for cancellation
//   - client: The wire-protocol client
//
// Returns:
//   - DoctorCheck: The check result
func checkDevices(ctx context.Context, client *adb.Client) DoctorCheck {
	check := DoctorCheck{
		Name:   "Devices",
		Status: "ok",
	}

	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := devices.List(listCtx, client)
	if err != nil {
		check.Status = "warning"
		check.Message = "Could not list devices"
		check.Details = err.Error()
		return check
	}

	if len(list) == 0 {
		check.Status = "warning"
		check.Message = "No devices connected"
		check.Details = "Connect a device with USB debugging enabled, or start an emulator"
		return check
	}

	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.DisplayName())
	}
	check.Message = fmt.Sprintf("%d device(s) connected", len(list))
	check.Details = strings.Join(names, ", ")
	return check
}

// checkConfigFile checks whether the configuration file loads.
//
// Returns:
//   - DoctorCheck: The check result
func checkConfigFile() DoctorCheck {
	check := DoctorCheck{
		Name:   "Configuration",
		Status: "ok",
	}

	path, err := config.Path()
	if err != nil {
		check.Status = "warning"
		check.Message = "Could not resolve config path"
		check.Details = err.Error()
		return check
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Message = "Defaults (no config file)"
		check.Details = fmt.Sprintf("Create %s to customize capture and mirror settings", path)
		return check
	}

	if _, err := config.Load(); err != nil {
		check.Status = "warning"
		check.Message = "Config file is invalid"
		check.Details = err.Error()
		return check
	}

	check.Message = fmt.Sprintf("Loaded from %s", path)
	return check
}

// printDoctorResults prints the doctor results in human-readable format.
//
// Parameters:
//   - result: The doctor result to print
func printDoctorResults(result DoctorResult) {
	for _, check := range result.Checks {
		var icon string
		switch check.Status {
		case "ok":
			icon = ui.SuccessStyle.Render("✓")
		case "warning":
			icon = ui.WarningStyle.Render("⚠")
		case "error":
			icon = ui.ErrorStyle.Render("✗")
		}

		// Print check name and message
		fmt.Printf("  %s %-16s %s\n", icon, check.Name+":", check.Message)

		// Print details if present
		if check.Details != "" {
			fmt.Printf("    %s\n", ui.DimStyle.Render(check.Details))
		}
	}

	ui.Println()

	if result.Issues > 0 {
		ui.PrintWarning("%d issue(s) found", result.Issues)
	} else {
		ui.PrintSuccess("All checks passed")
	}

	// Print context-aware next steps based on check results
	var steps []ui.NextStep
	for _, check := range result.Checks {
		switch {
		case check.Name == "Adb Binary" && check.Status == "error":
			steps = append(steps, ui.NextStep{Label: "Point at your adb:", Command: "export " + config.EnvAdbPath + "=/path/to/adb"})
		case check.Name == "Devices" && check.Status == "warning":
			steps = append(steps, ui.NextStep{Label: "Wait for a device:", Command: "snapo devices --watch"})
		}
	}

	// If all healthy, suggest taking a capture
	if result.Healthy && len(steps) == 0 {
		steps = append(steps, ui.NextStep{Label: "Take a capture:", Command: "snapo screenshot <serial>"})
	}

	ui.PrintNextSteps(steps)
}
