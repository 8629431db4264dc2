// Package tui provides the Bubble Tea live-device screen for the Snap-O CLI.
//
// The screen launches when a human runs `snapo devices --watch` in an
// interactive terminal. It is never activated for agents, CI/CD, or piped
// output -- three independent gates (--json, --quiet, isatty) prevent it.
package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/snap-o/cli/internal/devices"
)

// --- TTY gate ---

// ShouldRunTUI returns true if the watch TUI should be launched.
// Returns false when stdout is not a terminal, or --json/--quiet flags are set.
//
// Parameters:
//   - jsonOutput: whether --json was passed
//   - quiet: whether --quiet was passed
//
// Returns:
//   - bool: true if the TUI should run
func ShouldRunTUI(jsonOutput, quiet bool) bool {
	if jsonOutput || quiet {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// --- Brand colors (mirrors internal/ui/styles.go) ---

var (
	sky     = lipgloss.Color("#38BDF8")
	teal    = lipgloss.Color("#14B8A6")
	red     = lipgloss.Color("#EF4444")
	amber   = lipgloss.Color("#F59E0B")
	green   = lipgloss.Color("#22C55E")
	gray    = lipgloss.Color("#6B7280")
	dimGray = lipgloss.Color("#9CA3AF")
	white   = lipgloss.Color("#E5E7EB")
)

// --- Shared TUI styles ---

var (
	// titleStyle renders the SNAP-O header.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(sky)

	// versionStyle renders the version badge.
	versionStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	// sectionStyle renders section headers.
	sectionStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			Bold(true).
			MarginTop(1)

	// normalStyle renders list items.
	normalStyle = lipgloss.NewStyle().
			Foreground(white)

	// dimStyle renders low-priority text.
	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	// onlineStyle renders connected-device indicators.
	onlineStyle = lipgloss.NewStyle().
			Foreground(green)

	// emulatorStyle renders emulator badges.
	emulatorStyle = lipgloss.NewStyle().
			Foreground(amber)

	// errorStyle renders failure indicators.
	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	// helpStyle renders the bottom key hint bar.
	helpStyle = lipgloss.NewStyle().
			Foreground(gray)

	// separatorStyle renders horizontal rules.
	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))

	// headerBannerStyle frames the screen header.
	headerBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(sky).
				Padding(0, 1)
)

// separator returns a horizontal line of the given width.
func separator(width int) string {
	s := ""
	for i := 0; i < width; i++ {
		s += "─"
	}
	return separatorStyle.Render(s)
}

// helpKeyRender renders a key hint for the bottom bar.
func helpKeyRender(key, desc string) string {
	return lipgloss.NewStyle().Foreground(sky).Bold(true).Render(key) +
		" " + helpStyle.Render(desc)
}

// --- Shared message types ---

// DeviceListMsg carries a device snapshot from the tracker subscription.
type DeviceListMsg struct {
	Devices []devices.Device
}

// WatchClosedMsg signals that the tracker subscription has been closed.
type WatchClosedMsg struct{}

// --- Shared spinner factory ---

// newSpinner creates a consistently styled braille spinner.
func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(teal)
	return s
}
