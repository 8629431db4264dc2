// Package ui provides the ASCII banner for the Snap-O CLI.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Banner is the ASCII art logo for Snap-O CLI.
const banner = `
  ███████╗███╗   ██╗ █████╗ ██████╗        ██████╗
  ██╔════╝████╗  ██║██╔══██╗██╔══██╗      ██╔═══██╗
  ███████╗██╔██╗ ██║███████║██████╔╝█████╗██║   ██║
  ╚════██║██║╚██╗██║██╔══██║██╔═══╝ ╚════╝██║   ██║
  ███████║██║ ╚████║██║  ██║██║           ╚██████╔╝
  ╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝            ╚═════╝`

// tagline is the product tagline.
const tagline = "Instant captures from your Android devices"

// PrintBanner prints the Snap-O banner with version info.
//
// Parameters:
//   - version: The CLI version string to display
func PrintBanner(version string) {
	if quietMode {
		return
	}

	// Style the banner with the brand color
	styledBanner := lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true).
		Render(banner)

	fmt.Println(styledBanner)
	fmt.Println()

	// Tagline
	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		PaddingLeft(2)
	fmt.Println(taglineStyle.Render(tagline))
	fmt.Println()

	// Version and info
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		PaddingLeft(2)

	fmt.Println(infoStyle.Render(fmt.Sprintf("Version: %s", version)))
	fmt.Println(infoStyle.Render("Docs:    https://github.com/snap-o/cli"))
	fmt.Println()
}

// GetCondensedHelp returns a compact cheat-sheet for the common
// workflows. Shown when the user runs `snapo` with no arguments in a
// non-interactive context. No ASCII banner, no Cobra auto-generated
// command list -- just the essentials.
func GetCondensedHelp() string {
	sky := lipgloss.NewStyle().Foreground(Sky).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	return fmt.Sprintf(`%s

%s
  %s                 List connected devices
  %s      Take a screenshot
  %s          Record the screen (Ctrl-C to stop)
  %s          Mirror the screen live

%s
  %s           Run a shell command on a device
  %s         Forward a local TCP port to an app socket
  %s            Copy a file off a device

%s
  %s              Check your adb setup
  %s           Start MCP server for AI integration

%s
`,
		sky.Render("Snap-O")+" - "+dim.Render(tagline),
		sky.Render("Capture:"),
		sky.Render("snapo devices"),
		sky.Render("snapo screenshot <serial>"),
		sky.Render("snapo record <serial>"),
		sky.Render("snapo mirror <serial>"),
		sky.Render("Inspect:"),
		sky.Render("snapo shell <serial> <cmd>"),
		sky.Render("snapo forward <serial> <name>"),
		sky.Render("snapo pull <serial> <path>"),
		sky.Render("Tooling:"),
		sky.Render("snapo doctor"),
		sky.Render("snapo mcp serve"),
		hint.Render(`Use "snapo --help" for a full list of commands.`),
	)
}

// GetHelpText returns the verbose help text for the CLI, used by `snapo --help`.
// Contains the full curated command reference without the ASCII banner.
func GetHelpText() string {
	sky := lipgloss.NewStyle().Foreground(Sky).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	return fmt.Sprintf(`%s

%s
  %s                   List connected devices
  %s           Watch devices live in the terminal
  %s        Take a screenshot
  %s            Record the screen (Ctrl-C to stop)
  %s            Mirror the screen to WebSocket viewers

%s
  %s       Run a shell command on a device
  %s     Forward a local TCP port to an app socket
  %s   Copy a file off a device
  %s        Read device properties

%s
  %s                    Check your adb setup
  %s                 Start MCP server for AI agent integration

%s  https://github.com/snap-o/cli`,
		dim.Render(tagline+". Screenshots, recordings, and live mirrors over the adb wire protocol."),
		sky.Render("Capture:"),
		sky.Render("snapo devices"),
		sky.Render("snapo devices --watch"),
		sky.Render("snapo screenshot <serial>"),
		sky.Render("snapo record <serial>"),
		sky.Render("snapo mirror <serial>"),
		sky.Render("Inspect:"),
		sky.Render("snapo shell <serial> <cmd>"),
		sky.Render("snapo forward <serial> <name>"),
		sky.Render("snapo pull <serial> <remote>"),
		sky.Render("snapo getprop <serial>"),
		sky.Render("Tooling:"),
		sky.Render("snapo doctor"),
		sky.Render("snapo mcp serve"),
		sky.Render("Docs: "),
	)
}
