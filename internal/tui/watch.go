package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snap-o/cli/internal/devices"
)

// --- Tea commands ---

// waitForDevicesCmd blocks until the subscription delivers the next
// device snapshot.
//
// Parameters:
//   - sub: tracker subscription feeding the screen
//
// Returns:
//   - tea.Cmd: async command that sends DeviceListMsg, or WatchClosedMsg
//     once the subscription is closed
func waitForDevicesCmd(sub *devices.Subscription) tea.Cmd {
	return func() tea.Msg {
		list, ok := <-sub.Devices()
		if !ok {
			return WatchClosedMsg{}
		}
		return DeviceListMsg{Devices: list}
	}
}

// watchModel is the Bubble Tea model for the live device table.
type watchModel struct {
	version string
	sub     *devices.Subscription

	devices  []devices.Device
	received bool

	spinner spinner.Model
	width   int
	height  int
}

// newWatchModel creates the initial watch model.
//
// Parameters:
//   - sub: tracker subscription feeding the screen
//   - version: the CLI version string for display
//
// Returns:
//   - watchModel: the initialized model
func newWatchModel(sub *devices.Subscription, version string) watchModel {
	return watchModel{
		version: version,
		sub:     sub,
		spinner: newSpinner(),
	}
}

// Init starts the spinner and the first subscription read.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForDevicesCmd(m.sub))
}

// Update handles incoming messages and key events.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DeviceListMsg:
		m.devices = msg.Devices
		m.received = true
		// Chain the next read so updates keep flowing.
		return m, waitForDevicesCmd(m.sub)

	case WatchClosedMsg:
		return m, tea.Quit
	}

	return m, nil
}

// View renders the live device table.
//
// Returns:
//   - string: the rendered TUI content
func (m watchModel) View() string {
	var b strings.Builder
	w := m.width
	if w == 0 {
		w = 80
	}
	innerW := min(w-4, 58)

	bannerContent := titleStyle.Render("SNAP-O") + " " + versionStyle.Render(m.version) +
		"  " + dimStyle.Render("Live devices")
	banner := headerBannerStyle.Width(innerW).Render(bannerContent)
	b.WriteString(banner + "\n")

	b.WriteString(sectionStyle.Render("  Devices") + " " + dimStyle.Render(fmt.Sprintf("%d", len(m.devices))) + "\n")
	b.WriteString("  " + separator(innerW) + "\n")

	switch {
	case !m.received:
		b.WriteString("  " + m.spinner.View() + " Waiting for the adb device list...\n")
	case len(m.devices) == 0:
		b.WriteString("  " + dimStyle.Render("No devices connected") + "\n")
		b.WriteString("  " + dimStyle.Render("Plug in a device or start an emulator") + "\n")
	default:
		for _, d := range m.devices {
			version := ""
			if d.AndroidVersion != "" {
				version = dimStyle.Render("  Android " + d.AndroidVersion)
			}
			b.WriteString("  " + onlineStyle.Render("● ") + normalStyle.Render(d.DisplayName()) +
				deviceBadge(d) + version + "  " + dimStyle.Render(d.Serial) + "\n")
		}
	}

	b.WriteString("\n  " + separator(innerW) + "\n")
	b.WriteString("  " + helpKeyRender("q", "quit") + "\n")
	return b.String()
}

// deviceBadge returns a styled connection-type badge for a device.
func deviceBadge(d devices.Device) string {
	if d.IsEmulator() {
		return emulatorStyle.Render(" [emulator]")
	}
	return dimStyle.Render(" [device]")
}

// --- Tea program runner ---

// RunWatch launches the live device screen. This is the entry point
// called from cmd/snapo when `devices --watch` runs interactively.
//
// Parameters:
//   - sub: tracker subscription feeding the screen
//   - version: the CLI version string for display
//
// Returns:
//   - error: any error from the Bubble Tea runtime
func RunWatch(sub *devices.Subscription, version string) error {
	p := tea.NewProgram(
		newWatchModel(sub, version),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
