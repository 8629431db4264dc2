package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snap-o/cli/internal/devices"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestWatchUpdate_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{keyRune('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newWatchModel(nil, "dev")
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("Update(%q) returned nil cmd, want tea.Quit", key.String())
		}
		if msg := cmd(); msg != (tea.QuitMsg{}) {
			t.Fatalf("Update(%q) cmd() = %v, want tea.QuitMsg", key.String(), msg)
		}
	}
}

func TestWatchUpdate_DeviceListChainsNextRead(t *testing.T) {
	m := newWatchModel(nil, "dev")

	nextModel, cmd := m.Update(DeviceListMsg{Devices: []devices.Device{{Serial: "emulator-5554"}}})
	if cmd == nil {
		t.Fatal("Update(DeviceListMsg) returned nil cmd, want chained subscription read")
	}

	next := nextModel.(watchModel)
	if !next.received {
		t.Error("Update(DeviceListMsg) left received = false")
	}
	if len(next.devices) != 1 || next.devices[0].Serial != "emulator-5554" {
		t.Errorf("Update(DeviceListMsg) devices = %v, want the delivered snapshot", next.devices)
	}
}

func TestWatchUpdate_ClosedSubscriptionQuits(t *testing.T) {
	m := newWatchModel(nil, "dev")

	_, cmd := m.Update(WatchClosedMsg{})
	if cmd == nil {
		t.Fatal("Update(WatchClosedMsg) returned nil cmd, want tea.Quit")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Fatalf("Update(WatchClosedMsg) cmd() = %v, want tea.QuitMsg", msg)
	}
}

func TestWatchView_WaitingState(t *testing.T) {
	m := newWatchModel(nil, "dev")
	m.width = 100
	m.height = 24

	view := m.View()
	if !strings.Contains(view, "Waiting for the adb device list") {
		t.Errorf("View() before first snapshot missing waiting line:\n%s", view)
	}
}

func TestWatchView_EmptySnapshot(t *testing.T) {
	m := newWatchModel(nil, "dev")
	m.width = 100
	m.height = 24
	m.received = true

	view := m.View()
	if !strings.Contains(view, "No devices connected") {
		t.Errorf("View() with empty snapshot missing placeholder:\n%s", view)
	}
}

func TestWatchView_ListsDevices(t *testing.T) {
	m := newWatchModel(nil, "dev")
	m.width = 100
	m.height = 24
	m.received = true
	m.devices = []devices.Device{
		{Serial: "emulator-5554", AVDName: "Pixel 8 API 34", AndroidVersion: "14"},
		{Serial: "R5CT10ABCDE", Model: "SM-S918B", AndroidVersion: "13"},
	}

	view := m.View()
	for _, want := range []string{"Pixel 8 API 34", "emulator-5554", "[emulator]", "SM-S918B", "R5CT10ABCDE", "[device]", "Android 14"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestWatchView_PlainWidthFallback(t *testing.T) {
	// A model that never saw a WindowSizeMsg still renders.
	m := newWatchModel(nil, "dev")
	m.received = true
	m.devices = []devices.Device{{Serial: "emulator-5554"}}

	view := m.View()
	if !strings.Contains(view, "emulator-5554") {
		t.Errorf("View() without window size missing device row:\n%s", view)
	}
}
