package snapo

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/snap-o/cli/internal/config"
)

// startFakeAdb serves a device listing and getprop output the way the
// adb host server would, one connection per request sequence.
func startFakeAdb(t *testing.T, listing, getprop string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				for {
					header := make([]byte, 4)
					if _, err := io.ReadFull(c, header); err != nil {
						return
					}
					n, err := strconv.ParseUint(string(header), 16, 32)
					if err != nil {
						return
					}
					reqBytes := make([]byte, n)
					if _, err := io.ReadFull(c, reqBytes); err != nil {
						return
					}
					switch req := string(reqBytes); {
					case req == "host:devices-l":
						fmt.Fprintf(c, "OKAY%04x%s", len(listing), listing)
						return
					case strings.HasPrefix(req, "host:transport:"):
						io.WriteString(c, "OKAY")
					case req == "shell:getprop":
						io.WriteString(c, "OKAY")
						io.WriteString(c, getprop)
						return
					default:
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestNewClient_OptionWiring(t *testing.T) {
	cfg := config.DefaultConfig()
	client, err := NewClient(
		WithConfig(cfg),
		WithAdbPath("/opt/sdk/platform-tools/adb"),
		WithServerAddress("127.0.0.1:15037"),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.GetConfig() != cfg {
		t.Error("GetConfig() does not return the supplied config")
	}
	if client.adbPath != "/opt/sdk/platform-tools/adb" {
		t.Errorf("adbPath = %q, want the supplied path", client.adbPath)
	}
	if client.addr != "127.0.0.1:15037" {
		t.Errorf("addr = %q, want the supplied address", client.addr)
	}
}

func TestClientDevices_EndToEnd(t *testing.T) {
	listing := "emulator-5554          device model:sdk_gphone64_arm64\n"
	getprop := "[ro.build.version.release]: [14]\n" +
		"[ro.boot.qemu.avd_name]: [Pixel_8_API_34]\n"
	addr := startFakeAdb(t, listing, getprop)

	client, err := NewClient(WithConfig(config.DefaultConfig()), WithServerAddress(addr))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	list, err := client.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d devices, want 1", len(list))
	}
	if list[0].Serial != "emulator-5554" {
		t.Errorf("Serial = %q, want emulator-5554", list[0].Serial)
	}
	if got := list[0].DisplayName(); got != "Pixel 8 API 34" {
		t.Errorf("DisplayName() = %q, want the AVD name", got)
	}
	if !list[0].IsEmulator() {
		t.Error("IsEmulator() = false, want true")
	}
}

func TestWatchDevices_SharesOneTracker(t *testing.T) {
	client, err := NewClient(WithConfig(config.DefaultConfig()), WithServerAddress("127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	sub1 := client.WatchDevices()
	defer sub1.Close()
	tracker := client.tracker
	sub2 := client.WatchDevices()
	defer sub2.Close()

	if client.tracker != tracker {
		t.Error("second WatchDevices() built a new tracker")
	}
	if sub1 == sub2 {
		t.Error("subscriptions are not independent")
	}
}
