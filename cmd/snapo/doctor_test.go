// Package main provides tests for the doctor checks.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/snap-o/cli/internal/adb"
)

// fakeVersionServer answers host:version with the given protocol
// version and closes the connection.
func fakeVersionServer(t *testing.T, version int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				header := make([]byte, 4)
				if _, err := io.ReadFull(c, header); err != nil {
					return
				}
				n, err := strconv.ParseUint(string(header), 16, 32)
				if err != nil {
					return
				}
				req := make([]byte, n)
				if _, err := io.ReadFull(c, req); err != nil {
					return
				}
				if string(req) != "host:version" {
					return
				}
				payload := fmt.Sprintf("%04x", version)
				fmt.Fprintf(c, "OKAY%04x%s", len(payload), payload)
			}(c)
		}
	}()
	return ln.Addr().String()
}

// deadAddr returns a loopback address nothing is listening on.
func deadAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// TestCheckVersion verifies the dev build is flagged as a warning.
func TestCheckVersion(t *testing.T) {
	check := checkVersion()
	if version == "dev" {
		if check.Status != "warning" {
			t.Errorf("checkVersion() status = %q, want %q for a dev build", check.Status, "warning")
		}
		if check.Message != "Development build" {
			t.Errorf("checkVersion() message = %q, want %q", check.Message, "Development build")
		}
	}
}

// TestCheckAdbBinary tests binary resolution reporting.
func TestCheckAdbBinary(t *testing.T) {
	tests := []struct {
		name       string
		adbPath    string
		wantStatus string
	}{
		{name: "binary found", adbPath: "/sdk/platform-tools/adb", wantStatus: "ok"},
		{name: "binary missing", adbPath: "", wantStatus: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := checkAdbBinary(tt.adbPath)
			if check.Status != tt.wantStatus {
				t.Errorf("checkAdbBinary(%q) status = %q, want %q", tt.adbPath, check.Status, tt.wantStatus)
			}
		})
	}

	check := checkAdbBinary("")
	if !strings.Contains(check.Details, "SNAPO_ADB_PATH") {
		t.Errorf("checkAdbBinary(\"\") details = %q, want the override variable named", check.Details)
	}
}

// TestCheckAdbServer tests the server probe against a fake server and
// a dead address.
func TestCheckAdbServer(t *testing.T) {
	t.Run("running server", func(t *testing.T) {
		addr := fakeVersionServer(t, 0x29)
		client := adb.NewClientWithAddress("", addr)

		check := checkAdbServer(context.Background(), client, "/usr/bin/adb")
		if check.Status != "ok" {
			t.Fatalf("checkAdbServer() status = %q, want %q (message %q)", check.Status, "ok", check.Message)
		}
		if !strings.Contains(check.Message, "41") {
			t.Errorf("checkAdbServer() message = %q, want the protocol version in it", check.Message)
		}
	})

	t.Run("down with binary", func(t *testing.T) {
		client := adb.NewClientWithAddress("/usr/bin/adb", deadAddr(t))
		check := checkAdbServer(context.Background(), client, "/usr/bin/adb")
		if check.Status != "warning" {
			t.Errorf("checkAdbServer() status = %q, want %q", check.Status, "warning")
		}
	})

	t.Run("down without binary", func(t *testing.T) {
		client := adb.NewClientWithAddress("", deadAddr(t))
		check := checkAdbServer(context.Background(), client, "")
		if check.Status != "error" {
			t.Errorf("checkAdbServer() status = %q, want %q", check.Status, "error")
		}
	})
}

// TestCheckConfigFile tests config file reporting across missing,
// valid, and broken files.
func TestCheckConfigFile(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		check := checkConfigFile()
		if check.Status != "ok" {
			t.Errorf("checkConfigFile() status = %q, want %q", check.Status, "ok")
		}
		if !strings.Contains(check.Message, "Defaults") {
			t.Errorf("checkConfigFile() message = %q, want a defaults notice", check.Message)
		}
	})

	t.Run("valid config file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir := filepath.Join(home, ".snapo")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		content := "capture:\n  bit_rate: 4000000\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		check := checkConfigFile()
		if check.Status != "ok" {
			t.Errorf("checkConfigFile() status = %q, want %q (details %q)", check.Status, "ok", check.Details)
		}
		if !strings.Contains(check.Message, "Loaded from") {
			t.Errorf("checkConfigFile() message = %q, want a loaded notice", check.Message)
		}
	})

	t.Run("broken config file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir := filepath.Join(home, ".snapo")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		check := checkConfigFile()
		if check.Status != "warning" {
			t.Errorf("checkConfigFile() status = %q, want %q", check.Status, "warning")
		}
	})
}
