package adb

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestClassifyRecorderExit(t *testing.T) {
	tests := []struct {
		name     string
		status   exitStatus
		detail   string
		wantErr  bool
		wantCode int
	}{
		{name: "clean exit", status: exitStatus{Code: 0}},
		{name: "killed by our sigint", status: exitStatus{Code: 130, Signal: "INT"}},
		{name: "sigint code without signal name", status: exitStatus{Code: 130}},
		{
			name:     "real failure",
			status:   exitStatus{Code: 1},
			detail:   "Unable to open '/sdcard': Permission denied",
			wantErr:  true,
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyRecorderExit(tt.status, tt.detail)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("classifyRecorderExit() error = %v, want nil", err)
				}
				return
			}
			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("classifyRecorderExit() error = %v, want ExitError", err)
			}
			if exitErr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", exitErr.Code, tt.wantCode)
			}
			if exitErr.Stderr != tt.detail {
				t.Errorf("Stderr = %q, want the recorder's output", exitErr.Stderr)
			}
		})
	}
}

func TestParseRecorderTail(t *testing.T) {
	tests := []struct {
		name     string
		tail     string
		wantCode int
	}{
		{name: "silence means success", tail: "", wantCode: 0},
		{name: "whitespace only", tail: "\r\n", wantCode: 0},
		{name: "interrupted", tail: "Killed by SIGINT\n", wantCode: 130},
		{name: "error output", tail: "Unable to open output file\n", wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := parseRecorderTail(tt.tail)
			if status.Code != tt.wantCode {
				t.Errorf("parseRecorderTail(%q).Code = %d, want %d", tt.tail, status.Code, tt.wantCode)
			}
		})
	}
}

func TestStartRecording_ParsesPid(t *testing.T) {
	var (
		mu      sync.Mutex
		command string
	)
	addr := startTestServer(t, func(c net.Conn) {
		for {
			req, err := readWireRequest(c)
			if err != nil {
				c.Close()
				return
			}
			switch {
			case strings.HasPrefix(req, "host:transport:"):
				io.WriteString(c, "OKAY")
			case strings.HasPrefix(req, "shell:echo $$; exec screenrecord"):
				mu.Lock()
				command = req
				mu.Unlock()
				io.WriteString(c, "OKAY")
				io.WriteString(c, "4242\n")
				// held open until the client closes it
				io.Copy(io.Discard, c)
				c.Close()
				return
			default:
				writeFail(c, "unknown request")
				c.Close()
				return
			}
		}
	})

	client := NewClientWithAddress("", addr)
	session, err := client.StartRecording(context.Background(), "emulator-5554", RecordingOptions{
		BitRate: 6_000_000,
		Size:    "720x1280",
	})
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	defer session.conn.Close()

	if session.PID != 4242 {
		t.Errorf("PID = %d, want 4242", session.PID)
	}
	if !strings.HasPrefix(session.RemotePath, "/sdcard/.snapo-") || !strings.HasSuffix(session.RemotePath, ".mp4") {
		t.Errorf("RemotePath = %q, want a /sdcard/.snapo-*.mp4 path", session.RemotePath)
	}

	mu.Lock()
	cmd := command
	mu.Unlock()
	for _, part := range []string{"--bit-rate 6000000", "--time-limit 180", "--size 720x1280", session.RemotePath} {
		if !strings.Contains(cmd, part) {
			t.Errorf("command %q missing %q", cmd, part)
		}
	}
}

func TestStartRecording_GarbagePidLine(t *testing.T) {
	addr := startTestServer(t, func(c net.Conn) {
		defer c.Close()
		for {
			req, err := readWireRequest(c)
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(req, "host:transport:"):
				io.WriteString(c, "OKAY")
			case strings.HasPrefix(req, "shell:"):
				io.WriteString(c, "OKAY")
				io.WriteString(c, "/system/bin/sh: screenrecord: not found\n")
				return
			default:
				writeFail(c, "unknown request")
				return
			}
		}
	})

	client := NewClientWithAddress("", addr)
	_, err := client.StartRecording(context.Background(), "emulator-5554", RecordingOptions{Size: "720x1280"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("StartRecording() error = %v, want ParseError", err)
	}
}

func TestRecordingSessionStop_PullsAndRemoves(t *testing.T) {
	var (
		mu      sync.Mutex
		recConn net.Conn
		removed bool
	)
	video := "ftyp-not-really-an-mp4"

	addr := startTestServer(t, func(c net.Conn) {
		for {
			req, err := readWireRequest(c)
			if err != nil {
				c.Close()
				return
			}
			switch {
			case strings.HasPrefix(req, "host:transport:"):
				io.WriteString(c, "OKAY")
			case strings.HasPrefix(req, "shell:echo $$; exec screenrecord"):
				io.WriteString(c, "OKAY")
				io.WriteString(c, "4242\n")
				mu.Lock()
				recConn = c
				mu.Unlock()
				return // held open; the kill handler closes it
			case strings.HasPrefix(req, "shell:kill -INT 4242"):
				io.WriteString(c, "OKAY")
				mu.Lock()
				if recConn != nil {
					recConn.Close() // the "process" exits quietly
				}
				mu.Unlock()
				c.Close()
				return
			case req == "sync:":
				io.WriteString(c, "OKAY")
				id := make([]byte, 4)
				if _, err := io.ReadFull(c, id); err != nil {
					c.Close()
					return
				}
				lenBuf := make([]byte, 4)
				io.ReadFull(c, lenBuf)
				path := make([]byte, binary.LittleEndian.Uint32(lenBuf))
				io.ReadFull(c, path)
				io.WriteString(c, "DATA")
				c.Write(le(len(video)))
				io.WriteString(c, video)
				io.WriteString(c, "DONE")
				c.Write(le(0))
				c.Close()
				return
			case strings.HasPrefix(req, "shell:rm -f /sdcard/.snapo-"):
				mu.Lock()
				removed = true
				mu.Unlock()
				io.WriteString(c, "OKAY")
				c.Close()
				return
			default:
				writeFail(c, "unknown request "+req)
				c.Close()
				return
			}
		}
	})

	client := NewClientWithAddress("", addr)
	ctx := context.Background()
	session, err := client.StartRecording(ctx, "emulator-5554", RecordingOptions{Size: "720x1280"})
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	local := filepath.Join(t.TempDir(), "capture.mp4")
	if err := session.Stop(ctx, local); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != video {
		t.Errorf("pulled %q, want the recorded bytes", data)
	}
	mu.Lock()
	defer mu.Unlock()
	if !removed {
		t.Error("remote recording was not removed after the pull")
	}
}

func TestRecordingSessionStop_RecorderFailure(t *testing.T) {
	var (
		mu      sync.Mutex
		recConn net.Conn
		pulled  bool
	)

	addr := startTestServer(t, func(c net.Conn) {
		for {
			req, err := readWireRequest(c)
			if err != nil {
				c.Close()
				return
			}
			switch {
			case strings.HasPrefix(req, "host:transport:"):
				io.WriteString(c, "OKAY")
			case strings.HasPrefix(req, "shell:echo $$; exec screenrecord"):
				io.WriteString(c, "OKAY")
				io.WriteString(c, "4242\n")
				mu.Lock()
				recConn = c
				mu.Unlock()
				return
			case strings.HasPrefix(req, "shell:kill -INT 4242"):
				io.WriteString(c, "OKAY")
				mu.Lock()
				if recConn != nil {
					// the "process" dies complaining
					io.WriteString(recConn, "Unable to get output buffers (err=-38)\n")
					recConn.Close()
				}
				mu.Unlock()
				c.Close()
				return
			case req == "sync:":
				mu.Lock()
				pulled = true
				mu.Unlock()
				writeFail(c, "should not pull")
				c.Close()
				return
			case strings.HasPrefix(req, "shell:rm -f "):
				io.WriteString(c, "OKAY")
				c.Close()
				return
			default:
				writeFail(c, "unknown request")
				c.Close()
				return
			}
		}
	})

	client := NewClientWithAddress("", addr)
	ctx := context.Background()
	session, err := client.StartRecording(ctx, "emulator-5554", RecordingOptions{Size: "720x1280"})
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	err = session.Stop(ctx, filepath.Join(t.TempDir(), "capture.mp4"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Stop() error = %v, want ExitError", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if pulled {
		t.Error("Stop() pulled the file despite a failed recorder")
	}
}
