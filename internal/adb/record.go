package adb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// defaultRecordBitRate matches screenrecord's sweet spot for
	// readable motion without enormous files.
	defaultRecordBitRate = 8_000_000

	// defaultRecordTimeLimit is screenrecord's own hard maximum.
	defaultRecordTimeLimit = 180 * time.Second
)

// RecordingOptions configures StartRecording. Zero values select the
// defaults above; an empty Size means probe the display and record at
// native resolution.
type RecordingOptions struct {
	BitRate   int
	TimeLimit time.Duration
	Size      string
}

// RecordingSession is a screen recording in progress on a device. The
// session owns a held-open shell connection to the remote screenrecord
// process; the connection reaching EOF is how the session learns the
// recorder exited.
type RecordingSession struct {
	Serial     string
	RemotePath string
	PID        int
	StartedAt  time.Time

	client *Client
	conn   *Conn
}

// StartRecording launches screenrecord on the device, writing to a
// uniquely named file on the device's sdcard, and returns once the
// remote process has reported its PID.
//
// The command is spawned as `echo $$; exec screenrecord …` so the PID
// the shell echoes is the recorder's own, making a later `kill -INT`
// land on the right process.
func (c *Client) StartRecording(ctx context.Context, serial string, opts RecordingOptions) (*RecordingSession, error) {
	if opts.BitRate <= 0 {
		opts.BitRate = defaultRecordBitRate
	}
	if opts.TimeLimit <= 0 || opts.TimeLimit > defaultRecordTimeLimit {
		opts.TimeLimit = defaultRecordTimeLimit
	}
	size := opts.Size
	if size == "" {
		w, h, err := c.DisplaySize(ctx, serial)
		if err != nil {
			return nil, err
		}
		// screenrecord rejects odd dimensions
		size = fmt.Sprintf("%dx%d", w&^1, h&^1)
	}

	remotePath := fmt.Sprintf("/sdcard/.snapo-%s.mp4", uuid.New().String())
	command := fmt.Sprintf("echo $$; exec screenrecord --bit-rate %d --time-limit %d --size %s %s",
		opts.BitRate, int(opts.TimeLimit.Seconds()), size, remotePath)

	var session *RecordingSession
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.openTransport(ctx, serial)
		if err != nil {
			return err
		}
		if err := conn.Send(ctx, "shell:"+command); err != nil {
			_ = conn.Close()
			return err
		}
		line, err := conn.ReadLine(ctx)
		if err != nil {
			_ = conn.Close()
			return err
		}
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			_ = conn.Close()
			return &ParseError{What: "recorder pid", Input: line}
		}
		session = &RecordingSession{
			Serial:     serial,
			RemotePath: remotePath,
			PID:        pid,
			StartedAt:  time.Now(),
			client:     c,
			conn:       conn,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Recording started", "serial", serial, "pid", session.PID, "remote", remotePath)
	return session, nil
}

// Stop ends the recording and retrieves the file to localPath. It
// interrupts the recorder, waits for it to exit and finalize the file,
// pulls the result, and removes the remote copy. The held connection is
// closed on every path out of here.
func (s *RecordingSession) Stop(ctx context.Context, localPath string) error {
	defer s.conn.Close()

	// screenrecord treats SIGINT as "finish up": it stops capturing,
	// writes the moov atom, and exits cleanly.
	_, _ = s.client.Shell(ctx, s.Serial, fmt.Sprintf("kill -INT %d", s.PID))

	tail, err := s.conn.ReadAll(ctx)
	if err != nil {
		return err
	}
	status, detail := parseRecorderTail(string(tail))
	if err := classifyRecorderExit(status, detail); err != nil {
		_, _ = s.client.Shell(ctx, s.Serial, "rm -f "+s.RemotePath)
		return err
	}

	if err := s.client.Pull(ctx, s.Serial, s.RemotePath, localPath); err != nil {
		return err
	}
	_, _ = s.client.Shell(ctx, s.Serial, "rm -f "+s.RemotePath)
	return nil
}

// Elapsed reports how long the recording has been running.
func (s *RecordingSession) Elapsed() time.Duration {
	return time.Since(s.StartedAt)
}

// exitStatus is the disposition of the remote recorder process.
type exitStatus struct {
	Code   int
	Signal string
}

var sigintTail = regexp.MustCompile(`(?i)(sigint|signal 2\b|interrupt)`)

// parseRecorderTail infers the recorder's exit disposition from
// whatever it printed after the PID line. The shell service carries no
// exit code, so silence is the success signal: a recorder that finished
// or was interrupted prints nothing, while failures complain on the way
// out.
func parseRecorderTail(tail string) (exitStatus, string) {
	trimmed := strings.TrimSpace(tail)
	if trimmed == "" {
		return exitStatus{Code: 0}, ""
	}
	if sigintTail.MatchString(trimmed) {
		return exitStatus{Code: 128 + 2, Signal: "INT"}, trimmed
	}
	return exitStatus{Code: 1}, trimmed
}

// classifyRecorderExit decides whether a recorder's ending counts as a
// successful stop. Exit code zero and death by the SIGINT we sent are
// both success; anything else surfaces as an ExitError carrying what
// the recorder printed.
func classifyRecorderExit(status exitStatus, detail string) error {
	if status.Code == 0 {
		return nil
	}
	if status.Signal == "INT" || status.Code == 128+2 {
		return nil
	}
	return &ExitError{Code: status.Code, Stderr: detail}
}
