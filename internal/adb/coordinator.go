package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// serverStartGrace is how long the coordinator waits after a successful
// `adb start-server` before declaring the restart resolved. The launcher
// process exits slightly before the daemon's listening socket is ready.
const serverStartGrace = 500 * time.Millisecond

// restartHandle is the shared record of one in-flight restart attempt.
// done is closed once, after err is set.
type restartHandle struct {
	done chan struct{}
	err  error
}

func (h *restartHandle) wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Coordinator serializes adb server restarts. However many operations
// notice a dead server at once, exactly one `adb start-server` runs;
// the rest wait on the same handle and share its outcome.
type Coordinator struct {
	mu       sync.Mutex
	inflight *restartHandle

	// launch is swapped out by tests; the default execs the binary.
	launch func(ctx context.Context, path string) error
	grace  time.Duration
}

// NewCoordinator returns a coordinator that launches the real adb binary.
func NewCoordinator() *Coordinator {
	c := &Coordinator{grace: serverStartGrace}
	c.launch = c.execStartServer
	return c
}

// StartServer restarts the adb server, or joins a restart already in
// flight. The handle is published before the launch begins and cleared
// only after it resolves, so every concurrent caller observes the same
// attempt; once resolved, a later call starts fresh.
func (c *Coordinator) StartServer(ctx context.Context, path string) error {
	c.mu.Lock()
	if h := c.inflight; h != nil {
		c.mu.Unlock()
		return h.wait(ctx)
	}
	h := &restartHandle{done: make(chan struct{})}
	c.inflight = h
	c.mu.Unlock()

	h.err = c.launch(ctx, path)
	close(h.done)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()

	return h.err
}

// WaitForOngoingRestart blocks until any in-flight restart resolves.
// Idle is a no-op. The attempt's outcome is deliberately not reported;
// the caller's own retry will discover whether the server is back.
func (c *Coordinator) WaitForOngoingRestart(ctx context.Context) error {
	c.mu.Lock()
	h := c.inflight
	c.mu.Unlock()
	if h == nil {
		return nil
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execStartServer verifies the binary exists, runs `adb start-server`,
// and then sleeps out the grace period so the daemon is accepting
// connections by the time waiters retry.
func (c *Coordinator) execStartServer(ctx context.Context, path string) error {
	if path == "" {
		return &NotFoundError{}
	}
	if _, err := os.Stat(path); err != nil {
		return &NotFoundError{Path: path}
	}

	log.Debug("Starting adb server", "path", path)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "start-server")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return fmt.Errorf("failed to launch adb: %w", err)
	}

	select {
	case <-time.After(c.grace):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
