package adb

import (
	"context"
	"errors"
	"fmt"
)

// NotFoundError indicates the adb binary could not be located on disk.
// Operations that only talk to an already-running server never produce it;
// it surfaces when a server restart is needed and no binary exists to
// launch one.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return "adb binary not found: set adb.path in ~/.snapo/config.yaml or install platform-tools"
	}
	return fmt.Sprintf("adb binary not found at %s", e.Path)
}

// UnavailableError indicates the adb server could not be reached or the
// connection died mid-operation. It is the only retryable failure class.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "adb server unavailable"
	}
	return fmt.Sprintf("adb server unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ProtocolError indicates the server answered, but with an explicit FAIL
// or with bytes that do not fit the wire protocol. Retrying would send the
// same request and fail the same way, so these are never retried.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("adb protocol failure: %s", e.Reason)
}

// ParseError indicates a successful exchange whose payload could not be
// decoded into the expected shape (a PID line, a display geometry probe).
type ParseError struct {
	What  string
	Input string
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("failed to parse %s", e.What)
	}
	return fmt.Sprintf("failed to parse %s from %q", e.What, e.Input)
}

// ExitError indicates a remote or local helper process finished with a
// non-zero exit code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process exited with code %d", e.Code)
	}
	return fmt.Sprintf("process exited with code %d: %s", e.Code, e.Stderr)
}

// retryable reports whether an operation that failed with err is worth
// re-dialing for. Anything the server said on a healthy connection is
// final; only transport-level trouble qualifies.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		notFound *NotFoundError
		protoErr *ProtocolError
		parseErr *ParseError
		exitErr  *ExitError
	)
	if errors.As(err, &notFound) || errors.As(err, &protoErr) ||
		errors.As(err, &parseErr) || errors.As(err, &exitErr) {
		return false
	}
	return true
}

// asUnavailable normalizes a retryable failure so callers see a uniform
// "server unavailable" error regardless of which syscall produced it.
func asUnavailable(err error) *UnavailableError {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable
	}
	return &UnavailableError{Err: err}
}
