// Package exitcodes defines the process exit statuses for db-utility and the
// error taxonomy used when reporting failures.
//
// Every handled failure exits with Failure so cron jobs and deploy scripts
// only need to test for a non-zero status. The Kind of an error is used for
// log output and notifications.
package exitcodes

import (
	"context"
	"errors"
	"os"
	"strings"
)

const (
	// Success - operation completed, or the user declined a confirmation
	Success = 0

	// Failure - any handled failure
	Failure = 1
)

// Kind classifies a failure.
type Kind int

const (
	// KindNone is the kind of a nil error.
	KindNone Kind = iota
	// KindInput covers missing/invalid arguments and nonexistent paths.
	KindInput
	// KindConnection covers database connection and authentication failures.
	KindConnection
	// KindFormat covers malformed backup artifacts and archives.
	KindFormat
	// KindIO covers filesystem failures.
	KindIO
	// KindCancelled covers SIGINT/SIGTERM.
	KindCancelled
	// KindOperation covers every other database failure.
	KindOperation
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
	Kind Kind
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code, Kind: Classify(err)}
}

// InputError marks err as a user-input failure.
func InputError(err error) *ExitError {
	return &ExitError{Err: err, Code: Failure, Kind: KindInput}
}

// FromError returns the exit status for err.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return Failure
}

// Classify determines the Kind of err from its type and message.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Kind != KindNone {
		return exitErr.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return KindIO
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, []string{
		"not found",
		"no such file",
		"is required",
		"unknown action",
		"unsupported format",
	}) {
		return KindInput
	}

	if containsAny(errStr, []string{
		"invalid format",
		"json:",
		"zip:",
		"archive",
	}) {
		return KindFormat
	}

	if containsAny(errStr, []string{
		"connection",
		"connect",
		"dial",
		"refused",
		"no such host",
		"ping",
		"access denied",
		"login failed",
		"authentication",
	}) {
		return KindConnection
	}

	if containsAny(errStr, []string{
		"permission denied",
		"is a directory",
		"not a directory",
		"writing",
		"reading file",
	}) {
		return KindIO
	}

	if containsAny(errStr, []string{"cancel", "interrupt"}) {
		return KindCancelled
	}

	return KindOperation
}

// String returns a human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "success"
	case KindInput:
		return "input error"
	case KindConnection:
		return "connection error"
	case KindFormat:
		return "format error"
	case KindIO:
		return "I/O error"
	case KindCancelled:
		return "cancelled"
	case KindOperation:
		return "operation error"
	default:
		return "unknown error"
	}
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
