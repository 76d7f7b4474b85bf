package exitcodes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, Success},
		{"plain error", errors.New("boom"), Failure},
		{"wrapped exit error", fmt.Errorf("restore: %w", NewExitError(errors.New("x"), Failure)), Failure},
		{"custom code", NewExitError(errors.New("x"), 3), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.expected {
				t.Errorf("FromError(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"input error", InputError(errors.New("whatever")), KindInput},
		{"path error", &os.PathError{Op: "open", Path: "/x", Err: errors.New("bad")}, KindIO},
		{"context canceled", fmt.Errorf("reading rows: %w", context.Canceled), KindCancelled},
		{"file not found", errors.New("backup file not found: a.sql"), KindInput},
		{"missing file flag", errors.New("--file is required"), KindInput},
		{"invalid format", errors.New("invalid format: missing tables key"), KindFormat},
		{"zip", errors.New("zip: not a valid zip file"), KindFormat},
		{"connection refused", errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), KindConnection},
		{"access denied", errors.New("Error 1045: Access denied for user"), KindConnection},
		{"permission denied", errors.New("writing backup: permission denied"), KindIO},
		{"other", errors.New("Error 1146: Table 'x' doesn't exist"), KindOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("inner error")
	exitErr := NewExitError(inner, Failure)

	if exitErr.Code != Failure {
		t.Errorf("expected code %d, got %d", Failure, exitErr.Code)
	}
	if exitErr.Error() != "inner error" {
		t.Errorf("expected error message 'inner error', got '%s'", exitErr.Error())
	}
	if errors.Unwrap(exitErr) != inner {
		t.Error("Unwrap should return inner error")
	}
}
