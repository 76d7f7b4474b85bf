package notify

import "time"

// Summary describes the outcome of one operation.
type Summary struct {
	Action   string
	File     string
	Tables   int
	Rows     int64
	Warnings int
}

// Provider defines the notification contract for utility runs.
type Provider interface {
	// OperationCompleted is sent when an action finishes successfully.
	OperationCompleted(runID string, summary Summary, duration time.Duration) error

	// OperationFailed is sent when an action fails.
	OperationFailed(runID, action string, err error, duration time.Duration) error
}

// Ensure Notifier implements Provider
var _ Provider = (*Notifier)(nil)
