package scans

import (
	"time"
)

// ID type for Scan
type ScanID string

// Status enum. A scan is born running and moves exactly once to a
// terminal state; terminal records are never written again.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Aggregate Root: Scan
//
// Exactly one of Results/Error is populated once the scan is terminal.
// Results holds the probe payload as JSON text, security score included.
type Scan struct {
	ID          ScanID     `json:"id"`
	Target      string     `json:"target"`
	Status      Status     `json:"status"`
	Results     string     `json:"results,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  *int64     `json:"duration_ms,omitempty"`
}
