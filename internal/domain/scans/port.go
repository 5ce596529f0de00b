package scans

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when no scan matches the id.
var ErrNotFound = errors.New("scan not found")

// HistoryQuery filters the scan listing. Cursor is exclusive: only rows
// created strictly before it are returned (keyset pagination, newest
// first).
type HistoryQuery struct {
	Search string
	Status string
	Cursor *time.Time
	Limit  int
}

// Repository port (interface for persistence)
//
// Complete and Fail only touch rows still in the running state, which
// keeps status transitions one-way even if called twice.
type Repository interface {
	Insert(ctx context.Context, s *Scan) error
	Complete(ctx context.Context, id ScanID, results string, completedAt time.Time, durationMS int64) error
	Fail(ctx context.Context, id ScanID, errMsg string, completedAt time.Time) error
	Get(ctx context.Context, id ScanID) (*Scan, error)
	History(ctx context.Context, q HistoryQuery) ([]*Scan, error)
}

// Prober port (interface for the pooled external worker). slot selects
// the worker instance and comes from Shard.
type Prober interface {
	Probe(ctx context.Context, target string, slot int) ([]byte, error)
}

// ArchiveStore port (interface for best-effort blob archival)
type ArchiveStore interface {
	Archive(ctx context.Context, id ScanID, payload []byte) error
}

// WorkerError means the worker answered with a non-success response.
// Body carries the worker's own error text.
type WorkerError struct {
	StatusCode int
	Body       string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker returned %d: %s", e.StatusCode, e.Body)
}

// TransportError means the worker could not be reached or its reply
// could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scanner unavailable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
