package reports

import (
	"context"
	"errors"
)

// ErrNotFound: no cached report for the scan id.
var ErrNotFound = errors.New("report not found")

// ErrNotCompleted: the scan exists but is not in the completed state,
// so there is nothing to analyze yet.
var ErrNotCompleted = errors.New("scan is not completed")

// ErrCorrupted: the stored scan results are not parseable JSON.
var ErrCorrupted = errors.New("corrupted scan data")

// ErrQuotaExceeded indicates the inference provider returned a
// quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// Repository port for the report cache, keyed by scan id. Put has
// overwrite semantics.
type Repository interface {
	Get(ctx context.Context, scanID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
}

// Generator port for the inference service. Returns the raw JSON text
// of one section.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
