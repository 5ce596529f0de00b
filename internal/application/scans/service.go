package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"domainintel/internal/application"
	domain "domainintel/internal/domain/scans"
)

// Service implements the scan lifecycle use-cases. Safe for concurrent
// use; independent submissions never share state beyond the repository.
type Service struct {
	Repo     domain.Repository
	Prober   domain.Prober
	Archive  domain.ArchiveStore
	Clock    application.Clock
	PoolSize int
}

// Submit runs one scan end to end: persist a running record, route the
// target to a worker slot, probe, score, persist the terminal state,
// and archive best-effort.
//
// The returned scan id is valid even on failure so callers can look the
// record up later. Exactly one terminal write happens per scan; the
// worker call is never retried here.
func (s *Service) Submit(ctx context.Context, target string) (string, []byte, error) {
	id := uuid.NewString()
	now := s.Clock.Now()

	if err := s.Repo.Insert(ctx, &domain.Scan{
		ID:        domain.ScanID(id),
		Target:    target,
		Status:    domain.StatusRunning,
		CreatedAt: now,
	}); err != nil {
		return id, nil, fmt.Errorf("inserting scan record: %w", err)
	}

	slot := domain.Shard(target, s.PoolSize)
	body, err := s.Prober.Probe(ctx, target, slot)
	if err != nil {
		s.fail(id, workerErrorText(err))
		return id, nil, err
	}

	var payload domain.ProbePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		terr := &domain.TransportError{Err: fmt.Errorf("decoding worker response: %w", err)}
		s.fail(id, terr.Error())
		return id, nil, terr
	}

	score := domain.ComputeSecurityScore(&payload, s.Clock.Now())
	payload.SecurityScore = &score

	results, err := json.Marshal(&payload)
	if err != nil {
		terr := &domain.TransportError{Err: fmt.Errorf("encoding results: %w", err)}
		s.fail(id, terr.Error())
		return id, nil, terr
	}

	completedAt := s.Clock.Now()
	if err := s.Repo.Complete(ctx, domain.ScanID(id), string(results), completedAt, payload.DurationMS); err != nil {
		return id, nil, fmt.Errorf("persisting scan results: %w", err)
	}

	// Archival is fire-and-forget; a failed write never affects the
	// scan's terminal status or the response.
	if s.Archive != nil {
		if err := s.Archive.Archive(ctx, domain.ScanID(id), results); err != nil {
			logrus.WithField("scan_id", id).Warnf("archive write failed: %v", err)
		}
	}

	return id, results, nil
}

// Get looks up one scan by id.
func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	return s.Repo.Get(ctx, id)
}

// History lists scans newest-first with keyset pagination.
func (s *Service) History(ctx context.Context, q domain.HistoryQuery) ([]*domain.Scan, error) {
	return s.Repo.History(ctx, q)
}

// fail records the terminal failed state. The terminal write uses a
// background context so a caller disconnect cannot leave the record
// stuck in running.
func (s *Service) fail(id string, msg string) {
	if err := s.Repo.Fail(context.Background(), domain.ScanID(id), msg, s.Clock.Now()); err != nil {
		logrus.WithField("scan_id", id).Errorf("marking scan failed: %v", err)
	}
}

// workerErrorText picks the message persisted on the failed record: the
// worker's own error body when it answered, the transport error
// otherwise.
func workerErrorText(err error) string {
	var we *domain.WorkerError
	if errors.As(err, &we) {
		return we.Body
	}
	return err.Error()
}
