package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "domainintel/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Insert persists a freshly submitted scan in the running state.
func (r *ScanRepository) Insert(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans (id, target, status, created_at)
VALUES (?, ?, ?, ?);
`
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Target, s.Status, created)
	return err
}

// Complete writes the terminal completed state. The status guard keeps
// the transition one-way: a record already terminal is never touched.
func (r *ScanRepository) Complete(ctx context.Context, id domain.ScanID, results string, completedAt time.Time, durationMS int64) error {
	const q = `
UPDATE scans
SET status = ?, results = ?, completed_at = ?, duration_ms = ?
WHERE id = ? AND status = ?;
`
	_, err := r.db.ExecContext(ctx, q,
		domain.StatusCompleted, results, completedAt, durationMS,
		id, domain.StatusRunning,
	)
	return err
}

// Fail writes the terminal failed state, same one-way guard as Complete.
func (r *ScanRepository) Fail(ctx context.Context, id domain.ScanID, errMsg string, completedAt time.Time) error {
	const q = `
UPDATE scans
SET status = ?, error = ?, completed_at = ?
WHERE id = ? AND status = ?;
`
	_, err := r.db.ExecContext(ctx, q,
		domain.StatusFailed, errMsg, completedAt,
		id, domain.StatusRunning,
	)
	return err
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, target, status, results, error, created_at, completed_at, duration_ms
FROM scans
WHERE id = ? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)
	s, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// History lists scans newest-first with keyset pagination on
// created_at. Callers pass limit+1 when they want a has-more probe.
func (r *ScanRepository) History(ctx context.Context, q domain.HistoryQuery) ([]*domain.Scan, error) {
	query := `
SELECT id, target, status, created_at, completed_at, duration_ms
FROM scans
WHERE 1=1`
	var args []any

	if q.Search != "" {
		query += " AND target LIKE ?"
		args = append(args, "%"+escapeLikePattern(q.Search)+"%")
	}
	if q.Status != "" {
		query += " AND status = ?"
		args = append(args, q.Status)
	}
	if q.Cursor != nil {
		query += " AND created_at < ?"
		args = append(args, *q.Cursor)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		var s domain.Scan
		var completed sql.NullTime
		var duration sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Target, &s.Status, &s.CreatedAt, &completed, &duration); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			s.CompletedAt = &t
		}
		if duration.Valid {
			d := duration.Int64
			s.DurationMS = &d
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	var s domain.Scan
	var results, errMsg sql.NullString
	var completed sql.NullTime
	var duration sql.NullInt64
	if err := row.Scan(&s.ID, &s.Target, &s.Status, &results, &errMsg, &s.CreatedAt, &completed, &duration); err != nil {
		return nil, err
	}
	s.Results = results.String
	s.Error = errMsg.String
	if completed.Valid {
		t := completed.Time
		s.CompletedAt = &t
	}
	if duration.Valid {
		d := duration.Int64
		s.DurationMS = &d
	}
	return &s, nil
}
