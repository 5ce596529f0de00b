package postgres

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

func (r *ScanRepository) Insert(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans (id, target, status, created_at)
VALUES ($1, $2, $3, $4);
`
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Target, s.Status, created)
	return err
}

func (r *ScanRepository) Complete(ctx context.Context, id domain.ScanID, results string, completedAt time.Time, durationMS int64) error {
	const q = `
UPDATE scans
SET status = $1, results = $2, completed_at = $3, duration_ms = $4
WHERE id = $5 AND status = $6;
`
	_, err := r.db.ExecContext(ctx, q,
		domain.StatusCompleted, results, completedAt, durationMS,
		id, domain.StatusRunning,
	)
	return err
}

func (r *ScanRepository) Fail(ctx context.Context, id domain.ScanID, errMsg string, completedAt time.Time) error {
	const q = `
UPDATE scans
SET status = $1, error = $2, completed_at = $3
WHERE id = $4 AND status = $5;
`
	_, err := r.db.ExecContext(ctx, q,
		domain.StatusFailed, errMsg, completedAt,
		id, domain.StatusRunning,
	)
	return err
}

func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, target, status, results, error, created_at, completed_at, duration_ms
FROM scans
WHERE id = $1 LIMIT 1;
`
	var s domain.Scan
	var results, errMsg sql.NullString
	var completed sql.NullTime
	var duration sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Target, &s.Status, &results, &errMsg, &s.CreatedAt, &completed, &duration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
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

func (r *ScanRepository) History(ctx context.Context, q domain.HistoryQuery) ([]*domain.Scan, error) {
	query := `
SELECT id, target, status, created_at, completed_at, duration_ms
FROM scans
WHERE 1=1`
	var args []any
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if q.Search != "" {
		query += " AND target LIKE " + next()
		args = append(args, "%"+escapeLikePattern(q.Search)+"%")
	}
	if q.Status != "" {
		query += " AND status = " + next()
		args = append(args, q.Status)
	}
	if q.Cursor != nil {
		query += " AND created_at < " + next()
		args = append(args, *q.Cursor)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT " + next()
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
