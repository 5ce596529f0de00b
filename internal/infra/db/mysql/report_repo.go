package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"domainintel/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Get(ctx context.Context, scanID string) (*reports.Record, error) {
	const q = `
SELECT scan_id, report, model, generated_at, generation_ms
FROM ai_reports
WHERE scan_id = ? LIMIT 1;
`
	var rec reports.Record
	err := r.db.QueryRowContext(ctx, q, scanID).Scan(
		&rec.ScanID, &rec.Report, &rec.Model, &rec.GeneratedAt, &rec.GenerationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put overwrites any existing report for the scan.
func (r *ReportRepository) Put(ctx context.Context, rec *reports.Record) error {
	const q = `
INSERT INTO ai_reports (scan_id, report, model, generated_at, generation_ms)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  report = VALUES(report),
  model = VALUES(model),
  generated_at = VALUES(generated_at),
  generation_ms = VALUES(generation_ms);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ScanID, rec.Report, rec.Model, rec.GeneratedAt, rec.GenerationMS,
	)
	return err
}

// escapeLikePattern neutralizes LIKE wildcards in user-supplied search
// terms so they match literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
