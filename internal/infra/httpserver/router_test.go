package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainintel/internal/application"
	appreports "domainintel/internal/application/reports"
	appscans "domainintel/internal/application/scans"
	reportsdomain "domainintel/internal/domain/reports"
	scansdomain "domainintel/internal/domain/scans"
)

const knownID = "8b7f3c1a-2e4d-4f7b-9a3c-5d6e7f8a9b0c"

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	scans   map[scansdomain.ScanID]*scansdomain.Scan
	history []*scansdomain.Scan
}

func (r *memRepo) Insert(ctx context.Context, s *scansdomain.Scan) error {
	r.scans[s.ID] = s
	return nil
}

func (r *memRepo) Complete(ctx context.Context, id scansdomain.ScanID, results string, completedAt time.Time, durationMS int64) error {
	s := r.scans[id]
	s.Status = scansdomain.StatusCompleted
	s.Results = results
	s.CompletedAt = &completedAt
	s.DurationMS = &durationMS
	return nil
}

func (r *memRepo) Fail(ctx context.Context, id scansdomain.ScanID, errMsg string, completedAt time.Time) error {
	s := r.scans[id]
	s.Status = scansdomain.StatusFailed
	s.Error = errMsg
	s.CompletedAt = &completedAt
	return nil
}

func (r *memRepo) Get(ctx context.Context, id scansdomain.ScanID) (*scansdomain.Scan, error) {
	s, ok := r.scans[id]
	if !ok {
		return nil, scansdomain.ErrNotFound
	}
	return s, nil
}

func (r *memRepo) History(ctx context.Context, q scansdomain.HistoryQuery) ([]*scansdomain.Scan, error) {
	var out []*scansdomain.Scan
	for _, s := range r.history {
		if q.Cursor != nil && !s.CreatedAt.Before(*q.Cursor) {
			continue
		}
		if q.Status != "" && string(s.Status) != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(s.Target, q.Search) {
			continue
		}
		out = append(out, s)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

type memReportCache struct {
	records map[string]*reportsdomain.Record
}

func (c *memReportCache) Get(ctx context.Context, scanID string) (*reportsdomain.Record, error) {
	rec, ok := c.records[scanID]
	if !ok {
		return nil, reportsdomain.ErrNotFound
	}
	return rec, nil
}

func (c *memReportCache) Put(ctx context.Context, rec *reportsdomain.Record) error {
	c.records[rec.ScanID] = rec
	return nil
}

type stubProber struct {
	body []byte
	err  error
}

func (p *stubProber) Probe(ctx context.Context, target string, slot int) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.body, nil
}

type stubGen struct{}

func (stubGen) Generate(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not wired in this test")
}

type testClock struct{}

func (testClock) Now() time.Time { return baseTime }

func newTestHandler(repo *memRepo, cache *memReportCache, prober *stubProber) http.Handler {
	var clock application.Clock = testClock{}
	scanSvc := &appscans.Service{
		Repo:     repo,
		Prober:   prober,
		Clock:    clock,
		PoolSize: 5,
	}
	reportSvc := &appreports.Service{
		Scans: repo,
		Cache: cache,
		Gen:   stubGen{},
		Clock: clock,
		Model: "gpt-4o-mini",
	}
	return NewRouter(&Server{Scans: scanSvc, Reports: reportSvc}, "https://app.example.com", nil)
}

func emptyState() (*memRepo, *memReportCache) {
	return &memRepo{scans: map[scansdomain.ScanID]*scansdomain.Scan{}},
		&memReportCache{records: map[string]*reportsdomain.Record{}}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestScanMissingTarget(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing 'target' field", body["error"])
}

func TestScanInvalidTarget(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{"target":"not a valid host!!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "Invalid target")
}

func TestScanBlockedTarget(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{"target":"metadata.google.internal"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "not allowed")
}

func TestScanSuccess(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{
		body: []byte(`{"target":"example.com","duration_ms":4200}`),
	})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{"target":"example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["scan_id"])
	assert.Equal(t, "example.com", body["target"])
	assert.NotNil(t, body["security_score"], "score is merged into the flattened payload")
}

func TestScanWorkerError(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{
		err: &scansdomain.WorkerError{StatusCode: 500, Body: "scan engine crashed"},
	})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{"target":"example.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "scan engine crashed", body["error"])
	assert.NotEmpty(t, body["scan_id"])
}

func TestScanTransportError(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{
		err: &scansdomain.TransportError{Err: errors.New("connection refused")},
	})

	rec, body := doJSON(t, h, http.MethodPost, "/scan", `{"target":"example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["error"], "Scanner unavailable")
}

func TestGetScanInvalidID(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/scan/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid scan ID", body["error"])
}

func TestGetScanNotFound(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/scan/"+knownID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scan not found", body["error"])
}

func TestGetScanWithParsedResultsAndReport(t *testing.T) {
	repo, cache := emptyState()
	completed := baseTime.Add(-time.Hour)
	duration := int64(4200)
	repo.scans[scansdomain.ScanID(knownID)] = &scansdomain.Scan{
		ID:          scansdomain.ScanID(knownID),
		Target:      "example.com",
		Status:      scansdomain.StatusCompleted,
		Results:     `{"target":"example.com","duration_ms":4200}`,
		CreatedAt:   baseTime.Add(-2 * time.Hour),
		CompletedAt: &completed,
		DurationMS:  &duration,
	}
	cache.records[knownID] = &reportsdomain.Record{
		ScanID:       knownID,
		Report:       `{"opportunity_summary":null,"vendor_mapping":[],"security_gaps":[],"infrastructure_intelligence":null,"migration_assessment":[]}`,
		Model:        "gpt-4o-mini",
		GeneratedAt:  baseTime.Add(-30 * time.Minute),
		GenerationMS: 7321,
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/scan/"+knownID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["status"])

	results, ok := body["results"].(map[string]any)
	require.True(t, ok, "results must be returned parsed, not as a string")
	assert.Equal(t, "example.com", results["target"])

	report, ok := body["ai_report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", report["model"])
	assert.Equal(t, float64(7321), report["generation_ms"])
}

func TestGetScanUnparseableResultsKeptRaw(t *testing.T) {
	repo, cache := emptyState()
	repo.scans[scansdomain.ScanID(knownID)] = &scansdomain.Scan{
		ID:        scansdomain.ScanID(knownID),
		Target:    "example.com",
		Status:    scansdomain.StatusCompleted,
		Results:   "{{{not json",
		CreatedAt: baseTime,
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/scan/"+knownID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{{{not json", body["results"])
}

func TestAnalyzeInvalidID(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/analyze/xyz", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid scan ID", body["error"])
}

func TestAnalyzeNotCompleted(t *testing.T) {
	repo, cache := emptyState()
	repo.scans[scansdomain.ScanID(knownID)] = &scansdomain.Scan{
		ID:        scansdomain.ScanID(knownID),
		Target:    "example.com",
		Status:    scansdomain.StatusRunning,
		CreatedAt: baseTime,
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/analyze/"+knownID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Scan is not completed", body["error"])
}

func TestAnalyzeCorrupted(t *testing.T) {
	repo, cache := emptyState()
	repo.scans[scansdomain.ScanID(knownID)] = &scansdomain.Scan{
		ID:        scansdomain.ScanID(knownID),
		Target:    "example.com",
		Status:    scansdomain.StatusCompleted,
		Results:   "{{{",
		CreatedAt: baseTime,
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/analyze/"+knownID, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Corrupted scan data", body["error"])
}

func TestHistoryPagination(t *testing.T) {
	repo, cache := emptyState()
	for i := 0; i < 6; i++ {
		s := &scansdomain.Scan{
			ID:        scansdomain.ScanID(fmt.Sprintf("00000000-0000-0000-0000-%012d", i)),
			Target:    fmt.Sprintf("site%d.example.com", i),
			Status:    scansdomain.StatusCompleted,
			CreatedAt: baseTime.Add(-time.Duration(i) * time.Minute),
		}
		repo.history = append(repo.history, s)
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/history?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	scans, ok := body["scans"].([]any)
	require.True(t, ok)
	assert.Len(t, scans, 5)
	require.NotNil(t, body["next_cursor"], "a sixth row means another page exists")

	last := scans[4].(map[string]any)
	lastCreated, err := time.Parse(time.RFC3339Nano, last["created_at"].(string))
	require.NoError(t, err)
	cursor, err := time.Parse(time.RFC3339Nano, body["next_cursor"].(string))
	require.NoError(t, err)
	assert.True(t, cursor.Equal(lastCreated))
}

func TestHistoryCursorKeepsSubsecondPrecision(t *testing.T) {
	repo, cache := emptyState()
	// Two rows inside the same second; the cursor must carry the
	// fraction or page 2 would skip the earlier row.
	newer := baseTime.Add(700 * time.Millisecond)
	older := baseTime.Add(200 * time.Millisecond)
	repo.history = []*scansdomain.Scan{
		{ID: "00000000-0000-0000-0000-000000000001", Target: "a.example.com", Status: scansdomain.StatusCompleted, CreatedAt: newer},
		{ID: "00000000-0000-0000-0000-000000000002", Target: "b.example.com", Status: scansdomain.StatusCompleted, CreatedAt: older},
	}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/history?limit=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, body["next_cursor"])
	cursor, err := time.Parse(time.RFC3339Nano, body["next_cursor"].(string))
	require.NoError(t, err)
	assert.True(t, cursor.Equal(newer), "cursor must equal the boundary row's exact creation time")

	rec2, body2 := doJSON(t, h, http.MethodGet, "/history?limit=1&cursor="+body["next_cursor"].(string), "")
	assert.Equal(t, http.StatusOK, rec2.Code)
	page2 := body2["scans"].([]any)
	require.Len(t, page2, 1)
	assert.Equal(t, "b.example.com", page2[0].(map[string]any)["target"])
}

func TestHistoryLastPageHasNoCursor(t *testing.T) {
	repo, cache := emptyState()
	repo.history = []*scansdomain.Scan{{
		ID:        scansdomain.ScanID(knownID),
		Target:    "example.com",
		Status:    scansdomain.StatusCompleted,
		CreatedAt: baseTime,
	}}
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	scans := body["scans"].([]any)
	assert.Len(t, scans, 1)
	assert.Nil(t, body["next_cursor"])
}

func TestHistoryInvalidCursor(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, body := doJSON(t, h, http.MethodGet, "/history?cursor=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid cursor", body["error"])
}

func TestSecurityHeadersPresent(t *testing.T) {
	repo, cache := emptyState()
	h := newTestHandler(repo, cache, &stubProber{})

	rec, _ := doJSON(t, h, http.MethodGet, "/history", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}
