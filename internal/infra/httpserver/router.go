package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	appreports "domainintel/internal/application/reports"
	appscans "domainintel/internal/application/scans"
	reportsdomain "domainintel/internal/domain/reports"
	scansdomain "domainintel/internal/domain/scans"
	"domainintel/internal/middleware"
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 200
)

// Server exposes the scan and report use-cases over HTTP.
type Server struct {
	Scans   *appscans.Service
	Reports *appreports.Service
}

type httpError struct {
	status int
	body   map[string]any
}

func (e *httpError) Error() string {
	if msg, ok := e.body["error"].(string); ok {
		return msg
	}
	return http.StatusText(e.status)
}

func apiError(status int, msg string) *httpError {
	return &httpError{status: status, body: map[string]any{"error": msg}}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap translates handler errors into JSON error responses.
func wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			writeJSON(w, he.status, he.body)
			return
		}
		logrus.WithField("path", r.URL.Path).Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("encoding response: %v", err)
	}
}

// NewRouter assembles the API surface with its middleware stack.
func NewRouter(srv *Server, allowedOrigin string, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(allowedOrigin))

	// Only submissions are rate limited; reads are cheap.
	if limiter != nil {
		r.With(limiter.Handler).Post("/scan", wrap(srv.handleScan))
	} else {
		r.Post("/scan", wrap(srv.handleScan))
	}
	r.Get("/scan/{id}", wrap(srv.handleGetScan))
	r.Get("/analyze/{id}", wrap(srv.handleAnalyze))
	r.Get("/history", wrap(srv.handleHistory))

	return r
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) error {
	var body struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return apiError(http.StatusBadRequest, "Missing 'target' field")
	}
	target := strings.TrimSpace(body.Target)
	if target == "" {
		return apiError(http.StatusBadRequest, "Missing 'target' field")
	}

	hostname := middleware.ExtractHostname(target)
	if hostname == "" {
		return apiError(http.StatusBadRequest, "Invalid target. Please enter a valid domain (e.g., example.com)")
	}
	if middleware.IsBlockedHostname(hostname) {
		return apiError(http.StatusBadRequest, "Scanning internal or reserved hostnames is not allowed")
	}

	id, results, err := s.Scans.Submit(r.Context(), target)
	if err != nil {
		middleware.CountScan("failed")
		var we *scansdomain.WorkerError
		if errors.As(err, &we) {
			return &httpError{status: http.StatusBadGateway, body: map[string]any{
				"error":   we.Body,
				"scan_id": id,
			}}
		}
		var te *scansdomain.TransportError
		if errors.As(err, &te) {
			return &httpError{status: http.StatusServiceUnavailable, body: map[string]any{
				"error":   "Scanner unavailable: " + te.Err.Error(),
				"scan_id": id,
			}}
		}
		return err
	}

	middleware.CountScan("completed")

	// The worker payload is flattened into the response alongside the id.
	out := map[string]any{}
	if err := json.Unmarshal(results, &out); err != nil {
		return err
	}
	out["scan_id"] = id
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if !middleware.IsValidUUID(id) {
		return apiError(http.StatusBadRequest, "Invalid scan ID")
	}

	scan, err := s.Scans.Get(r.Context(), scansdomain.ScanID(id))
	if errors.Is(err, scansdomain.ErrNotFound) {
		return apiError(http.StatusNotFound, "Scan not found")
	}
	if err != nil {
		return err
	}

	resp := map[string]any{
		"id":         scan.ID,
		"target":     scan.Target,
		"status":     scan.Status,
		"created_at": scan.CreatedAt,
	}
	if scan.CompletedAt != nil {
		resp["completed_at"] = scan.CompletedAt
	}
	if scan.DurationMS != nil {
		resp["duration_ms"] = scan.DurationMS
	}
	if scan.Error != "" {
		resp["error"] = scan.Error
	}
	if scan.Results != "" {
		var parsed any
		if err := json.Unmarshal([]byte(scan.Results), &parsed); err == nil {
			resp["results"] = parsed
		} else {
			resp["results"] = scan.Results
		}
	}

	// Attach the cached report when one exists; absence is not an error.
	if rec, err := s.Reports.Cached(r.Context(), id); err == nil && rec != nil {
		var report reportsdomain.AiReport
		if err := json.Unmarshal([]byte(rec.Report), &report); err == nil {
			resp["ai_report"] = map[string]any{
				"report":        report,
				"model":         rec.Model,
				"generated_at":  rec.GeneratedAt,
				"generation_ms": rec.GenerationMS,
				"cached":        true,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if !middleware.IsValidUUID(id) {
		return apiError(http.StatusBadRequest, "Invalid scan ID")
	}

	resp, err := s.Reports.Analyze(r.Context(), id)
	switch {
	case errors.Is(err, scansdomain.ErrNotFound):
		return apiError(http.StatusNotFound, "Scan not found")
	case errors.Is(err, reportsdomain.ErrNotCompleted):
		return apiError(http.StatusBadRequest, "Scan is not completed")
	case errors.Is(err, reportsdomain.ErrCorrupted):
		return apiError(http.StatusInternalServerError, "Corrupted scan data")
	case err != nil:
		return err
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()

	limit := historyDefaultLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	query := scansdomain.HistoryQuery{
		Search: q.Get("q"),
		Status: q.Get("status"),
		Limit:  limit + 1,
	}
	if raw := q.Get("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apiError(http.StatusBadRequest, "Invalid cursor")
		}
		query.Cursor = &t
	}

	scans, err := s.Scans.History(r.Context(), query)
	if err != nil {
		return err
	}

	var nextCursor *string
	if len(scans) > limit {
		scans = scans[:limit]
		// Nano precision: a second-truncated cursor would skip rows
		// sharing the boundary row's second on the next page.
		c := scans[len(scans)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
		nextCursor = &c
	}
	if scans == nil {
		scans = []*scansdomain.Scan{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scans":       scans,
		"next_cursor": nextCursor,
	})
	return nil
}
