package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker is implemented by dependencies that can report
// readiness.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (c *DatabaseHealthChecker) Name() string { return "database" }

func (c *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.DB.PingContext(ctx)
}

// LivenessHandler always reports ok while the process is up.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ReadinessHandler runs every checker and reports 503 when any fails.
func ReadinessHandler(checkers ...HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := map[string]string{}
		healthy := true
		for _, c := range checkers {
			if err := c.Check(r.Context()); err != nil {
				result[c.Name()] = err.Error()
				healthy = false
			} else {
				result[c.Name()] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		status := "ok"
		if !healthy {
			status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"checks": result,
		})
	}
}
