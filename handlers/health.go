package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/you/transit-atlas/models"
)

// Pinger checks a database connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dataset readiness and database connectivity
type HealthHandler struct {
	current  SnapshotSource
	db       Pinger // nil when persistence is disabled
	interval time.Duration
	now      func() time.Time
}

// NewHealthHandler creates a new handler. db may be nil; interval is the
// periodic refresh interval used to judge freshness.
func NewHealthHandler(current SnapshotSource, db Pinger, interval time.Duration) *HealthHandler {
	return &HealthHandler{current: current, db: db, interval: interval, now: time.Now}
}

// GetHealth handles GET /health
// 200 when a snapshot is published and the database (if any) answers,
// 503 otherwise
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	health := models.DatasetHealth{
		Status:    models.StatusOK,
		Database:  "disabled",
		Freshness: models.FreshnessUnavailable,
		Timestamp: now,
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.StatusError
			health.Database = "disconnected"
			health.Error = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			health.Database = "connected"
		}
	}

	snap := h.current.Snapshot()
	if snap == nil {
		if health.Status == models.StatusOK {
			health.Status = models.StatusLoading
		}
		status = http.StatusServiceUnavailable
	} else {
		loadedAt := snap.LoadedAt
		age := now.Sub(loadedAt)
		health.LoadedAt = &loadedAt
		health.AgeSeconds = int(age.Seconds())
		health.CityCount = len(snap.Cities)
		health.FailedTables = snap.FailedTables()
		health.Freshness = models.CalculateFreshnessStatus(age, h.interval)
	}

	writeJSON(w, status, "no-cache", health)
}

// GetLiveness handles GET /healthz
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
