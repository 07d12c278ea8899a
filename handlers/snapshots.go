package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/you/transit-atlas/internal/dataset"
	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/models"
	"github.com/you/transit-atlas/repository"
)

// SnapshotHistory defines the interface for snapshot history lookups
type SnapshotHistory interface {
	ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error)
	GetSnapshotExport(ctx context.Context, id uuid.UUID) ([]models.ExportRow, error)
}

// Reloader performs a full dataset reload
type Reloader interface {
	Reload(ctx context.Context) (*dataset.ReloadResult, error)
}

// SnapshotHandler serves the load history and the manual reload
type SnapshotHandler struct {
	current  SnapshotSource
	history  SnapshotHistory // nil when no database is configured
	reloader Reloader
}

// NewSnapshotHandler creates a new handler. history may be nil.
func NewSnapshotHandler(current SnapshotSource, history SnapshotHistory, reloader Reloader) *SnapshotHandler {
	return &SnapshotHandler{current: current, history: history, reloader: reloader}
}

// SnapshotsResponse is the JSON response structure for GET /api/snapshots
type SnapshotsResponse struct {
	Snapshots []models.SnapshotSummary `json:"snapshots"`
	Count     int                      `json:"count"`
}

// ReloadResponse is the JSON response structure for POST /api/reload
type ReloadResponse struct {
	Snapshot models.SnapshotSummary `json:"snapshot"`
	Tables   []models.TableStatus   `json:"tables"`
	Changed  bool                   `json:"changed"`
}

func (h *SnapshotHandler) historyEnabled(w http.ResponseWriter) bool {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "Snapshot history is not configured", nil)
		return false
	}
	return true
}

// GetSnapshots handles GET /api/snapshots?limit=20
// Returns the load history, newest first
func (h *SnapshotHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", map[string]interface{}{"limit": s})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summaries, err := h.history.ListSnapshots(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve snapshots", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, "no-cache", SnapshotsResponse{Snapshots: summaries, Count: len(summaries)})
}

// GetCurrent handles GET /api/snapshots/current
// Returns the published snapshot with its per-table load status
func (h *SnapshotHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	snap := h.current.Snapshot()
	if snap == nil {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "Dataset is still loading", nil)
		return
	}
	writeJSON(w, http.StatusOK, "no-cache", ReloadResponse{
		Snapshot: snap.Summary(),
		Tables:   snap.Tables,
		Changed:  false,
	})
}

// GetSnapshotExport handles GET /api/snapshots/{id}/export
// Downloads the export recorded for a past snapshot
func (h *SnapshotHandler) GetSnapshotExport(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}

	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot id", map[string]interface{}{"id": idParam})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	exportRows, err := h.history.GetSnapshotExport(ctx, id)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "Snapshot not found", map[string]interface{}{"id": id.String()})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve snapshot", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	var buf bytes.Buffer
	if err := query.WriteExportRows(&buf, exportRows); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}
	writeCSV(w, "transit_data_"+id.String()+".csv", buf.Bytes())
}

// PostReload handles POST /api/reload
// Reloads every table and atomically publishes the result
func (h *SnapshotHandler) PostReload(w http.ResponseWriter, r *http.Request) {
	result, err := h.reloader.Reload(r.Context())
	if errors.Is(err, dataset.ErrMasterUnavailable) {
		writeError(w, http.StatusBadGateway, "Reload failed, current snapshot kept", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reload failed", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, "", ReloadResponse{
		Snapshot: result.Snapshot.Summary(),
		Tables:   result.Snapshot.Tables,
		Changed:  result.Changed,
	})
}
