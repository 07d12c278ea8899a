package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/you/transit-atlas/internal/store"
	"github.com/you/transit-atlas/models"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CitySource provides the aggregate collection of the published snapshot
type CitySource interface {
	Cities() ([]models.CityAggregate, error)
}

// SnapshotSource provides the published snapshot (nil before the first load)
type SnapshotSource interface {
	Snapshot() *models.Snapshot
}

// readCacheControl lets browsers reuse read responses between refreshes
const readCacheControl = "public, max-age=60, stale-while-revalidate=30"

func writeJSON(w http.ResponseWriter, status int, cacheControl string, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
		w.Header().Set("Vary", "Accept-Encoding")
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	writeJSON(w, status, "", ErrorResponse{Error: message, Details: details})
}

// loadCities fetches the current collection, answering 503 while the
// dataset is still loading
func loadCities(w http.ResponseWriter, src CitySource) ([]models.CityAggregate, bool) {
	cities, err := src.Cities()
	if errors.Is(err, store.ErrNotReady) {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "Dataset is still loading", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve cities", map[string]interface{}{
			"internal": err.Error(),
		})
		return nil, false
	}
	return cities, true
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
