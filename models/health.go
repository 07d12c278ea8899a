package models

import "time"

// DatasetHealth is the JSON body of GET /health
type DatasetHealth struct {
	Status       string     `json:"status"`   // "ok", "loading", "error"
	Database     string     `json:"database"` // "connected", "disconnected", "disabled"
	Freshness    string     `json:"freshness"`
	LoadedAt     *time.Time `json:"loadedAt,omitempty"`
	AgeSeconds   int        `json:"ageSeconds"`
	CityCount    int        `json:"cityCount"`
	FailedTables []string   `json:"failedTables,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Error        string     `json:"error,omitempty"`
}

// Health status constants
const (
	StatusOK      = "ok"
	StatusLoading = "loading"
	StatusError   = "error"
)

// FreshnessStatus constants
const (
	FreshnessFresh       = "fresh"       // younger than one refresh interval
	FreshnessStale       = "stale"       // missed up to two refreshes
	FreshnessUnavailable = "unavailable" // no data or badly overdue
)

// CalculateFreshnessStatus classifies the dataset age against the refresh interval.
// A zero interval (refresh disabled) never goes stale once loaded.
func CalculateFreshnessStatus(age, interval time.Duration) string {
	if age < 0 {
		return FreshnessUnavailable
	}
	if interval <= 0 || age < interval {
		return FreshnessFresh
	}
	if age < 3*interval {
		return FreshnessStale
	}
	return FreshnessUnavailable
}
