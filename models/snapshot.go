package models

import (
	"time"

	"github.com/google/uuid"
)

// TableStatus records how one source table fared during a load
type TableStatus struct {
	File   string `json:"file"`
	System string `json:"system,omitempty"` // empty for the master and coordinate tables
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"` // set when the table was degraded to empty
}

// Snapshot is one complete, immutable load of the dataset.
// Cities must not be mutated once the snapshot is published.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	LoadedAt    time.Time       `json:"loadedAt"`
	Fingerprint string          `json:"fingerprint"`
	Tables      []TableStatus   `json:"tables"`
	Cities      []CityAggregate `json:"-"`
}

// FailedTables lists the files that could not be fetched or parsed
func (s *Snapshot) FailedTables() []string {
	var failed []string
	for _, t := range s.Tables {
		if t.Error != "" {
			failed = append(failed, t.File)
		}
	}
	return failed
}

// SystemTotal is the sum of system counts over all cities
func (s *Snapshot) SystemTotal() int {
	total := 0
	for _, c := range s.Cities {
		total += c.SystemCount
	}
	return total
}

// Summary returns the persisted description of the snapshot
func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:           s.ID,
		LoadedAt:     s.LoadedAt,
		Fingerprint:  s.Fingerprint,
		CityCount:    len(s.Cities),
		SystemTotal:  s.SystemTotal(),
		FailedTables: s.FailedTables(),
	}
}

// SnapshotSummary is a row of the load history
type SnapshotSummary struct {
	ID           uuid.UUID `json:"id"`
	LoadedAt     time.Time `json:"loadedAt"`
	Fingerprint  string    `json:"fingerprint"`
	CityCount    int       `json:"cityCount"`
	SystemTotal  int       `json:"systemTotal"`
	FailedTables []string  `json:"failedTables"`
}
