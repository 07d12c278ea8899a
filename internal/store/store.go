// Package store holds the currently published dataset snapshot.
package store

import (
	"errors"
	"sync/atomic"

	"github.com/you/transit-atlas/models"
)

// ErrNotReady is returned before the first snapshot has been published
var ErrNotReady = errors.New("dataset not loaded yet")

// Store publishes immutable snapshots. Readers always observe either the
// whole previous snapshot or the whole new one.
type Store struct {
	current atomic.Pointer[models.Snapshot]
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// Snapshot returns the published snapshot, or nil before the first load
func (s *Store) Snapshot() *models.Snapshot {
	return s.current.Load()
}

// Cities returns the aggregate collection of the published snapshot
func (s *Store) Cities() ([]models.CityAggregate, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap.Cities, nil
}

// Replace publishes snap and returns the snapshot it replaced (nil on first load)
func (s *Store) Replace(snap *models.Snapshot) *models.Snapshot {
	return s.current.Swap(snap)
}
