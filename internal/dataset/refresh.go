package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/you/transit-atlas/internal/metrics"
	"github.com/you/transit-atlas/internal/store"
	"github.com/you/transit-atlas/models"
)

// ErrMasterUnavailable is returned when a reload could not read the master or
// coordinate table while a populated snapshot is already published
var ErrMasterUnavailable = errors.New("master tables unavailable, keeping current snapshot")

// History records published snapshots
type History interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// ReloadResult describes the outcome of one reload
type ReloadResult struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Changed  bool             `json:"changed"`
}

// Refresher reloads the dataset on demand and on a fixed interval, and
// publishes new snapshots to the store
type Refresher struct {
	loader   *Loader
	store    *store.Store
	history  History
	metrics  *metrics.Recorder
	interval time.Duration

	mu sync.Mutex // one reload at a time
}

// NewRefresher wires a loader to a store. history and rec may be nil;
// an interval of zero disables periodic reloads.
func NewRefresher(loader *Loader, st *store.Store, history History, rec *metrics.Recorder, interval time.Duration) *Refresher {
	return &Refresher{
		loader:   loader,
		store:    st,
		history:  history,
		metrics:  rec,
		interval: interval,
	}
}

// Interval returns the periodic reload interval
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Reload performs a full load and atomically publishes it. A load whose
// fingerprint matches the published snapshot leaves the store untouched.
func (r *Refresher) Reload(ctx context.Context) (*ReloadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	snap, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	prev := r.store.Snapshot()
	if prev != nil && prev.Fingerprint == snap.Fingerprint {
		r.metrics.ObserveLoad(metrics.StatusUnchanged, time.Since(start))
		log.Printf("Dataset unchanged (fingerprint %s), keeping snapshot %s", snap.Fingerprint, prev.ID)
		return &ReloadResult{Snapshot: prev, Changed: false}, nil
	}

	if prev != nil && len(prev.Cities) > 0 && coreTablesFailed(snap) {
		r.metrics.ObserveLoad(metrics.StatusError, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrMasterUnavailable, snap.FailedTables())
	}

	r.store.Replace(snap)
	r.metrics.ObserveLoad(metrics.StatusOK, time.Since(start))
	r.metrics.Published(len(snap.Cities), snap.LoadedAt)
	log.Printf("Published snapshot %s (%d cities, fingerprint %s)", snap.ID, len(snap.Cities), snap.Fingerprint)

	if r.history != nil {
		if err := r.history.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("Warning: failed to record snapshot %s: %v", snap.ID, err)
		}
	}

	return &ReloadResult{Snapshot: snap, Changed: true}, nil
}

// Run reloads every interval until ctx is done
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		log.Println("Periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Reload(ctx); err != nil {
				log.Printf("Periodic refresh failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Refresh loop stopped")
			return
		}
	}
}

// coreTablesFailed reports whether the master or coordinate table failed
func coreTablesFailed(snap *models.Snapshot) bool {
	for _, t := range snap.Tables {
		if t.Error != "" && (t.File == MasterFile || t.File == CoordinatesFile) {
			return true
		}
	}
	return false
}
