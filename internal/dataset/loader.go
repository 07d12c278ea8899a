// Package dataset loads the source tables, joins them into a snapshot and
// keeps the published snapshot fresh.
package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/you/transit-atlas/internal/aggregate"
	"github.com/you/transit-atlas/internal/metrics"
	"github.com/you/transit-atlas/internal/rows"
	"github.com/you/transit-atlas/internal/source"
	"github.com/you/transit-atlas/models"
)

// maxConcurrentFetches bounds parallel table downloads
const maxConcurrentFetches = 6

// Loader fetches and joins one complete dataset
type Loader struct {
	src     source.Source
	metrics *metrics.Recorder
	systems []Table
	now     func() time.Time
}

// NewLoader creates a loader over src. rec may be nil.
func NewLoader(src source.Source, rec *metrics.Recorder) *Loader {
	return &Loader{
		src:     src,
		metrics: rec,
		systems: SystemTables,
		now:     time.Now,
	}
}

// fetched is the outcome of one table fetch
type fetched struct {
	data []byte
	rows []rows.RawRow
	err  error
}

// Load fetches every table concurrently and waits for all of them before
// joining. A table that cannot be fetched or parsed is treated as empty and
// recorded in the snapshot's table list; only cancellation of ctx fails the load.
func (l *Loader) Load(ctx context.Context) (*models.Snapshot, error) {
	start := l.now()

	tables := make([]Table, 0, len(l.systems)+2)
	tables = append(tables, Table{File: MasterFile}, Table{File: CoordinatesFile})
	tables = append(tables, l.systems...)

	results := make([]fetched, len(tables))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			data, parsed, err := l.fetch(ctx, t.File)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			results[i] = fetched{data: data, rows: parsed, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.metrics.ObserveLoad(metrics.StatusError, l.now().Sub(start))
		return nil, fmt.Errorf("load canceled: %w", err)
	}

	snap := &models.Snapshot{
		ID:          uuid.New(),
		LoadedAt:    l.now().UTC(),
		Fingerprint: fingerprint(tables, results),
		Tables:      make([]models.TableStatus, len(tables)),
	}

	systems := make([]aggregate.SystemTable, 0, len(l.systems))
	for i, t := range tables {
		res := results[i]
		status := models.TableStatus{File: t.File, System: t.System, Rows: len(res.rows)}
		if res.err != nil {
			status.Error = res.err.Error()
			log.Printf("Warning: table %s unavailable, treating as empty: %v", t.File, res.err)
			l.metrics.TableFailed(t.File)
		}
		snap.Tables[i] = status

		if t.System != "" {
			systems = append(systems, aggregate.SystemTable{Type: t.System, Rows: res.rows})
		}
	}

	snap.Cities = aggregate.Aggregate(results[0].rows, results[1].rows, systems)

	log.Printf("Loaded %d cities from %d tables (%d failed) in %v",
		len(snap.Cities), len(tables), len(snap.FailedTables()), l.now().Sub(start).Round(time.Millisecond))
	return snap, nil
}

// fetch reads and parses one table. An empty file is an empty table, not an error.
func (l *Loader) fetch(ctx context.Context, name string) ([]byte, []rows.RawRow, error) {
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	parsed, err := rows.ReadTable(bytes.NewReader(data))
	if errors.Is(err, rows.ErrEmptyTable) {
		return data, nil, nil
	}
	if err != nil {
		return data, nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return data, parsed, nil
}

// fingerprint hashes every table's name and content in table order. Failed
// tables contribute their name only, so a failure changes the fingerprint.
func fingerprint(tables []Table, results []fetched) string {
	h := xxh3.New()
	for i, t := range tables {
		io.WriteString(h, t.File)
		h.Write([]byte{0})
		if results[i].err != nil {
			h.Write([]byte{1})
			continue
		}
		fmt.Fprintf(h, "%d:", len(results[i].data))
		h.Write(results[i].data)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
