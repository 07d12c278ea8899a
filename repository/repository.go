// Package repository records the history of published dataset snapshots in
// SQLite or Postgres.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/you/transit-atlas/models"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DefaultRetention is the number of snapshots kept when none is configured
const DefaultRetention = 50

// SnapshotRepository stores one row per published snapshot together with
// its export lines
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error)
	GetSnapshotExport(ctx context.Context, id uuid.UUID) ([]models.ExportRow, error)
	Ping(ctx context.Context) error
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
