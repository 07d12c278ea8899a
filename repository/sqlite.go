package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/transit-atlas/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// timeLayout is fixed-width so that loaded_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteSnapshotRepository keeps the snapshot history in a SQLite file
type SQLiteSnapshotRepository struct {
	db        *sql.DB
	writeMu   sync.Mutex // SQLite allows a single writer
	retention int
}

// NewSQLiteSnapshotRepository opens (or creates) the database at dbPath and
// ensures the schema. retention is the number of snapshots kept.
func NewSQLiteSnapshotRepository(ctx context.Context, dbPath string, retention int) (*SQLiteSnapshotRepository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if retention <= 0 {
		retention = DefaultRetention
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return &SQLiteSnapshotRepository{db: db, retention: retention}, nil
}

// Close closes the database connection
func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *SQLiteSnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSnapshot records a snapshot and its export lines, then prunes the
// history down to the retention limit
func (r *SQLiteSnapshotRepository) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	summary := snap.Summary()
	failed, err := json.Marshal(nonNil(summary.FailedTables))
	if err != nil {
		return fmt.Errorf("failed to encode failed tables: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO atlas_snapshots (id, loaded_at, fingerprint, city_count, system_total, failed_tables)
		VALUES (?, ?, ?, ?, ?, ?)
	`, summary.ID.String(), summary.LoadedAt.UTC().Format(timeLayout), summary.Fingerprint,
		summary.CityCount, summary.SystemTotal, string(failed))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO atlas_snapshot_cities
			(snapshot_id, position, name, country, system_count, total_length, total_stations, total_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare city insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range snap.Cities {
		row := models.ExportRowOf(c)
		if _, err := stmt.ExecContext(ctx, summary.ID.String(), i, row.Name, row.Country,
			row.Systems, row.Length, row.Stations, row.Lines); err != nil {
			return fmt.Errorf("failed to insert city %s: %w", c.ID(), err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM atlas_snapshots WHERE id NOT IN (
			SELECT id FROM atlas_snapshots ORDER BY loaded_at DESC, rowid DESC LIMIT ?
		)
	`, r.retention)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	if pruned, _ := result.RowsAffected(); pruned > 0 {
		log.Printf("Cleanup: pruned %d old snapshots", pruned)
	}
	return nil
}

// ListSnapshots returns the history, newest first
func (r *SQLiteSnapshotRepository) ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, loaded_at, fingerprint, city_count, system_total, failed_tables
		FROM atlas_snapshots
		ORDER BY loaded_at DESC, rowid DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	summaries := []models.SnapshotSummary{}
	for rows.Next() {
		var s models.SnapshotSummary
		var idStr, loadedAtStr, failedStr string
		if err := rows.Scan(&idStr, &loadedAtStr, &s.Fingerprint, &s.CityCount, &s.SystemTotal, &failedStr); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if s.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid snapshot id %q: %w", idStr, err)
		}
		if s.LoadedAt, err = time.Parse(timeLayout, loadedAtStr); err != nil {
			return nil, fmt.Errorf("invalid loaded_at %q: %w", loadedAtStr, err)
		}
		if err := json.Unmarshal([]byte(failedStr), &s.FailedTables); err != nil {
			return nil, fmt.Errorf("invalid failed_tables %q: %w", failedStr, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return summaries, nil
}

// GetSnapshotExport returns the export lines recorded for a snapshot
func (r *SQLiteSnapshotRepository) GetSnapshotExport(ctx context.Context, id uuid.UUID) ([]models.ExportRow, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM atlas_snapshots WHERE id = ?`, id.String()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	if exists == 0 {
		return nil, ErrSnapshotNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, country, system_count, total_length, total_stations, total_lines
		FROM atlas_snapshot_cities
		WHERE snapshot_id = ?
		ORDER BY position
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot cities: %w", err)
	}
	defer rows.Close()

	exportRows := []models.ExportRow{}
	for rows.Next() {
		var e models.ExportRow
		if err := rows.Scan(&e.Name, &e.Country, &e.Systems, &e.Length, &e.Stations, &e.Lines); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot city: %w", err)
		}
		exportRows = append(exportRows, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot cities: %w", err)
	}
	return exportRows, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
