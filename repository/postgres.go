package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you/transit-atlas/models"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresSnapshotRepository keeps the snapshot history in Postgres
type PostgresSnapshotRepository struct {
	pool      *pgxpool.Pool
	retention int
}

// NewPostgresSnapshotRepository connects to databaseURL and ensures the schema
func NewPostgresSnapshotRepository(ctx context.Context, databaseURL string, retention int) (*PostgresSnapshotRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if retention <= 0 {
		retention = DefaultRetention
	}

	log.Println("Connected to PostgreSQL database")
	return &PostgresSnapshotRepository{pool: pool, retention: retention}, nil
}

// Close closes the connection pool
func (r *PostgresSnapshotRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks the database connection
func (r *PostgresSnapshotRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// SaveSnapshot records a snapshot and its export lines, then prunes the
// history down to the retention limit
func (r *PostgresSnapshotRepository) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	summary := snap.Summary()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO atlas_snapshots (id, loaded_at, fingerprint, city_count, system_total, failed_tables)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, summary.ID, summary.LoadedAt, summary.Fingerprint, summary.CityCount, summary.SystemTotal, nonNil(summary.FailedTables))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	cityRows := make([][]any, len(snap.Cities))
	for i, c := range snap.Cities {
		row := models.ExportRowOf(c)
		cityRows[i] = []any{summary.ID, i, row.Name, row.Country, row.Systems, row.Length, row.Stations, row.Lines}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"atlas_snapshot_cities"},
		[]string{"snapshot_id", "position", "name", "country", "system_count", "total_length", "total_stations", "total_lines"},
		pgx.CopyFromRows(cityRows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy snapshot cities: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM atlas_snapshots WHERE id NOT IN (
			SELECT id FROM atlas_snapshots ORDER BY loaded_at DESC LIMIT $1
		)
	`, r.retention)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Printf("Cleanup: pruned %d old snapshots", tag.RowsAffected())
	}
	return nil
}

// ListSnapshots returns the history, newest first
func (r *PostgresSnapshotRepository) ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, loaded_at, fingerprint, city_count, system_total, failed_tables
		FROM atlas_snapshots
		ORDER BY loaded_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	summaries := []models.SnapshotSummary{}
	for rows.Next() {
		var s models.SnapshotSummary
		if err := rows.Scan(&s.ID, &s.LoadedAt, &s.Fingerprint, &s.CityCount, &s.SystemTotal, &s.FailedTables); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return summaries, nil
}

// GetSnapshotExport returns the export lines recorded for a snapshot
func (r *PostgresSnapshotRepository) GetSnapshotExport(ctx context.Context, id uuid.UUID) ([]models.ExportRow, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM atlas_snapshots WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT name, country, system_count, total_length, total_stations, total_lines
		FROM atlas_snapshot_cities
		WHERE snapshot_id = $1
		ORDER BY position
	`, id)
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
