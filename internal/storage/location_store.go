package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fruitsalade/filenav/internal/metrics"
)

// LocationRow maps to the storage_locations table.
type LocationRow struct {
	ID        int
	Name      string
	Path      string
	Priority  int
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schema creates the storage_locations table.
const Schema = `CREATE TABLE IF NOT EXISTS storage_locations (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	path       TEXT NOT NULL,
	priority   INTEGER NOT NULL DEFAULT 0,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// undefinedTable is the PostgreSQL error code for a missing relation.
const undefinedTable = "42P01"

// LocationStore provides access to storage_locations.
type LocationStore struct {
	db *sql.DB
}

// OpenLocationStore connects to PostgreSQL.
func OpenLocationStore(databaseURL string) (*LocationStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &LocationStore{db: db}, nil
}

// NewLocationStore wraps an existing connection.
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Close closes the database connection.
func (s *LocationStore) Close() error {
	return s.db.Close()
}

// Migrate creates the table if needed.
func (s *LocationStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate storage_locations: %w", err)
	}
	return nil
}

// ListEnabled returns enabled locations ordered by priority, then name.
func (s *LocationStore) ListEnabled(ctx context.Context) ([]LocationRow, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_locations", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, priority, enabled, created_at, updated_at
		 FROM storage_locations WHERE enabled = TRUE ORDER BY priority DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list storage locations: %w", err)
	}
	defer rows.Close()

	var locs []LocationRow
	for rows.Next() {
		var loc LocationRow
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Path, &loc.Priority,
			&loc.Enabled, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan storage location: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// Create inserts a location and fills in its generated fields.
func (s *LocationStore) Create(ctx context.Context, loc *LocationRow) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("create_location", time.Since(start)) }()

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO storage_locations (name, path, priority, enabled)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		loc.Name, loc.Path, loc.Priority, loc.Enabled).
		Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create storage location: %w", err)
	}
	return nil
}

// SetEnabled toggles a location, e.g. when its volume is ejected.
func (s *LocationStore) SetEnabled(ctx context.Context, id int, enabled bool) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("set_location_enabled", time.Since(start)) }()

	res, err := s.db.ExecContext(ctx,
		`UPDATE storage_locations SET enabled = $2, updated_at = NOW() WHERE id = $1`,
		id, enabled)
	if err != nil {
		return fmt.Errorf("update storage location: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage location %d not found", id)
	}
	return nil
}

// Delete removes a location.
func (s *LocationStore) Delete(ctx context.Context, id int) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete_location", time.Since(start)) }()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM storage_locations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete storage location: %w", err)
	}
	return nil
}

// isUndefinedTable reports whether err is PostgreSQL's missing-relation error.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == undefinedTable
}
