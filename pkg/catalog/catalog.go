package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/cofferdb/coffer-go/pkg/lifecycle"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteCatalog is the durable catalog of known databases and their
// lifecycle history, backed by SQLite.
type SQLiteCatalog struct {
	db  *sql.DB
	cfg Config
}

// Config holds catalog storage configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New creates a catalog instance. Init must be called before use.
func New(cfg Config) (*SQLiteCatalog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteCatalog{cfg: cfg}, nil
}

// Init opens the database connection and enables WAL mode.
func (c *SQLiteCatalog) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", c.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(c.cfg.MaxOpenConns)
	db.SetMaxIdleConns(c.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping catalog database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	c.db = db
	return nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// HealthCheck verifies the catalog is reachable.
func (c *SQLiteCatalog) HealthCheck(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("catalog not initialized")
	}
	return c.db.PingContext(ctx)
}

// Migrate runs schema migrations.
func (c *SQLiteCatalog) Migrate(_ context.Context) error {
	if c.db == nil {
		return fmt.Errorf("catalog not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(c.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// UpsertDatabase records a successful create: the row flips to open with
// the new path and generation, whether or not the name was known before.
func (c *SQLiteCatalog) UpsertDatabase(ctx context.Context, name, path string, generation uint64) error {
	query := `
		INSERT INTO databases (name, path, generation, status, opened_at, closed_at, created_at, updated_at)
		VALUES (?, ?, ?, 'open', ?, NULL, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path = excluded.path,
			generation = excluded.generation,
			status = 'open',
			opened_at = excluded.opened_at,
			closed_at = NULL,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, query, name, path, int64(generation), now, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert database: %w", err)
	}

	return nil
}

// MarkClosed flips the row for name to closed. Closing a name the
// catalog never saw is a no-op, not an error.
func (c *SQLiteCatalog) MarkClosed(ctx context.Context, name string) error {
	query := `
		UPDATE databases
		SET status = 'closed', closed_at = ?, updated_at = ?
		WHERE name = ?
	`

	now := time.Now().UTC()
	if _, err := c.db.ExecContext(ctx, query, now, now, name); err != nil {
		return fmt.Errorf("failed to mark database closed: %w", err)
	}

	return nil
}

// GetDatabase retrieves one catalog row by name.
func (c *SQLiteCatalog) GetDatabase(ctx context.Context, name string) (*Database, error) {
	query := `
		SELECT name, path, generation, status, opened_at, closed_at, created_at, updated_at
		FROM databases
		WHERE name = ?
	`

	db := &Database{}
	var generation int64
	err := c.db.QueryRowContext(ctx, query, name).Scan(
		&db.Name,
		&db.Path,
		&generation,
		&db.Status,
		&db.OpenedAt,
		&db.ClosedAt,
		&db.CreatedAt,
		&db.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("database not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	db.Generation = uint64(generation)
	return db, nil
}

// ListDatabases lists every known database ordered by name.
func (c *SQLiteCatalog) ListDatabases(ctx context.Context) ([]*Database, error) {
	query := `
		SELECT name, path, generation, status, opened_at, closed_at, created_at, updated_at
		FROM databases
		ORDER BY name ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	databases := []*Database{}
	for rows.Next() {
		db := &Database{}
		var generation int64
		err := rows.Scan(
			&db.Name,
			&db.Path,
			&generation,
			&db.Status,
			&db.OpenedAt,
			&db.ClosedAt,
			&db.CreatedAt,
			&db.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		db.Generation = uint64(generation)
		databases = append(databases, db)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating databases: %w", err)
	}

	return databases, nil
}

// AppendEvent appends one lifecycle event row and fills in its ID.
func (c *SQLiteCatalog) AppendEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO lifecycle_events (database_name, event, detail, timestamp)
		VALUES (?, ?, ?, ?)
	`

	result, err := c.db.ExecContext(ctx, query,
		event.Database,
		event.Event,
		event.Detail,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}

	event.ID = id
	return nil
}

// ListEvents retrieves events, newest first, optionally filtered to one
// database.
func (c *SQLiteCatalog) ListEvents(ctx context.Context, database *string, limit, offset int) ([]*Event, error) {
	query := `
		SELECT id, database_name, event, detail, timestamp
		FROM lifecycle_events
		WHERE (? IS NULL OR database_name = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := c.db.QueryContext(ctx, query, database, database, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID,
			&event.Database,
			&event.Event,
			&event.Detail,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// The catalog doubles as the supervisor's durable event sink.
var _ lifecycle.EventSink = (*SQLiteCatalog)(nil)

// DatabaseOpened records a successful create.
func (c *SQLiteCatalog) DatabaseOpened(ctx context.Context, name, path string, generation uint64) error {
	return c.UpsertDatabase(ctx, name, path, generation)
}

// DatabaseClosed records a close.
func (c *SQLiteCatalog) DatabaseClosed(ctx context.Context, name string) error {
	return c.MarkClosed(ctx, name)
}

// LifecycleEvent appends one transition to the event log.
func (c *SQLiteCatalog) LifecycleEvent(ctx context.Context, name, event, detail string) error {
	var d *string
	if detail != "" {
		d = &detail
	}
	return c.AppendEvent(ctx, &Event{
		Database:  name,
		Event:     event,
		Detail:    d,
		Timestamp: time.Now().UTC(),
	})
}
