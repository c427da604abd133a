package stores

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
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Init opens the database and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded filesystem.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
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

// CreateCycle inserts a new evaluation cycle.
func (s *SQLiteStore) CreateCycle(ctx context.Context, cycle *EvaluationCycle) error {
	query := `
		INSERT INTO evaluation_cycles (id, provider, filter, resource_count, edge_count, locked_count, matched_count, started_at, completed_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		cycle.ID,
		cycle.Provider,
		cycle.Filter,
		cycle.ResourceCount,
		cycle.EdgeCount,
		cycle.LockedCount,
		cycle.MatchedCount,
		cycle.StartedAt,
		cycle.CompletedAt,
		cycle.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create cycle: %w", err)
	}
	return nil
}

// CompleteCycle records a cycle's final counts, completion time, and error.
func (s *SQLiteStore) CompleteCycle(ctx context.Context, cycle *EvaluationCycle) error {
	query := `
		UPDATE evaluation_cycles
		SET resource_count = ?, edge_count = ?, locked_count = ?, matched_count = ?, completed_at = ?, error = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		cycle.ResourceCount,
		cycle.EdgeCount,
		cycle.LockedCount,
		cycle.MatchedCount,
		cycle.CompletedAt,
		cycle.Error,
		cycle.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete cycle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cycle not found: %s", cycle.ID)
	}
	return nil
}

// GetCycle fetches a cycle by ID.
func (s *SQLiteStore) GetCycle(ctx context.Context, id string) (*EvaluationCycle, error) {
	query := `
		SELECT id, provider, filter, resource_count, edge_count, locked_count, matched_count, started_at, completed_at, error
		FROM evaluation_cycles
		WHERE id = ?
	`

	var cycle EvaluationCycle
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cycle.ID,
		&cycle.Provider,
		&cycle.Filter,
		&cycle.ResourceCount,
		&cycle.EdgeCount,
		&cycle.LockedCount,
		&cycle.MatchedCount,
		&cycle.StartedAt,
		&cycle.CompletedAt,
		&cycle.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cycle not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return &cycle, nil
}

// ListCycles returns the most recent cycles, newest first.
func (s *SQLiteStore) ListCycles(ctx context.Context, limit int) ([]EvaluationCycle, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, provider, filter, resource_count, edge_count, locked_count, matched_count, started_at, completed_at, error
		FROM evaluation_cycles
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []EvaluationCycle
	for rows.Next() {
		var cycle EvaluationCycle
		if err := rows.Scan(
			&cycle.ID,
			&cycle.Provider,
			&cycle.Filter,
			&cycle.ResourceCount,
			&cycle.EdgeCount,
			&cycle.LockedCount,
			&cycle.MatchedCount,
			&cycle.StartedAt,
			&cycle.CompletedAt,
			&cycle.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

// RecordDecision inserts a gate decision.
func (s *SQLiteStore) RecordDecision(ctx context.Context, d *DecisionRecord) error {
	query := `
		INSERT INTO decisions (cycle_id, resource, action, allowed, reason, level, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		d.CycleID,
		d.Resource,
		d.Action,
		d.Allowed,
		d.Reason,
		d.Level,
		d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get decision id: %w", err)
	}
	d.ID = id
	return nil
}

// ListDecisions returns the decisions recorded for a cycle, oldest first.
func (s *SQLiteStore) ListDecisions(ctx context.Context, cycleID string) ([]DecisionRecord, error) {
	query := `
		SELECT id, cycle_id, resource, action, allowed, reason, level, decided_at
		FROM decisions
		WHERE cycle_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []DecisionRecord
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(
			&d.ID,
			&d.CycleID,
			&d.Resource,
			&d.Action,
			&d.Allowed,
			&d.Reason,
			&d.Level,
			&d.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
