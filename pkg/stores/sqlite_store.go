package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
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

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

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

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
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

// CreateRun persists a run record with its attempts and diagnostic chain
// in a single transaction.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *RunRecord) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	manualSteps, err := encodeSteps(run.ManualSteps)
	if err != nil {
		return err
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, recipe, status, method, manual_steps, started_at, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Recipe,
		run.Status,
		run.Method,
		manualSteps,
		run.StartedAt,
		run.Duration.Milliseconds(),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for i, a := range run.Attempts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attempts (run_id, seq, method, command, retry, success, exit_code, output, error_text, started_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, a.Method, a.Command, a.Retry, a.Success, a.ExitCode,
			a.Output, a.ErrorText, a.StartedAt, a.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to create attempt %d: %w", i, err)
		}
	}

	for i, c := range run.Chain {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chain_entries (run_id, seq, method, handler, layer, category, action, error_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, c.Method, c.Handler, c.Layer, c.Category, c.Action, c.ErrorText,
		)
		if err != nil {
			return fmt.Errorf("failed to create chain entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its attempts and chain by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	run := &RunRecord{}
	var manualSteps string
	var durationMS int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, recipe, status, method, manual_steps, started_at, duration_ms, created_at
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Recipe,
		&run.Status,
		&run.Method,
		&manualSteps,
		&run.StartedAt,
		&durationMS,
		&run.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Duration = time.Duration(durationMS) * time.Millisecond
	if run.ManualSteps, err = decodeSteps(manualSteps); err != nil {
		return nil, err
	}

	if run.Attempts, err = s.attemptsByRun(ctx, id); err != nil {
		return nil, err
	}
	if run.Chain, err = s.chainByRun(ctx, id); err != nil {
		return nil, err
	}

	return run, nil
}

func (s *SQLiteStore) attemptsByRun(ctx context.Context, runID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, method, command, retry, success, exit_code, output, error_text, started_at, duration_ms
		FROM attempts
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		var durationMS int64
		err := rows.Scan(
			&a.Seq, &a.Method, &a.Command, &a.Retry, &a.Success,
			&a.ExitCode, &a.Output, &a.ErrorText, &a.StartedAt, &durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Duration = time.Duration(durationMS) * time.Millisecond
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}

func (s *SQLiteStore) chainByRun(ctx context.Context, runID string) ([]ChainRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, method, handler, layer, category, action, error_text
		FROM chain_entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chain entries: %w", err)
	}
	defer rows.Close()

	var chain []ChainRecord
	for rows.Next() {
		var c ChainRecord
		err := rows.Scan(&c.Seq, &c.Method, &c.Handler, &c.Layer, &c.Category, &c.Action, &c.ErrorText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chain entry: %w", err)
		}
		chain = append(chain, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain entries: %w", err)
	}
	return chain, nil
}

// ListRuns lists run summaries, newest first, optionally filtered by
// recipe. Attempts and chain entries are not populated.
func (s *SQLiteStore) ListRuns(ctx context.Context, recipe string, limit, offset int) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipe, status, method, manual_steps, started_at, duration_ms, created_at
		FROM runs
		WHERE (? = '' OR recipe = ?)
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, recipe, recipe, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*RunRecord{}
	for rows.Next() {
		run := &RunRecord{}
		var manualSteps string
		var durationMS int64
		err := rows.Scan(
			&run.ID, &run.Recipe, &run.Status, &run.Method,
			&manualSteps, &run.StartedAt, &durationMS, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if run.ManualSteps, err = decodeSteps(manualSteps); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run by ID. Attempts and chain entries cascade.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// PruneRuns deletes all runs that started before the given time and
// returns how many were removed.
func (s *SQLiteStore) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

func encodeSteps(steps []string) (string, error) {
	if len(steps) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to encode manual steps: %w", err)
	}
	return string(data), nil
}

func decodeSteps(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("failed to decode manual steps: %w", err)
	}
	return steps, nil
}
