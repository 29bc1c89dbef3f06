// Package sqlite stores key-value collections in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	selectValueSQL = `SELECT value FROM kv_entries WHERE key = ?`
	upsertValueSQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// Store implements persistence.KeyValueStore on the kv_entries table.
type Store struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
	now    func() time.Time
	logger *slog.Logger
}

// Open connects to the database described by cfg and applies pending migrations.
func Open(ctx context.Context, cfg migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	db, err := migration.Open(cfg)
	if err != nil {
		return nil, err
	}

	store := NewStore(db, logger)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an open database without running migrations.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:   NewConnectionPool(db),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
		now:    time.Now,
		logger: logger.With("component", "sqlite_store"),
	}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	scanner := migration.NewScanner(migrationFiles, "migrations")
	manager := migration.NewManager(scanner, migration.NewExecutor(s.pool.DB()), s.logger)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Load returns the value stored under key, or persistence.ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.DB().QueryRowContext(ctx, selectValueSQL, key).Scan(&value)
	if err != nil {
		mapped := s.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return nil, persistence.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load key", "key", key, "error", err)
		return nil, fmt.Errorf("sqlite: load %s: %w", key, mapped)
	}
	return []byte(value), nil
}

// Save upserts value under key, retrying while the database is locked.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, upsertValueSQL, key, string(value), updatedAt)
			return err
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save key", "key", key, "error", err)
		return fmt.Errorf("sqlite: save %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}
