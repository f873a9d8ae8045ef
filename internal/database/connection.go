package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"icupa-ordering/internal/config"
	"icupa-ordering/internal/logger"
)

const (
	connectAttempts = 5
	pingTimeout     = 5 * time.Second
)

// DB wraps the shared PostgreSQL connection pool. All services run over one
// pool sized from config so a busy checkout burst cannot starve the trackers.
type DB struct {
	Pool   *pgxpool.Pool
	logger *logger.Logger
}

// New opens the pool and verifies connectivity, retrying with a growing
// backoff so the service survives the database coming up after it.
func New(cfg *config.Config, log *logger.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := openWithRetry(poolConfig, log)
	if err != nil {
		return nil, err
	}

	return &DB{Pool: pool, logger: log}, nil
}

func openWithRetry(poolConfig *pgxpool.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err = pool.Ping(ctx)
			cancel()
			if err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		if attempt < connectAttempts {
			wait := time.Duration(attempt) * 2 * time.Second
			log.Error("db_connection_failed",
				fmt.Sprintf("Failed to connect to database, retrying in %v", wait),
				"startup", err, nil)
			time.Sleep(wait)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

// Close releases the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping tests database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Begin starts a transaction on the pool.
func (db *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

// Exec runs a statement, discarding the command tag.
func (db *DB) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := db.Pool.Exec(ctx, sql, args...)
	return err
}

// Query runs a query returning rows.
func (db *DB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

// QueryRow runs a query expected to return at most one row.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}
