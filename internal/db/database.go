package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reusefull/reusefull/backend/matching-service/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Database holds the database connection pool
type Database struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDatabase creates a new database connection with retry logic for serverless databases
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	return NewDatabaseWithRetry(ctx, cfg, logger, 5, time.Second)
}

// ConnString builds a libpq-style connection string from discrete settings,
// or returns the DSN when one is configured.
func ConnString(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewDatabaseWithRetry creates a new database connection with configurable retry logic
func NewDatabaseWithRetry(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger, maxRetries int, initialDelay time.Duration) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Simple protocol keeps us compatible with transaction-mode poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	var (
		pool    *pgxpool.Pool
		lastErr error
	)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Info("connecting to database",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.String("host", poolConfig.ConnConfig.Host),
			zap.String("user", poolConfig.ConnConfig.User),
		)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
			pool.Close()
			pool = nil
			lastErr = fmt.Errorf("failed to ping database: %w", err)
		} else {
			lastErr = fmt.Errorf("failed to create connection pool: %w", err)
		}

		logger.Warn("database connection failed", zap.Int("attempt", attempt), zap.Error(lastErr))
		if attempt < maxRetries {
			// Exponential backoff: 1s, 2s, 4s, 8s
			delay := initialDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	logger.Info("database connection established")
	return &Database{Pool: pool, logger: logger}, nil
}

// NewFromPool wraps an existing pool.
func NewFromPool(pool *pgxpool.Pool, logger *zap.Logger) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Database{Pool: pool, logger: logger}
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info("database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return errors.New("database not initialized")
	}
	return db.Pool.Ping(ctx)
}
