// Package database opens the GORM connection with retry, pooling, and
// query logging through the application logger.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Open connects to PostgreSQL with context-aware retry and configures the
// connection pool.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	cfg.ApplyDefaults()
	return open(ctx, postgres.Open(cfg.DSN), cfg, log)
}

// OpenWithDialector connects using the given dialector. Tests use this
// with sqlite.
func OpenWithDialector(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	cfg.ApplyDefaults()
	return open(ctx, dialector, cfg, log)
}

func open(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	slowThreshold, _ := time.ParseDuration(cfg.SlowQueryThreshold)

	gormCfg := &gorm.Config{
		Logger: newGormLogger(log, slowThreshold, parseLogLevel(cfg.LogLevel)),
	}

	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
		}

		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
				if lifetime, parseErr := time.ParseDuration(cfg.ConnMaxLifetime); parseErr == nil {
					sqlDB.SetConnMaxLifetime(lifetime)
				}

				log.Info("Database connection established", map[string]interface{}{
					"attempt": attempt,
				})
				return db, nil
			}
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(attempt) * time.Second
			log.Warn("Database connection attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"backoff": backoff.String(),
			})
			if waitErr := contextSleep(ctx, backoff); waitErr != nil {
				return nil, fmt.Errorf("database connection canceled during retry: %w", waitErr)
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", cfg.MaxRetries, err)
}

// contextSleep waits for the given duration or until the context is
// canceled.
func contextSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
