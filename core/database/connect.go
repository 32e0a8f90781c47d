package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/afkbot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	// defaultPoolSize covers the state row upsert plus a spare connection.
	defaultPoolSize = 2
	waitInterval    = 2 * time.Second
)

func (c Config) logAttrs(extra ...slog.Attr) []slog.Attr {
	return append([]slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", c.Host),
		slog.String("port", c.Port),
		slog.String("db", c.Name),
	}, extra...)
}

// Connect opens a pooled connection and verifies it with a ping bounded by
// connectTimeout.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	pool := cfg.MaxConnections
	if pool <= 0 {
		pool = defaultPoolSize
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed", cfg.logAttrs(
			slog.String("event", "db.connect"),
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected", cfg.logAttrs(
		slog.String("event", "db.connect"),
		slog.String("status", "ok"),
		slog.Int("pool_open", pool),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// WaitForPostgres pings dsn every two seconds until the server answers,
// timeout elapses or ctx is cancelled.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logger.DB.LogAttrs(ctx, slog.LevelDebug, "db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempts", attempt),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-ticker.C:
		}
	}
}
