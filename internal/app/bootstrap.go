package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/platform/config"
	db "github.com/lueurxax/trendpulse/internal/storage"
)

// NewLogger returns a console logger for local runs and a JSON logger otherwise.
func NewLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Bootstrap connects to the database, applies migrations and wires the App.
// The returned close function releases the pool.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, func(), error) {
	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()

		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return New(ctx, cfg, database, logger), database.Close, nil
}
