// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Worker mode: periodic ingestion, fatigue scoring, pruning and validation batches
//   - HTTP mode: health, metrics and the admin API only
//   - One-shot modes: a single ingestion, clustering, fatigue or validation run
//
// Each mode can be run independently or combined based on deployment needs.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/admin"
	"github.com/lueurxax/trendpulse/internal/platform/config"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
	"github.com/lueurxax/trendpulse/internal/platform/worker"
	"github.com/lueurxax/trendpulse/internal/process/pipeline"
	"github.com/lueurxax/trendpulse/internal/process/validation"
	db "github.com/lueurxax/trendpulse/internal/storage"
)

const workerName = "trendpulse"

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	service  *pipeline.Service
	logger   *zerolog.Logger
}

// New creates a new App instance backed by database.
func New(ctx context.Context, cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	deps := pipeline.Dependencies{
		Signals:  database,
		Clusters: database,
		Posts:    database,
		Fetchers: newFetchers(cfg, database, logger),
		Images:   newImageEngine(cfg, logger),
	}

	if registry := newLLMRegistry(ctx, cfg, logger); registry != nil {
		deps.Generator = registry
	}

	return &App{
		cfg:      cfg,
		database: database,
		service:  pipeline.NewService(cfg, deps, logger),
		logger:   logger,
	}
}

// Service exposes the pipeline operations.
func (a *App) Service() *pipeline.Service {
	return a.service
}

// StartHealthServer starts the health, metrics and admin server.
func (a *App) StartHealthServer(ctx context.Context) error {
	handler := admin.NewHandler(a.service, a.logger)

	srv := observability.NewServerWithAdmin(a.database, a.cfg.HealthPort, handler, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunHTTP serves only the health and admin endpoints.
func (a *App) RunHTTP(ctx context.Context) error {
	a.logger.Info().Msg("Starting HTTP-only mode")

	return a.StartHealthServer(ctx)
}

// RunWorker runs the periodic jobs until ctx is canceled.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	return worker.Loop(ctx, worker.Config{ //nolint:wrapcheck // worker wraps the context error
		Name:   workerName,
		Tasks:  a.tasks(),
		Logger: a.logger,
	})
}

func (a *App) tasks() []worker.Task {
	tasks := []worker.Task{
		{
			Name:       "ingestion",
			Interval:   a.cfg.IngestionInterval,
			Timeout:    a.cfg.IngestionTimeout,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := a.service.RunIngestion(ctx)
				return err
			},
		},
		{
			Name:     "fatigue",
			Interval: a.cfg.FatigueInterval,
			Run: func(ctx context.Context) error {
				_, err := a.service.RunFatigue(ctx)
				return err
			},
		},
		{
			Name:     "prune",
			Interval: a.cfg.PruneInterval,
			Run: func(ctx context.Context) error {
				_, err := a.service.RunPrune(ctx)
				return err
			},
		},
	}

	if a.cfg.ValidationInterval > 0 {
		tasks = append(tasks, worker.Task{
			Name:     "validation",
			Interval: a.cfg.ValidationInterval,
			Run: func(ctx context.Context) error {
				_, err := a.service.RunValidationBatch(ctx, pipeline.BatchRequest{Options: validation.DefaultOptions()})
				return err
			},
		})
	}

	return tasks
}
