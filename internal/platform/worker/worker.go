// Package worker runs the periodic jobs of the trend pipeline: ingestion,
// fatigue scoring, signal pruning and draft validation.
//
// Each task runs on its own ticker in its own goroutine, so a slow task delays
// only its own next run. Task errors and panics are logged and never stop the loop.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// Task is a job triggered by a ticker.
type Task struct {
	Name     string
	Interval time.Duration

	// Timeout bounds a single run (0 for none).
	Timeout time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool

	Run func(ctx context.Context) error
}

// Config configures a worker loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	Tasks []Task

	// OnStart is called once when the loop starts.
	OnStart func(ctx context.Context)

	// OnStop is called once when the loop exits.
	OnStop func()

	Logger *zerolog.Logger
}

// Loop runs every task with a positive interval until ctx is canceled and
// returns the wrapped context error.
func Loop(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Int("tasks", len(cfg.Tasks)).Msg("starting worker loop")

	if cfg.OnStart != nil {
		cfg.OnStart(ctx)
	}

	defer func() {
		if cfg.OnStop != nil {
			cfg.OnStop()
		}

		logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")
	}()

	g, gctx := errgroup.WithContext(ctx)

	for _, task := range cfg.Tasks {
		if task.Interval <= 0 || task.Run == nil {
			logger.Warn().Str(logFieldTask, task.Name).Msg("task has no interval, skipping")

			continue
		}

		g.Go(func() error {
			return runTask(gctx, task, logger)
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks only return on cancellation

	<-ctx.Done()

	return fmt.Errorf("worker loop %s: %w", cfg.Name, ctx.Err())
}

func runTask(ctx context.Context, task Task, logger *zerolog.Logger) error {
	if task.RunOnStart {
		RunOnce(ctx, task, logger)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("task %s: %w", task.Name, ctx.Err())
		case <-ticker.C:
			RunOnce(ctx, task, logger)
		}
	}
}

// RunOnce executes a task a single time, applying its timeout and logging its
// outcome. Panics are recovered.
func RunOnce(ctx context.Context, task Task, logger *zerolog.Logger) {
	logger = getLogger(logger)

	defer RecoverPanic(logger, task.Name)

	start := time.Now()

	var err error

	if task.Timeout > 0 {
		err = RunWithTimeout(ctx, task.Timeout, task.Run)
	} else {
		err = task.Run(ctx)
	}

	if err != nil {
		logger.Error().Err(err).Str(logFieldTask, task.Name).Dur("duration", time.Since(start)).Msg("task failed")

		return
	}

	logger.Debug().Str(logFieldTask, task.Name).Dur("duration", time.Since(start)).Msg("task completed")
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		getLogger(logger).Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
