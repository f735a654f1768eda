package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/app"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/platform/config"
	"github.com/lueurxax/trendpulse/internal/process/pipeline"
	"github.com/lueurxax/trendpulse/internal/process/validation"
)

var knownModes = map[string]bool{
	"worker":   true,
	"http":     true,
	"ingest":   true,
	"cluster":  true,
	"fatigue":  true,
	"validate": true,
}

func main() {
	mode := flag.String("mode", "", "Service mode (worker, http, ingest, cluster, fatigue, validate)")

	flag.Parse()

	if !knownModes[*mode] {
		log.Fatalf("Usage: %s --mode=[worker|http|ingest|cluster|fatigue|validate] [topics...]", os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, closeDB, err := app.Bootstrap(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer closeDB()

	if *mode == "worker" {
		// Start health server in background
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, flag.Args(), &logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func runMode(ctx context.Context, application *app.App, mode string, args []string, logger *zerolog.Logger) error {
	svc := application.Service()

	switch mode {
	case "worker":
		return application.RunWorker(ctx)
	case "http":
		return application.RunHTTP(ctx)
	case "ingest":
		return printResult(svc.RunIngestion(ctx))
	case "cluster":
		return printResult(svc.RunClustering(ctx))
	case "fatigue":
		return printResult(svc.RunFatigue(ctx))
	case "validate":
		return printResult(svc.RunValidationBatch(ctx, pipeline.BatchRequest{
			Topics:  args,
			Options: validation.DefaultOptions(),
		}))
	default:
		logger.Error().Str("mode", mode).Msg("unknown mode")

		return fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, mode)
	}
}

func printResult[T any](result T, err error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if encErr := enc.Encode(result); encErr != nil {
		return errors.Join(err, encErr)
	}

	return err
}
