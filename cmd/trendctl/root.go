package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/trendpulse/internal/app"
	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/platform/config"
	"github.com/lueurxax/trendpulse/internal/process/pipeline"
	"github.com/lueurxax/trendpulse/internal/process/validation"
)

type runFunc func(ctx context.Context, svc *pipeline.Service, out io.Writer) error

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trendctl",
		Short: "Operate the trend pipeline from the command line",
		Long: `trendctl runs single pipeline stages against the configured database.

Examples:
  # Fetch every source and re-cluster
  trendctl ingest

  # Draft and validate two topics without auto-selection
  trendctl validate "Devara" "Coolie trailer" --verbose

  # Show rising clusters
  trendctl clusters --direction rising --limit 10`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newIngestCmd(),
		newClusterCmd(),
		newFatigueCmd(),
		newPruneCmd(),
		newValidateCmd(),
		newClustersCmd(),
		newSourcesCmd(),
	)

	return rootCmd
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch signals from every source and re-cluster",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			res, err := svc.RunIngestion(ctx)

			return writeJSON(out, res, err)
		}),
	}
}

func newClusterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster",
		Short: "Rebuild clusters from stored signals",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			res, err := svc.RunClustering(ctx)

			return writeJSON(out, res, err)
		}),
	}
}

func newFatigueCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fatigue",
		Short: "Score cluster saturation against published posts",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			if dryRun {
				res, err := svc.FatigueBuckets(ctx)

				return writeJSON(out, res, err)
			}

			res, err := svc.RunFatigue(ctx)

			return writeJSON(out, res, err)
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute buckets without storing scores")

	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete signals past the retention window",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			n, err := svc.RunPrune(ctx)

			return writeJSON(out, map[string]int64{"pruned": n}, err)
		}),
	}
}

func newValidateCmd() *cobra.Command {
	var (
		limit           int
		verbose         bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "validate [topics...]",
		Short: "Draft, validate and store content for topics",
		Long:  "Without topics, rising and underserved clusters are selected automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := validation.DefaultOptions()
			opts.Verbose = verbose
			opts.ContinueOnError = continueOnError

			return withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
				res, err := svc.RunValidationBatch(ctx, pipeline.BatchRequest{
					Topics:  args,
					Limit:   limit,
					Options: opts,
				})

				return writeJSON(out, res, err)
			})(cmd, args)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum topics to process (default from config)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every state transition")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "keep going after a rejected topic")

	return cmd
}

func newClustersCmd() *cobra.Command {
	var (
		direction  string
		category   string
		minScore   float64
		limit      int
		sinceHours int
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "List clusters by average score",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			q := domain.ClusterQuery{
				Direction: domain.TrendDirection(direction),
				Category:  category,
				MinScore:  minScore,
				Limit:     limit,
			}

			if sinceHours > 0 {
				q.Since = time.Now().Add(-time.Duration(sinceHours) * time.Hour)
			}

			res, err := svc.Clusters(ctx, q)

			return writeJSON(out, res, err)
		}),
	}

	cmd.Flags().StringVar(&direction, "direction", "", "rising, falling, stable or spiking")
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum average score")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum clusters")
	cmd.Flags().IntVar(&sinceHours, "since-hours", 0, "only clusters with a signal in the last N hours (0 uses the clustering lookback)")

	return cmd
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show enabled sources and their last day of signals",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc *pipeline.Service, out io.Writer) error {
			stats, err := svc.SourceStats(ctx)

			return writeJSON(out, map[string]any{"enabled": svc.Sources(), "stats": stats}, err)
		}),
	}
}

func withService(run runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := app.NewLogger(cfg.AppEnv).Level(zerolog.WarnLevel)

		application, closeDB, err := app.Bootstrap(cmd.Context(), cfg, &logger)
		if err != nil {
			return err //nolint:wrapcheck // bootstrap wraps
		}
		defer closeDB()

		return run(cmd.Context(), application.Service(), cmd.OutOrStdout())
	}
}

// writeJSON prints result even when err is set, so partial batches stay visible.
func writeJSON[T any](out io.Writer, result T, err error) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if encErr := enc.Encode(result); encErr != nil {
		return errors.Join(err, encErr)
	}

	return err
}
