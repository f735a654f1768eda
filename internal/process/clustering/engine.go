package clustering

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

// Result summarizes one clustering run.
type Result struct {
	Signals     int                          `json:"signals"`
	Clusters    []domain.TopicCluster        `json:"-"`
	ByDirection map[domain.TrendDirection]int `json:"by_direction"`
	Duration    time.Duration                `json:"duration"`
}

// ClusterCount returns the number of clusters produced.
func (r Result) ClusterCount() int {
	return len(r.Clusters)
}

// Engine reads a snapshot of recent signals and upserts the derived clusters.
type Engine struct {
	signals  ports.SignalReader
	clusters ports.ClusterWriter
	lookback time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewEngine creates a clustering engine. A zero lookback uses domain.ClusteringLookback.
func NewEngine(signals ports.SignalReader, clusters ports.ClusterWriter, lookback time.Duration, logger *zerolog.Logger) *Engine {
	if lookback <= 0 {
		lookback = domain.ClusteringLookback
	}

	return &Engine{
		signals:  signals,
		clusters: clusters,
		lookback: lookback,
		logger:   logger,
		now:      time.Now,
	}
}

// Run clusters the signals of the lookback window that were ingested before the
// run started. Zero signals yield zero clusters and no error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runAt := e.now().UTC()

	signals, err := e.signals.RecentSignals(ctx, runAt.Add(-e.lookback), runAt)
	if err != nil {
		return Result{}, fmt.Errorf("read signal snapshot: %w", err)
	}

	clusters := Build(signals, runAt)

	if len(clusters) > 0 {
		if err := e.clusters.UpsertClusters(ctx, clusters); err != nil {
			return Result{}, fmt.Errorf("upsert clusters: %w", err)
		}
	}

	res := Result{
		Signals:     len(signals),
		Clusters:    clusters,
		ByDirection: countDirections(clusters),
		Duration:    time.Since(start),
	}

	observability.ClusteringDuration.Observe(res.Duration.Seconds())
	observability.ClustersActive.Set(float64(len(clusters)))

	for _, d := range []domain.TrendDirection{domain.TrendRising, domain.TrendFalling, domain.TrendStable, domain.TrendSpiking} {
		observability.ClustersByDirection.WithLabelValues(string(d)).Set(float64(res.ByDirection[d]))
	}

	e.logger.Info().
		Int("signals", res.Signals).
		Int("clusters", len(clusters)).
		Dur("duration", res.Duration).
		Msg("clustering run complete")

	return res, nil
}

func countDirections(clusters []domain.TopicCluster) map[domain.TrendDirection]int {
	out := make(map[domain.TrendDirection]int, 4)
	for _, c := range clusters {
		out[c.TrendDirection]++
	}

	return out
}
