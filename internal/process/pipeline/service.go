// Package pipeline runs the stages of the trend pipeline end to end: ingestion,
// clustering, fatigue scoring, pruning and validated draft batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/core/llm"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/ingest/trends"
	"github.com/lueurxax/trendpulse/internal/platform/config"
	"github.com/lueurxax/trendpulse/internal/process/clustering"
	"github.com/lueurxax/trendpulse/internal/process/fatigue"
	"github.com/lueurxax/trendpulse/internal/process/publish"
	"github.com/lueurxax/trendpulse/internal/process/synthesis"
	"github.com/lueurxax/trendpulse/internal/process/validation"
)

const sourceStatsWindow = 24 * time.Hour

// PostStore is the posts table as seen by the pipeline.
type PostStore interface {
	ports.PublishedReader
	ports.DraftInserter
}

// Dependencies are the adapters a Service runs on.
type Dependencies struct {
	Signals  ports.SignalStore
	Clusters ports.ClusterStore
	Posts    PostStore

	Fetchers []trends.Fetcher

	// Generator may be nil, in which case every draft is a template fallback.
	Generator llm.Generator

	// Images may be nil, in which case drafts carry no image.
	Images synthesis.ImageSelector
}

// IngestionReport is the outcome of one ingestion run followed by re-clustering.
type IngestionReport struct {
	Counts     map[domain.SignalSource]int   `json:"counts"`
	Sources    []trends.SourceResult         `json:"sources"`
	Stored     int                           `json:"stored"`
	Clusters   int                           `json:"clusters"`
	Directions map[domain.TrendDirection]int `json:"directions"`
	Duration   time.Duration                 `json:"duration"`
}

// BatchRequest triggers a validation batch. Empty Topics selects topics from
// the fatigue buckets.
type BatchRequest struct {
	Topics  []string
	Limit   int
	Options validation.Options
}

// BatchReport is a validation batch with the ids of the stored drafts.
type BatchReport struct {
	validation.Result
	AutoSelected bool     `json:"auto_selected"`
	PostIDs      []string `json:"post_ids"`
}

// Service runs the pipeline operations over a set of adapters.
type Service struct {
	cfg       *config.Config
	deps      Dependencies
	ingestor  *trends.Ingestor
	clusterer *clustering.Engine
	scorer    *fatigue.Scorer
	pruner    *trends.Pruner
	selector  *validation.TopicSelector
	pipeline  *validation.Pipeline
	publisher *publish.Publisher
	logger    *zerolog.Logger
}

// NewService wires the pipeline stages over deps.
func NewService(cfg *config.Config, deps Dependencies, logger *zerolog.Logger) *Service {
	scorer := fatigue.NewScorer(deps.Clusters, deps.Posts, fatigue.Config{
		PublishedLookback: cfg.FatigueLookback(),
		ClusterWindow:     cfg.ClusteringLookback(),
		PerPostWeight:     cfg.FatiguePerPostWeight,
		UnderservedFloor:  cfg.UnderservedScoreFloor,
	}, logger)

	synth := synthesis.NewSynthesizer(deps.Generator, deps.Images, synthesis.Config{
		FallbackConfidence: cfg.FallbackConfidence,
		GenerateTimeout:    cfg.LLMTimeout,
	}, logger)

	return &Service{
		cfg:       cfg,
		deps:      deps,
		ingestor:  trends.NewIngestor(deps.Fetchers, deps.Signals, cfg.FetcherTimeout, logger),
		clusterer: clustering.NewEngine(deps.Signals, deps.Clusters, cfg.ClusteringLookback(), logger),
		scorer:    scorer,
		pruner:    trends.NewPruner(deps.Signals, cfg.SignalRetention(), logger),
		selector:  validation.NewTopicSelector(scorer, deps.Signals, logger),
		pipeline: validation.NewPipeline(synth, validation.Config{
			MinConfidence: cfg.MinConfidence,
			MinBodyLength: cfg.MinBodyLength,
			AllowFallback: cfg.AllowFallbackDrafts,
			Concurrency:   cfg.ValidationConcurrency,
			BatchTimeout:  cfg.ValidationTimeout,
		}, logger),
		publisher: publish.NewPublisher(deps.Posts, cfg.SlugRetryAttempts, logger),
		logger:    logger,
	}
}

// RunIngestion fetches from every source, stores the signals and re-clusters
// within cfg.IngestionTimeout. Source failures are reported per source; storage
// failures are returned.
func (s *Service) RunIngestion(ctx context.Context) (IngestionReport, error) {
	start := time.Now()

	if s.cfg.IngestionTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.IngestionTimeout)
		defer cancel()
	}

	res, err := s.ingestor.Run(ctx)
	if err != nil {
		return IngestionReport{}, fmt.Errorf("ingest signals: %w", err)
	}

	clusters, err := s.clusterer.Run(ctx)
	if err != nil {
		return IngestionReport{}, fmt.Errorf("cluster signals: %w", err)
	}

	report := IngestionReport{
		Counts:     res.Counts(),
		Sources:    res.Sources,
		Stored:     res.Stored,
		Clusters:   clusters.ClusterCount(),
		Directions: clusters.ByDirection,
		Duration:   time.Since(start),
	}

	s.logger.Info().
		Int("stored", report.Stored).
		Int("clusters", report.Clusters).
		Dur("duration", report.Duration).
		Msg("ingestion run completed")

	return report, nil
}

// RunClustering rebuilds clusters from stored signals.
func (s *Service) RunClustering(ctx context.Context) (clustering.Result, error) {
	res, err := s.clusterer.Run(ctx)
	if err != nil {
		return clustering.Result{}, fmt.Errorf("cluster signals: %w", err)
	}

	return res, nil
}

// RunFatigue scores and persists cluster saturation.
func (s *Service) RunFatigue(ctx context.Context) (fatigue.Report, error) {
	report, err := s.scorer.Run(ctx)
	if err != nil {
		return fatigue.Report{}, fmt.Errorf("score fatigue: %w", err)
	}

	return report, nil
}

// FatigueBuckets scores saturation without persisting it.
func (s *Service) FatigueBuckets(ctx context.Context) (fatigue.Report, error) {
	report, err := s.scorer.Buckets(ctx)
	if err != nil {
		return fatigue.Report{}, fmt.Errorf("fatigue buckets: %w", err)
	}

	return report, nil
}

// RunPrune deletes signals past the retention window.
func (s *Service) RunPrune(ctx context.Context) (int64, error) {
	return s.pruner.Prune(ctx) //nolint:wrapcheck // pruner wraps
}

// RunValidationBatch synthesizes and validates drafts for the requested topics
// and stores the accepted ones. When the store fails the batch result is
// still returned alongside the error.
func (s *Service) RunValidationBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.ValidationTopicLimit
	}

	opts := req.Options
	opts.Limit = limit

	topics := cleanTopics(req.Topics)
	report := BatchReport{}

	var reqs []validation.TopicRequest

	if len(topics) == 0 {
		selected, err := s.selector.Select(ctx, limit)
		if err != nil {
			return report, fmt.Errorf("select topics: %w", err)
		}

		reqs = selected
		report.AutoSelected = true
	} else {
		reqs = make([]validation.TopicRequest, 0, len(topics))
		for _, t := range topics {
			reqs = append(reqs, validation.TopicRequest{Topic: t})
		}
	}

	report.Result = s.pipeline.Run(ctx, reqs, opts)

	if len(report.Successful) == 0 {
		return report, nil
	}

	drafts := make([]domain.PublishableDraft, 0, len(report.Successful))
	for _, ok := range report.Successful {
		drafts = append(drafts, ok.Draft)
	}

	ids, err := s.publisher.Publish(ctx, drafts)
	if err != nil {
		return report, fmt.Errorf("publish drafts: %w", err)
	}

	report.PostIDs = ids

	return report, nil
}

// Clusters reads the cluster read model. A query without a window reads the
// clustering lookback.
func (s *Service) Clusters(ctx context.Context, q domain.ClusterQuery) ([]domain.TopicCluster, error) {
	if q.Since.IsZero() {
		q.Since = time.Now().Add(-s.cfg.ClusteringLookback())
	}

	clusters, err := s.deps.Clusters.ListClusters(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	return clusters, nil
}

// SourceStats summarizes the last day of signals per source.
func (s *Service) SourceStats(ctx context.Context) ([]domain.SourceStat, error) {
	stats, err := s.deps.Signals.SourceStats(ctx, time.Now().Add(-sourceStatsWindow))
	if err != nil {
		return nil, fmt.Errorf("source stats: %w", err)
	}

	return stats, nil
}

// Sources lists the enabled signal sources.
func (s *Service) Sources() []domain.SignalSource {
	out := make([]domain.SignalSource, 0, len(s.deps.Fetchers))

	for _, f := range s.deps.Fetchers {
		if f.Enabled() {
			out = append(out, f.Source())
		}
	}

	return out
}

// IsConflict reports whether err came from a slug collision that survived retries.
func IsConflict(err error) bool {
	return errors.Is(err, apperrors.ErrPersistenceConflict)
}

func cleanTopics(topics []string) []string {
	out := make([]string, 0, len(topics))

	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}

	return out
}
