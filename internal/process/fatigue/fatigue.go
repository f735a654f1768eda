// Package fatigue scores how much recently published content already covers
// each active topic cluster and sorts clusters into saturated, rising and
// underserved buckets.
package fatigue

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

// Bucket names.
const (
	BucketSaturated   = "saturated"
	BucketRising      = "rising"
	BucketUnderserved = "underserved"
)

const (
	defaultPerPostWeight    = 0.15
	defaultUnderservedFloor = 50.0
)

// Config tunes the scorer.
type Config struct {
	// PublishedLookback is how far back published posts are counted.
	PublishedLookback time.Duration
	// ClusterWindow selects clusters with a signal inside the window.
	ClusterWindow    time.Duration
	PerPostWeight    float64
	UnderservedFloor float64
}

func (c Config) withDefaults() Config {
	if c.PublishedLookback <= 0 {
		c.PublishedLookback = domain.FatigueLookback
	}

	if c.ClusterWindow <= 0 {
		c.ClusterWindow = domain.ClusteringLookback
	}

	if c.PerPostWeight <= 0 {
		c.PerPostWeight = defaultPerPostWeight
	}

	if c.UnderservedFloor <= 0 {
		c.UnderservedFloor = defaultUnderservedFloor
	}

	return c
}

// Report holds the scored clusters and their buckets. Rising and underserved
// may overlap; saturated clusters are in neither.
type Report struct {
	Saturated   []domain.TopicCluster `json:"saturated"`
	Rising      []domain.TopicCluster `json:"rising"`
	Underserved []domain.TopicCluster `json:"underserved"`
	Scores      []domain.Saturation   `json:"scores"`
}

// Evaluate scores clusters against published posts. Cluster order is preserved
// within each bucket.
func Evaluate(clusters []domain.TopicCluster, posts []domain.PublishedPost, cfg Config) Report {
	cfg = cfg.withDefaults()

	report := Report{Scores: make([]domain.Saturation, 0, len(clusters))}

	for _, c := range clusters {
		count := CountMentions(c.PrimaryKeyword, posts)
		score := math.Min(1, float64(count)*cfg.PerPostWeight)
		saturated := score > domain.SaturationThreshold

		c.SaturationScore = score
		c.IsSaturated = saturated

		report.Scores = append(report.Scores, domain.Saturation{
			ClusterKey:     c.ClusterKey,
			PublishedCount: count,
			Score:          score,
			IsSaturated:    saturated,
		})

		if saturated {
			report.Saturated = append(report.Saturated, c)

			continue
		}

		if c.IsGrowing() {
			report.Rising = append(report.Rising, c)
		}

		if count == 0 && c.AvgScore >= cfg.UnderservedFloor {
			report.Underserved = append(report.Underserved, c)
		}
	}

	return report
}

// CountMentions counts posts whose title or tags contain keyword, case-insensitively.
func CountMentions(keyword string, posts []domain.PublishedPost) int {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return 0
	}

	count := 0

	for _, p := range posts {
		if mentions(p, needle) {
			count++
		}
	}

	return count
}

func mentions(p domain.PublishedPost, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}

	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}

	return false
}

// clusterStore is the part of ports.ClusterStore the scorer needs.
type clusterStore interface {
	ports.ClusterReader
	ports.SaturationWriter
}

// Scorer evaluates active clusters against the posts store.
type Scorer struct {
	clusters clusterStore
	posts    ports.PublishedReader
	cfg      Config
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewScorer creates a fatigue scorer.
func NewScorer(clusters clusterStore, posts ports.PublishedReader, cfg Config, logger *zerolog.Logger) *Scorer {
	return &Scorer{
		clusters: clusters,
		posts:    posts,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// Buckets computes the report without persisting scores.
func (s *Scorer) Buckets(ctx context.Context) (Report, error) {
	now := s.now().UTC()

	clusters, err := s.clusters.ActiveClusters(ctx, now.Add(-s.cfg.ClusterWindow))
	if err != nil {
		return Report{}, fmt.Errorf("active clusters: %w", err)
	}

	posts, err := s.posts.RecentPublished(ctx, now.Add(-s.cfg.PublishedLookback))
	if err != nil {
		return Report{}, fmt.Errorf("recent published: %w", err)
	}

	return Evaluate(clusters, posts, s.cfg), nil
}

// Run computes the report and persists saturation scores.
func (s *Scorer) Run(ctx context.Context) (Report, error) {
	report, err := s.Buckets(ctx)
	if err != nil {
		return Report{}, err
	}

	if len(report.Scores) > 0 {
		if err := s.clusters.UpdateSaturation(ctx, report.Scores); err != nil {
			return Report{}, fmt.Errorf("update saturation: %w", err)
		}
	}

	observability.FatigueBuckets.WithLabelValues(BucketSaturated).Set(float64(len(report.Saturated)))
	observability.FatigueBuckets.WithLabelValues(BucketRising).Set(float64(len(report.Rising)))
	observability.FatigueBuckets.WithLabelValues(BucketUnderserved).Set(float64(len(report.Underserved)))

	s.logger.Info().
		Int("clusters", len(report.Scores)).
		Int(BucketSaturated, len(report.Saturated)).
		Int(BucketRising, len(report.Rising)).
		Int(BucketUnderserved, len(report.Underserved)).
		Msg("fatigue scoring complete")

	return report, nil
}
