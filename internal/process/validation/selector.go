package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/process/fatigue"
	"github.com/lueurxax/trendpulse/internal/process/synthesis"
)

const (
	maxHintKeywords     = 5
	maxReferenceURLs    = 3
	referenceLookback   = 3 * 24 * time.Hour
	defaultAutoSelected = 5
)

// BucketSource yields the current fatigue buckets.
type BucketSource interface {
	Buckets(ctx context.Context) (fatigue.Report, error)
}

// TopicSelector picks topics when a batch is triggered without any.
// Rising clusters come first, then underserved ones; saturated clusters never qualify.
type TopicSelector struct {
	buckets    BucketSource
	references ports.ReferenceReader
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewTopicSelector creates a TopicSelector. references may be nil.
func NewTopicSelector(buckets BucketSource, references ports.ReferenceReader, logger *zerolog.Logger) *TopicSelector {
	return &TopicSelector{
		buckets:    buckets,
		references: references,
		now:        time.Now,
		logger:     logger,
	}
}

// Select returns up to limit topic requests with trend hints.
func (s *TopicSelector) Select(ctx context.Context, limit int) ([]TopicRequest, error) {
	if limit <= 0 {
		limit = defaultAutoSelected
	}

	report, err := s.buckets.Buckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("read fatigue buckets: %w", err)
	}

	seen := make(map[string]bool)
	out := make([]TopicRequest, 0, limit)

	for _, group := range [][]domain.TopicCluster{report.Rising, report.Underserved} {
		for _, c := range group {
			if len(out) == limit {
				return out, nil
			}

			if c.IsSaturated || seen[c.ClusterKey] {
				continue
			}

			seen[c.ClusterKey] = true
			out = append(out, s.request(ctx, c))
		}
	}

	return out, nil
}

// TopicsFromClusters converts clusters to requests without reference lookups.
func TopicsFromClusters(clusters []domain.TopicCluster) []TopicRequest {
	out := make([]TopicRequest, 0, len(clusters))

	for _, c := range clusters {
		out = append(out, TopicRequest{Topic: c.PrimaryKeyword, Hint: clusterHint(c)})
	}

	return out
}

func (s *TopicSelector) request(ctx context.Context, c domain.TopicCluster) TopicRequest {
	hint := clusterHint(c)

	if s.references != nil {
		urls, err := s.references.ReferenceURLs(ctx, c.PrimaryKeyword, s.now().Add(-referenceLookback), maxReferenceURLs)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", c.PrimaryKeyword).Msg("reference lookup failed")
		}

		hint.ReferenceURLs = urls
	}

	return TopicRequest{Topic: c.PrimaryKeyword, Hint: hint}
}

func clusterHint(c domain.TopicCluster) synthesis.Hint {
	hint := synthesis.Hint{Category: c.Category}

	for _, kw := range c.Keywords {
		if kw == c.PrimaryKeyword {
			continue
		}

		hint.Keywords = append(hint.Keywords, kw)

		if len(hint.Keywords) == maxHintKeywords {
			break
		}
	}

	return hint
}
