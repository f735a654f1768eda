// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// SignalWriter appends trend signals. Writes are upserts keyed by signal id.
type SignalWriter interface {
	SaveSignals(ctx context.Context, signals []domain.TrendSignal) (int, error)
}

// SignalReader reads a point-in-time snapshot of signals.
// Only signals with a timestamp at or after since and ingested at or before asOf are returned.
type SignalReader interface {
	RecentSignals(ctx context.Context, since, asOf time.Time) ([]domain.TrendSignal, error)
}

// SignalPruner removes signals older than the retention window.
type SignalPruner interface {
	PruneSignals(ctx context.Context, olderThan time.Time) (int64, error)
}

// ReferenceReader finds pages where a keyword was recently observed.
type ReferenceReader interface {
	ReferenceURLs(ctx context.Context, keyword string, since time.Time, limit int) ([]string, error)
}

// SourceStatsReader summarizes recent signals per source.
type SourceStatsReader interface {
	SourceStats(ctx context.Context, since time.Time) ([]domain.SourceStat, error)
}

// SignalStore combines signal operations.
type SignalStore interface {
	SignalWriter
	SignalReader
	SignalPruner
	ReferenceReader
	SourceStatsReader
}

// ClusterWriter upserts clusters keyed by cluster key.
type ClusterWriter interface {
	UpsertClusters(ctx context.Context, clusters []domain.TopicCluster) error
}

// ClusterReader lists clusters whose last signal is at or after since.
type ClusterReader interface {
	ActiveClusters(ctx context.Context, since time.Time) ([]domain.TopicCluster, error)
}

// ClusterLister is the cluster read model, sorted by average score descending.
type ClusterLister interface {
	ListClusters(ctx context.Context, q domain.ClusterQuery) ([]domain.TopicCluster, error)
}

// SaturationWriter persists fatigue scores.
type SaturationWriter interface {
	UpdateSaturation(ctx context.Context, scores []domain.Saturation) error
}

// ClusterStore combines cluster operations.
type ClusterStore interface {
	ClusterWriter
	ClusterReader
	ClusterLister
	SaturationWriter
}

// PublishedReader reads already published content.
type PublishedReader interface {
	RecentPublished(ctx context.Context, since time.Time) ([]domain.PublishedPost, error)
	TopViewedPosts(ctx context.Context, since time.Time, limit int) ([]domain.PublishedPost, error)
}

// DraftInserter is the persistence boundary for validated drafts.
// A unique slug violation must be reported as errors.ErrPersistenceConflict and
// must leave no draft of the batch inserted.
type DraftInserter interface {
	InsertDrafts(ctx context.Context, drafts []domain.PublishableDraft) ([]string, error)
}
