package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// ClusterStore is a thread-safe in-memory implementation of ports.ClusterStore.
type ClusterStore struct {
	mu       sync.RWMutex
	clusters map[string]domain.TopicCluster
	upserts  int

	// UpsertClustersFn allows overriding UpsertClusters behavior.
	UpsertClustersFn func(ctx context.Context, clusters []domain.TopicCluster) error
}

// NewClusterStore creates a new mock cluster store.
func NewClusterStore() *ClusterStore {
	return &ClusterStore{clusters: make(map[string]domain.TopicCluster)}
}

// UpsertClusters replaces aggregate fields and keeps saturation fields of existing clusters.
func (s *ClusterStore) UpsertClusters(ctx context.Context, clusters []domain.TopicCluster) error {
	if s.UpsertClustersFn != nil {
		return s.UpsertClustersFn(ctx, clusters)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++

	for _, c := range clusters {
		if existing, ok := s.clusters[c.ClusterKey]; ok {
			c.SaturationScore = existing.SaturationScore
			c.IsSaturated = existing.IsSaturated
		}

		s.clusters[c.ClusterKey] = c
	}

	return nil
}

// ActiveClusters returns clusters whose last signal is at or after since, sorted by avg score.
func (s *ClusterStore) ActiveClusters(_ context.Context, since time.Time) ([]domain.TopicCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TopicCluster, 0, len(s.clusters))

	for _, c := range s.clusters {
		if !c.LastSignalAt.IsZero() && c.LastSignalAt.Before(since) {
			continue
		}

		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore > out[j].AvgScore
		}

		return out[i].ClusterKey < out[j].ClusterKey
	})

	return out, nil
}

// ListClusters applies the query filters over ActiveClusters ordering.
func (s *ClusterStore) ListClusters(ctx context.Context, q domain.ClusterQuery) ([]domain.TopicCluster, error) {
	all, err := s.ActiveClusters(ctx, q.Since)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TopicCluster, 0, len(all))

	for _, c := range all {
		if q.Direction != "" && c.TrendDirection != q.Direction {
			continue
		}

		if q.Category != "" && c.Category != q.Category {
			continue
		}

		if c.AvgScore < q.MinScore {
			continue
		}

		out = append(out, c)

		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}

	return out, nil
}

// UpdateSaturation stores saturation fields for known clusters.
func (s *ClusterStore) UpdateSaturation(_ context.Context, scores []domain.Saturation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range scores {
		c, ok := s.clusters[sc.ClusterKey]
		if !ok {
			continue
		}

		c.SaturationScore = sc.Score
		c.IsSaturated = sc.IsSaturated
		s.clusters[sc.ClusterKey] = c
	}

	return nil
}

// Set stores a cluster directly.
func (s *ClusterStore) Set(c domain.TopicCluster) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clusters[c.ClusterKey] = c
}

// Get returns a stored cluster.
func (s *ClusterStore) Get(key string) (domain.TopicCluster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clusters[key]

	return c, ok
}

// UpsertCalls returns how many times UpsertClusters ran.
func (s *ClusterStore) UpsertCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.upserts
}
