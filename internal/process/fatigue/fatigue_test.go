package fatigue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports/mocks"
)

var testNow = time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

func posts(n int, title string) []domain.PublishedPost {
	out := make([]domain.PublishedPost, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.PublishedPost{Title: title, PublishedAt: testNow.Add(-time.Hour)})
	}

	return out
}

func TestEvaluate_ScoreAndThreshold(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		wantScore     float64
		wantSaturated bool
	}{
		{name: "none", count: 0, wantScore: 0, wantSaturated: false},
		{name: "two", count: 2, wantScore: 0.3, wantSaturated: false},
		{name: "four", count: 4, wantScore: 0.6, wantSaturated: false},
		{name: "five", count: 5, wantScore: 0.75, wantSaturated: true},
		{name: "capped", count: 10, wantScore: 1, wantSaturated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clusters := []domain.TopicCluster{{ClusterKey: "pushpa 2", PrimaryKeyword: "Pushpa 2"}}

			report := Evaluate(clusters, posts(tt.count, "Pushpa 2 collection update"), Config{})
			require.Len(t, report.Scores, 1)

			s := report.Scores[0]
			assert.Equal(t, tt.count, s.PublishedCount)
			assert.InDelta(t, tt.wantScore, s.Score, 1e-9)
			assert.Equal(t, tt.wantSaturated, s.IsSaturated)
			assert.GreaterOrEqual(t, s.Score, 0.0)
			assert.LessOrEqual(t, s.Score, 1.0)
		})
	}
}

func TestEvaluate_Buckets(t *testing.T) {
	clusters := []domain.TopicCluster{
		{ClusterKey: "pushpa 2", PrimaryKeyword: "Pushpa 2", AvgScore: 90, TrendDirection: domain.TrendSpiking},
		{ClusterKey: "kissik", PrimaryKeyword: "Kissik", AvgScore: 70, TrendDirection: domain.TrendRising},
		{ClusterKey: "devara", PrimaryKeyword: "Devara", AvgScore: 65, TrendDirection: domain.TrendFalling},
		{ClusterKey: "kalki", PrimaryKeyword: "Kalki", AvgScore: 20, TrendDirection: domain.TrendStable},
	}

	published := append(posts(6, "Pushpa 2 box office"), domain.PublishedPost{Title: "Weekend roundup", Tags: []string{"kissik song"}})

	report := Evaluate(clusters, published, Config{UnderservedFloor: 50})

	require.Len(t, report.Saturated, 1)
	assert.Equal(t, "pushpa 2", report.Saturated[0].ClusterKey)
	assert.True(t, report.Saturated[0].IsSaturated)

	require.Len(t, report.Rising, 1)
	assert.Equal(t, "kissik", report.Rising[0].ClusterKey)

	require.Len(t, report.Underserved, 1)
	assert.Equal(t, "devara", report.Underserved[0].ClusterKey)
}

func TestCountMentions(t *testing.T) {
	published := []domain.PublishedPost{
		{Title: "PUSHPA 2 review"},
		{Title: "Other", Tags: []string{"Pushpa 2"}},
		{Title: "Pushpa the rise"},
	}

	assert.Equal(t, 2, CountMentions("pushpa 2", published))
	assert.Equal(t, 0, CountMentions("  ", published))
}

func TestScorer_Run(t *testing.T) {
	clusters := mocks.NewClusterStore()
	clusters.Set(domain.TopicCluster{ClusterKey: "pushpa 2", PrimaryKeyword: "Pushpa 2", AvgScore: 90, TrendDirection: domain.TrendSpiking, LastSignalAt: testNow})
	clusters.Set(domain.TopicCluster{ClusterKey: "old", PrimaryKeyword: "Old", AvgScore: 90, LastSignalAt: testNow.Add(-10 * 24 * time.Hour)})

	store := mocks.NewPostStore()
	store.AddPublished(posts(5, "Pushpa 2 news")...)
	store.AddPublished(domain.PublishedPost{Title: "Pushpa 2 archive", PublishedAt: testNow.Add(-5 * 24 * time.Hour)})

	logger := zerolog.Nop()
	s := NewScorer(clusters, store, Config{}, &logger)
	s.now = func() time.Time { return testNow }

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Scores, 1, "clusters outside the window are not scored")
	assert.Equal(t, 5, report.Scores[0].PublishedCount)

	stored, ok := clusters.Get("pushpa 2")
	require.True(t, ok)
	assert.InDelta(t, 0.75, stored.SaturationScore, 1e-9)
	assert.True(t, stored.IsSaturated)
}
