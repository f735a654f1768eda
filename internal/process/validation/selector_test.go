package validation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports/mocks"
	"github.com/lueurxax/trendpulse/internal/process/fatigue"
)

type stubBuckets struct {
	report fatigue.Report
	err    error
}

func (s stubBuckets) Buckets(context.Context) (fatigue.Report, error) {
	return s.report, s.err
}

func TestTopicSelector_Select(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	signals := mocks.NewSignalStore()
	signals.Add(
		domain.TrendSignal{Keyword: "Devara", ReferenceURL: "https://news.example/devara-1", Timestamp: now.Add(-time.Hour)},
		domain.TrendSignal{Keyword: "devara", ReferenceURL: "https://news.example/devara-2", Timestamp: now.Add(-2 * time.Hour)},
		domain.TrendSignal{Keyword: "Devara", ReferenceURL: "https://news.example/old", Timestamp: now.Add(-10 * 24 * time.Hour)},
	)

	report := fatigue.Report{
		Rising: []domain.TopicCluster{
			{ClusterKey: "devara", PrimaryKeyword: "Devara", Keywords: []string{"Devara", "devara trailer", "ntr"}, Category: domain.CategoryMovies},
			{ClusterKey: "coolie", PrimaryKeyword: "Coolie"},
		},
		Underserved: []domain.TopicCluster{
			{ClusterKey: "devara", PrimaryKeyword: "Devara"},
			{ClusterKey: "kanguva", PrimaryKeyword: "Kanguva"},
			{ClusterKey: "thandel", PrimaryKeyword: "Thandel"},
		},
	}

	logger := zerolog.Nop()
	s := NewTopicSelector(stubBuckets{report: report}, signals, &logger)
	s.now = func() time.Time { return now }

	got, err := s.Select(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Devara", got[0].Topic)
	assert.Equal(t, []string{"devara trailer", "ntr"}, got[0].Hint.Keywords)
	assert.Equal(t, domain.CategoryMovies, got[0].Hint.Category)
	assert.Equal(t, []string{"https://news.example/devara-1", "https://news.example/devara-2"}, got[0].Hint.ReferenceURLs)
	assert.Equal(t, "Coolie", got[1].Topic)
	assert.Equal(t, "Kanguva", got[2].Topic)
}

func TestTopicSelector_BucketError(t *testing.T) {
	logger := zerolog.Nop()
	s := NewTopicSelector(stubBuckets{err: mocks.ErrMockFailure}, nil, &logger)

	_, err := s.Select(context.Background(), 0)
	require.ErrorIs(t, err, mocks.ErrMockFailure)
}

func TestTopicsFromClusters(t *testing.T) {
	got := TopicsFromClusters([]domain.TopicCluster{{PrimaryKeyword: "Pushpa 2", Keywords: []string{"Pushpa 2", "pushpa 2 collection"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "Pushpa 2", got[0].Topic)
	assert.Equal(t, []string{"pushpa 2 collection"}, got[0].Hint.Keywords)
}
