package clustering

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

var testNow = time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "punctuation stripped", input: "pushpa 2!!", want: "pushpa 2"},
		{name: "lowercased", input: "Pushpa 2", want: "pushpa 2"},
		{name: "whitespace collapsed", input: "  Game\tChanger \n Trailer ", want: "game changer trailer"},
		{name: "hyphen removed", input: "Spider-Man", want: "spiderman"},
		{name: "indic marks kept", input: "पुष्पा 2", want: "पुष्पा 2"},
		{name: "only symbols", input: "!!! ???", want: ""},
		{
			name:  "truncated to 50",
			input: "a very long keyword that keeps going well past the fifty character limit",
			want:  "a very long keyword that keeps going well past the",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKeyword(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeKeyword(%q) = %q, want %q", tt.input, got, tt.want)
			}

			if n := len([]rune(got)); n > domain.MaxClusterKeyLength {
				t.Errorf("key length %d exceeds limit", n)
			}
		})
	}
}

func TestNormalizeKeyword_Concurrent(t *testing.T) {
	inputs := []string{"PUSHPA 2!!", "Game Changer Trailer", "ÉCLAIR Tour"}
	want := []string{"pushpa 2", "game changer trailer", "éclair tour"}

	const workers = 24

	got := make([]string, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got[i] = NormalizeKeyword(inputs[i%len(inputs)])
		}()
	}

	wg.Wait()

	for i, key := range got {
		assert.Equal(t, want[i%len(want)], key)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		recent, older int
		want          domain.TrendDirection
	}{
		{recent: 2, older: 0, want: domain.TrendSpiking},
		{recent: 1, older: 0, want: domain.TrendSpiking},
		{recent: 5, older: 2, want: domain.TrendSpiking},
		{recent: 4, older: 2, want: domain.TrendRising},
		{recent: 3, older: 2, want: domain.TrendRising},
		{recent: 2, older: 2, want: domain.TrendStable},
		{recent: 0, older: 0, want: domain.TrendStable},
		{recent: 1, older: 3, want: domain.TrendFalling},
	}

	for _, tt := range tests {
		if got := Direction(tt.recent, tt.older); got != tt.want {
			t.Errorf("Direction(%d, %d) = %q, want %q", tt.recent, tt.older, got, tt.want)
		}
	}
}

func TestBuild_PushpaScenario(t *testing.T) {
	signals := []domain.TrendSignal{
		{ID: "a", Keyword: "Pushpa 2", NormalizedScore: 90, Timestamp: testNow, Category: domain.CategoryMovies},
		{ID: "b", Keyword: "pushpa 2!!", NormalizedScore: 70, Timestamp: testNow.Add(-time.Hour), RelatedKeywords: []string{"Allu Arjun", "Pushpa 2"}},
	}

	clusters := Build(signals, testNow)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, "pushpa 2", c.ClusterKey)
	assert.InDelta(t, 80, c.AvgScore, 1e-9)
	assert.Equal(t, 2, c.SignalCount)
	assert.Equal(t, domain.TrendSpiking, c.TrendDirection)
	assert.Equal(t, "Pushpa 2", c.PrimaryKeyword)
	assert.Equal(t, []string{"pushpa 2!!", "Allu Arjun", "Pushpa 2"}, c.Keywords)
	assert.Equal(t, domain.CategoryMovies, c.Category)
	assert.Equal(t, testNow, c.LastSignalAt)
}

func TestBuild_DirectionsAndOrdering(t *testing.T) {
	old := testNow.Add(-48 * time.Hour)

	signals := []domain.TrendSignal{
		{ID: "1", Keyword: "Devara", NormalizedScore: 40, Timestamp: old},
		{ID: "2", Keyword: "Devara", NormalizedScore: 60, Timestamp: old.Add(time.Hour)},
		{ID: "3", Keyword: "devara", NormalizedScore: 50, Timestamp: testNow.Add(-2 * time.Hour)},
		{ID: "4", Keyword: "Kalki", NormalizedScore: 10, Timestamp: old, Category: domain.CategoryMovies},
		{ID: "5", Keyword: "Kalki", NormalizedScore: 30, Timestamp: testNow, Category: domain.CategoryBoxOff},
		{ID: "6", Keyword: "   ", NormalizedScore: 99, Timestamp: testNow},
	}

	clusters := Build(signals, testNow)
	require.Len(t, clusters, 2)

	assert.Equal(t, "devara", clusters[0].ClusterKey)
	assert.Equal(t, domain.TrendFalling, clusters[0].TrendDirection)
	assert.InDelta(t, 50, clusters[0].AvgScore, 1e-9)
	assert.Equal(t, "Devara", clusters[0].PrimaryKeyword)
	assert.Equal(t, []string{"Devara", "devara"}, clusters[0].Keywords)
	assert.Empty(t, clusters[0].Category)

	assert.Equal(t, "kalki", clusters[1].ClusterKey)
	assert.Equal(t, domain.TrendStable, clusters[1].TrendDirection)
	assert.Equal(t, domain.CategoryBoxOff, clusters[1].Category, "ties break alphabetically")
}

func TestBuild_Idempotent(t *testing.T) {
	signals := []domain.TrendSignal{
		{ID: "c", Keyword: "Kissik", NormalizedScore: 55, Timestamp: testNow.Add(-30 * time.Hour)},
		{ID: "a", Keyword: "Pushpa 2", NormalizedScore: 90, Timestamp: testNow},
		{ID: "b", Keyword: "KISSIK", NormalizedScore: 65, Timestamp: testNow.Add(-time.Hour)},
		{ID: "d", Keyword: "pushpa-2", NormalizedScore: 20, Timestamp: testNow},
	}

	reversed := make([]domain.TrendSignal, len(signals))
	for i, s := range signals {
		reversed[len(signals)-1-i] = s
	}

	first := Build(signals, testNow)
	second := Build(reversed, testNow)

	assert.Equal(t, first, second)
}

func TestBuild_NoSignals(t *testing.T) {
	assert.Empty(t, Build(nil, testNow))
}
