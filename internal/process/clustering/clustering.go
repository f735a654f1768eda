// Package clustering groups recent trend signals by normalized keyword into
// topic clusters with an average score and a trend direction.
package clustering

import (
	"sort"
	"strings"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// Build aggregates signals into clusters as of now. The output is sorted by
// cluster key and depends only on the inputs, so repeated runs over the same
// signals produce identical clusters.
func Build(signals []domain.TrendSignal, now time.Time) []domain.TopicCluster {
	groups := make(map[string][]domain.TrendSignal)

	for _, s := range signals {
		key := NormalizeKeyword(s.Keyword)
		if key == "" {
			continue
		}

		groups[key] = append(groups[key], s)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	clusters := make([]domain.TopicCluster, 0, len(keys))
	for _, k := range keys {
		clusters = append(clusters, buildCluster(k, groups[k], now))
	}

	return clusters
}

func buildCluster(key string, members []domain.TrendSignal, now time.Time) domain.TopicCluster {
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].Timestamp.Equal(members[j].Timestamp) {
			return members[i].Timestamp.Before(members[j].Timestamp)
		}

		return members[i].ID < members[j].ID
	})

	var (
		sum    float64
		last   time.Time
		recent int
		best   = members[0]
	)

	recentSince := now.Add(-domain.RecentSignalWindow)

	for _, m := range members {
		sum += m.NormalizedScore

		if m.NormalizedScore > best.NormalizedScore {
			best = m
		}

		if m.Timestamp.After(last) {
			last = m.Timestamp
		}

		if !m.Timestamp.Before(recentSince) {
			recent++
		}
	}

	return domain.TopicCluster{
		ClusterKey:     key,
		PrimaryKeyword: strings.TrimSpace(best.Keyword),
		Keywords:       unionKeywords(members),
		AvgScore:       sum / float64(len(members)),
		SignalCount:    len(members),
		TrendDirection: Direction(recent, len(members)-recent),
		Category:       dominantCategory(members),
		LastSignalAt:   last,
		UpdatedAt:      now,
	}
}

// Direction compares signal counts in the recent window against the older rest.
// A cluster with only recent signals counts as spiking.
func Direction(recent, older int) domain.TrendDirection {
	switch {
	case recent > 2*older:
		return domain.TrendSpiking
	case recent > older:
		return domain.TrendRising
	case recent < older:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

func unionKeywords(members []domain.TrendSignal) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(members))

	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			return
		}

		seen[kw] = true
		out = append(out, kw)
	}

	for _, m := range members {
		add(m.Keyword)

		for _, rk := range m.RelatedKeywords {
			add(rk)
		}
	}

	return out
}

// dominantCategory picks the most frequent category; ties go to the
// alphabetically first one.
func dominantCategory(members []domain.TrendSignal) string {
	counts := make(map[string]int)

	for _, m := range members {
		if m.Category != "" {
			counts[m.Category]++
		}
	}

	var (
		best      string
		bestCount int
	)

	for c, n := range counts {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}

	return best
}
