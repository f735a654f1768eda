package admin

import (
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

type clusterView struct {
	ClusterKey      string    `json:"cluster_key"`
	PrimaryKeyword  string    `json:"primary_keyword"`
	Keywords        []string  `json:"keywords"`
	AvgScore        float64   `json:"avg_score"`
	SignalCount     int       `json:"signal_count"`
	TrendDirection  string    `json:"trend_direction"`
	Category        string    `json:"category"`
	SaturationScore float64   `json:"saturation_score"`
	IsSaturated     bool      `json:"is_saturated"`
	LastSignalAt    time.Time `json:"last_signal_at"`
}

func toClusterViews(clusters []domain.TopicCluster) []clusterView {
	out := make([]clusterView, 0, len(clusters))

	for _, c := range clusters {
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}

		out = append(out, clusterView{
			ClusterKey:      c.ClusterKey,
			PrimaryKeyword:  c.PrimaryKeyword,
			Keywords:        keywords,
			AvgScore:        c.AvgScore,
			SignalCount:     c.SignalCount,
			TrendDirection:  string(c.TrendDirection),
			Category:        c.Category,
			SaturationScore: c.SaturationScore,
			IsSaturated:     c.IsSaturated,
			LastSignalAt:    c.LastSignalAt,
		})
	}

	return out
}
