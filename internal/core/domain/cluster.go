package domain

import "time"

// TrendDirection classifies how a cluster's activity is moving.
type TrendDirection string

// Trend directions.
const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
	TrendSpiking TrendDirection = "spiking"
)

// SaturationThreshold is the saturation score above which a cluster is saturated.
const SaturationThreshold = 0.7

// TopicCluster aggregates TrendSignals that share a normalized keyword.
type TopicCluster struct {
	ClusterKey      string
	PrimaryKeyword  string
	Keywords        []string
	AvgScore        float64
	SignalCount     int
	TrendDirection  TrendDirection
	Category        string
	SaturationScore float64
	IsSaturated     bool
	LastSignalAt    time.Time
	UpdatedAt       time.Time
}

// IsGrowing reports whether the cluster is rising or spiking.
func (c TopicCluster) IsGrowing() bool {
	return c.TrendDirection == TrendRising || c.TrendDirection == TrendSpiking
}

// Saturation is the fatigue scorer's output for one cluster.
type Saturation struct {
	ClusterKey     string
	PublishedCount int
	Score          float64
	IsSaturated    bool
}

// ClusterQuery filters the cluster read model. Zero fields do not filter.
type ClusterQuery struct {
	Since     time.Time
	Direction TrendDirection
	Category  string
	MinScore  float64
	Limit     int
}
