// Package domain defines the core entities shared by the ingestion, clustering,
// imagery, synthesis and validation stages.
package domain

import "time"

// Default windows used across the pipeline.
const (
	SignalRetention     = 7 * 24 * time.Hour
	ClusteringLookback  = 3 * 24 * time.Hour
	RecentSignalWindow  = 24 * time.Hour
	FatigueLookback     = 3 * 24 * time.Hour
	MaxClusterKeyLength = 50
)

// PublishedPost is a piece of already published content, used for saturation
// scoring and as the internal analytics source.
type PublishedPost struct {
	ID          string
	Title       string
	Slug        string
	Tags        []string
	Views       int64
	PublishedAt time.Time
}
