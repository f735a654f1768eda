package domain

import "time"

// SignalSource identifies the fetcher a TrendSignal came from.
type SignalSource string

// Signal sources.
const (
	SourceMovieDB           SignalSource = "movie-db"
	SourceVideoPlatform     SignalSource = "video-platform"
	SourceNewsAPI           SignalSource = "news-api"
	SourceInternalAnalytics SignalSource = "internal-analytics"
	SourceSearchTrends      SignalSource = "search-trends"
)

// Entity types assigned by fetchers.
const (
	EntityMovie     = "movie"
	EntityShow      = "tv"
	EntityPerson    = "person"
	EntityMusic     = "music"
	EntityEvent     = "event"
	EntityArticle   = "article"
	EntityUnknown   = ""
	CategoryMovies  = "movies"
	CategoryTV      = "tv"
	CategoryMusic   = "music"
	CategoryCelebs  = "celebrities"
	CategoryOTT     = "ott"
	CategoryBoxOff  = "box-office"
	CategoryGeneral = "entertainment"
)

// DefaultVelocity is used when a source reports no rate of change.
const DefaultVelocity = 1.0

// TrendSignal is one observation of topic popularity from one source at one instant.
// Signals are immutable once stored.
type TrendSignal struct {
	ID               string
	Source           SignalSource
	Keyword          string
	LocalizedKeyword string
	RelatedKeywords  []string
	RawScore         float64
	NormalizedScore  float64
	Velocity         float64
	Category         string
	EntityType       string
	EntityID         string
	Sentiment        *float64
	// ReferenceURL points at the page the signal was observed on, when the source has one.
	ReferenceURL string
	Timestamp    time.Time
	IngestedAt   time.Time
}

// SourceStat summarizes recent signals of one source.
type SourceStat struct {
	Source       SignalSource `json:"source"`
	Signals      int          `json:"signals"`
	AvgScore     float64      `json:"avg_score"`
	LastSignalAt time.Time    `json:"last_signal_at"`
}
