package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const (
	tmdbDefaultBaseURL = "https://api.themoviedb.org/3"
	tmdbDefaultTimeout = 10 * time.Second
	tmdbDefaultRPM     = 120
	tmdbWindowDay      = "day"
	tmdbWindowWeek     = "week"
	tmdbMediaMovie     = "movie"
	tmdbMediaTV        = "tv"
	tmdbMediaPerson    = "person"
	tmdbWebURL         = "https://www.themoviedb.org"

	// Popularity at or above this maps to 100.
	tmdbPopularityCeiling = 250.0

	// Items trending today but absent from the weekly list are accelerating.
	tmdbVelocityDailyOnly  = 1.5
	tmdbVelocityWeeklyOnly = 0.8

	tmdbVoteMidpoint = 5.0
	tmdbMinVotes     = 10
)

// TMDBConfig configures the movie-db fetcher.
type TMDBConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	Languages      []string
	Region         string
	RequestsPerMin int
	Timeout        time.Duration
}

// TMDBFetcher reads the daily and weekly trending lists of The Movie Database.
type TMDBFetcher struct {
	cfg         TMDBConfig
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewTMDBFetcher creates a movie-db fetcher.
func NewTMDBFetcher(cfg TMDBConfig, logger *zerolog.Logger) *TMDBFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = tmdbDefaultTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = tmdbDefaultBaseURL
	}

	return &TMDBFetcher{
		cfg:         cfg,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(perMinuteLimit(cfg.RequestsPerMin, tmdbDefaultRPM)), 2),
		logger:      logger,
		now:         time.Now,
	}
}

func (f *TMDBFetcher) Source() domain.SignalSource {
	return domain.SourceMovieDB
}

func (f *TMDBFetcher) Enabled() bool {
	return f.cfg.Enabled && f.cfg.APIKey != ""
}

type tmdbTrendingResponse struct {
	Results []tmdbItem `json:"results"`
}

type tmdbItem struct {
	ID               int64      `json:"id"`
	MediaType        string     `json:"media_type"`
	Title            string     `json:"title"`
	Name             string     `json:"name"`
	OriginalTitle    string     `json:"original_title"`
	OriginalName     string     `json:"original_name"`
	OriginalLanguage string     `json:"original_language"`
	OriginCountry    []string   `json:"origin_country"`
	Popularity       float64    `json:"popularity"`
	VoteAverage      float64    `json:"vote_average"`
	VoteCount        int        `json:"vote_count"`
	KnownFor         []tmdbItem `json:"known_for"`
}

func (it tmdbItem) displayName() string {
	if it.Title != "" {
		return it.Title
	}

	return it.Name
}

func (it tmdbItem) originalName() string {
	if it.OriginalTitle != "" {
		return it.OriginalTitle
	}

	return it.OriginalName
}

func (it tmdbItem) key() string {
	return fmt.Sprintf("%s:%d", it.MediaType, it.ID)
}

// Fetch issues the daily and weekly sub-requests. One failing window still
// yields signals from the other.
func (f *TMDBFetcher) Fetch(ctx context.Context) ([]domain.TrendSignal, error) {
	daily, dailyErr := f.trending(ctx, tmdbWindowDay)
	weekly, weeklyErr := f.trending(ctx, tmdbWindowWeek)

	if dailyErr != nil && weeklyErr != nil {
		return nil, fmt.Errorf("tmdb trending: %w", dailyErr)
	}

	if dailyErr != nil {
		f.logger.Warn().Err(dailyErr).Msg("tmdb daily trending failed, using weekly only")
	}

	if weeklyErr != nil {
		f.logger.Warn().Err(weeklyErr).Msg("tmdb weekly trending failed, using daily only")
	}

	ts := snapshotTime(f.now())
	inWeekly := make(map[string]bool, len(weekly))

	for _, it := range weekly {
		inWeekly[it.key()] = true
	}

	seen := make(map[string]bool, len(daily)+len(weekly))
	signals := make([]domain.TrendSignal, 0, len(daily)+len(weekly))

	for _, it := range daily {
		velocity := domain.DefaultVelocity
		if weeklyErr == nil && !inWeekly[it.key()] {
			velocity = tmdbVelocityDailyOnly
		}

		if s, ok := f.toSignal(it, velocity, ts); ok && !seen[it.key()] {
			seen[it.key()] = true
			signals = append(signals, s)
		}
	}

	for _, it := range weekly {
		if seen[it.key()] {
			continue
		}

		velocity := domain.DefaultVelocity
		if dailyErr == nil {
			velocity = tmdbVelocityWeeklyOnly
		}

		if s, ok := f.toSignal(it, velocity, ts); ok {
			seen[it.key()] = true
			signals = append(signals, s)
		}
	}

	return signals, nil
}

func (f *TMDBFetcher) trending(ctx context.Context, window string) ([]tmdbItem, error) {
	params := url.Values{}
	params.Set("api_key", f.cfg.APIKey)

	endpoint := fmt.Sprintf("%s/trending/all/%s?%s", f.baseURL, window, params.Encode())

	var resp tmdbTrendingResponse
	if err := getJSON(ctx, f.httpClient, f.rateLimiter, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("tmdb %s: %w", window, err)
	}

	return resp.Results, nil
}

// inDomain keeps titles in a configured language or produced in the configured
// region, and people known for such titles.
func (f *TMDBFetcher) inDomain(it tmdbItem) bool {
	if it.MediaType == tmdbMediaPerson {
		for _, k := range it.KnownFor {
			if f.inDomain(k) {
				return true
			}
		}

		return false
	}

	if it.OriginalLanguage != "" && len(f.cfg.Languages) > 0 && matchesLanguage(it.OriginalLanguage, f.cfg.Languages) {
		return true
	}

	for _, c := range it.OriginCountry {
		if f.cfg.Region != "" && strings.EqualFold(c, f.cfg.Region) {
			return true
		}
	}

	return len(f.cfg.Languages) == 0 && f.cfg.Region == ""
}

func (f *TMDBFetcher) toSignal(it tmdbItem, velocity float64, ts time.Time) (domain.TrendSignal, bool) {
	name := strings.TrimSpace(it.displayName())
	if name == "" || !f.inDomain(it) {
		return domain.TrendSignal{}, false
	}

	s := newSignal(domain.SourceMovieDB, name, ts)
	s.RawScore = it.Popularity
	s.NormalizedScore = CappedLinear(it.Popularity, tmdbPopularityCeiling)
	s.Velocity = velocity
	s.EntityID = "tmdb:" + it.key()
	s.ReferenceURL = fmt.Sprintf("%s/%s/%d", tmdbWebURL, it.MediaType, it.ID)

	if orig := strings.TrimSpace(it.originalName()); orig != "" && orig != name {
		s.LocalizedKeyword = orig
	}

	switch it.MediaType {
	case tmdbMediaMovie:
		s.EntityType, s.Category = domain.EntityMovie, domain.CategoryMovies
	case tmdbMediaTV:
		s.EntityType, s.Category = domain.EntityShow, domain.CategoryTV
	case tmdbMediaPerson:
		s.EntityType, s.Category = domain.EntityPerson, domain.CategoryCelebs

		for _, k := range it.KnownFor {
			if kn := strings.TrimSpace(k.displayName()); kn != "" {
				s.RelatedKeywords = append(s.RelatedKeywords, kn)
			}
		}
	default:
		applyClassification(&s, name)
	}

	if it.VoteCount >= tmdbMinVotes {
		sentiment := (it.VoteAverage - tmdbVoteMidpoint) / tmdbVoteMidpoint
		s.Sentiment = &sentiment
	}

	return s, true
}
