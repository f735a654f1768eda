package trends

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const (
	youtubeDefaultBaseURL    = "https://www.googleapis.com/youtube/v3"
	youtubeDefaultTimeout    = 10 * time.Second
	youtubeDefaultRPM        = 30
	youtubeDefaultMaxResults = 25
	youtubeMaxResultsCap     = 50
	youtubeCategoryMusic     = "10"
	youtubeWatchURL          = "https://www.youtube.com/watch?v="
	youtubeMaxRelatedTags    = 5

	// Views at or above this map to 100.
	youtubeViewCeiling = 10_000_000.0

	// Views per hour that doubles the default velocity.
	youtubeVelocityUnit = 50_000.0
	youtubeMaxVelocity  = 3.0
)

// YouTubeConfig configures the video-platform fetcher.
type YouTubeConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	Region         string
	Languages      []string
	Categories     []string
	MaxResults     int
	RequestsPerMin int
	Timeout        time.Duration
}

// YouTubeFetcher reads the most popular videos chart per category.
type YouTubeFetcher struct {
	cfg         YouTubeConfig
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewYouTubeFetcher creates a video-platform fetcher.
func NewYouTubeFetcher(cfg YouTubeConfig, logger *zerolog.Logger) *YouTubeFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = youtubeDefaultTimeout
	}

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = youtubeDefaultMaxResults
	}

	if cfg.MaxResults > youtubeMaxResultsCap {
		cfg.MaxResults = youtubeMaxResultsCap
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = youtubeDefaultBaseURL
	}

	return &YouTubeFetcher{
		cfg:         cfg,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(perMinuteLimit(cfg.RequestsPerMin, youtubeDefaultRPM)), 2),
		logger:      logger,
		now:         time.Now,
	}
}

func (f *YouTubeFetcher) Source() domain.SignalSource {
	return domain.SourceVideoPlatform
}

func (f *YouTubeFetcher) Enabled() bool {
	return f.cfg.Enabled && f.cfg.APIKey != ""
}

type youtubeVideosResponse struct {
	Items []youtubeVideo `json:"items"`
}

type youtubeVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title                string   `json:"title"`
		PublishedAt          string   `json:"publishedAt"`
		ChannelTitle         string   `json:"channelTitle"`
		Tags                 []string `json:"tags"`
		CategoryID           string   `json:"categoryId"`
		DefaultLanguage      string   `json:"defaultLanguage"`
		DefaultAudioLanguage string   `json:"defaultAudioLanguage"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

// Fetch issues one chart request per configured category.
func (f *YouTubeFetcher) Fetch(ctx context.Context) ([]domain.TrendSignal, error) {
	categories := f.cfg.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	now := f.now()
	ts := snapshotTime(now)
	seen := make(map[string]bool)

	var (
		signals []domain.TrendSignal
		errs    []error
	)

	for _, category := range categories {
		videos, err := f.mostPopular(ctx, category)
		if err != nil {
			errs = append(errs, err)

			f.logger.Warn().Err(err).Str("category", category).Msg("youtube chart request failed")

			continue
		}

		for _, v := range videos {
			if seen[v.ID] {
				continue
			}

			if s, ok := f.toSignal(v, now, ts); ok {
				seen[v.ID] = true
				signals = append(signals, s)
			}
		}
	}

	if len(errs) == len(categories) {
		return nil, fmt.Errorf("youtube most popular: %w", errors.Join(errs...))
	}

	return signals, nil
}

func (f *YouTubeFetcher) mostPopular(ctx context.Context, category string) ([]youtubeVideo, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("chart", "mostPopular")
	params.Set("maxResults", strconv.Itoa(f.cfg.MaxResults))
	params.Set("key", f.cfg.APIKey)

	if f.cfg.Region != "" {
		params.Set("regionCode", f.cfg.Region)
	}

	if category != "" {
		params.Set("videoCategoryId", category)
	}

	var resp youtubeVideosResponse
	if err := getJSON(ctx, f.httpClient, f.rateLimiter, f.baseURL+"/videos?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("youtube category %q: %w", category, err)
	}

	return resp.Items, nil
}

func (f *YouTubeFetcher) toSignal(v youtubeVideo, now, ts time.Time) (domain.TrendSignal, bool) {
	lang := v.Snippet.DefaultAudioLanguage
	if lang == "" {
		lang = v.Snippet.DefaultLanguage
	}

	if !matchesLanguage(lang, f.cfg.Languages) {
		return domain.TrendSignal{}, false
	}

	keyword := videoKeyword(v.Snippet.Title)
	if keyword == "" {
		return domain.TrendSignal{}, false
	}

	views, _ := strconv.ParseFloat(v.Statistics.ViewCount, 64)

	s := newSignal(domain.SourceVideoPlatform, keyword, ts)
	s.RawScore = views
	s.NormalizedScore = CappedLinear(views, youtubeViewCeiling)
	s.Velocity = videoVelocity(views, v.Snippet.PublishedAt, now)
	s.EntityID = "youtube:" + v.ID
	s.ReferenceURL = youtubeWatchURL + v.ID

	if keyword != strings.TrimSpace(v.Snippet.Title) {
		s.LocalizedKeyword = strings.TrimSpace(v.Snippet.Title)
	}

	for i, tag := range v.Snippet.Tags {
		if i >= youtubeMaxRelatedTags {
			break
		}

		if tag = strings.TrimSpace(tag); tag != "" {
			s.RelatedKeywords = append(s.RelatedKeywords, tag)
		}
	}

	if v.Snippet.CategoryID == youtubeCategoryMusic {
		s.EntityType, s.Category = domain.EntityMusic, domain.CategoryMusic
	}

	applyClassification(&s, v.Snippet.Title+" "+strings.Join(v.Snippet.Tags, " "))

	return s, true
}

// videoKeyword keeps the leading segment of titles like "Song Name | Movie | Actor".
func videoKeyword(title string) string {
	title = strings.TrimSpace(title)

	for _, sep := range []string{" | ", " || ", " - "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}

	return strings.TrimSpace(title)
}

// videoVelocity grows with views per hour since publication.
func videoVelocity(views float64, publishedAt string, now time.Time) float64 {
	if publishedAt == "" || views <= 0 {
		return domain.DefaultVelocity
	}

	published, err := dateparse.ParseAny(publishedAt)
	if err != nil {
		return domain.DefaultVelocity
	}

	hours := math.Max(1, now.Sub(published).Hours())

	return math.Min(youtubeMaxVelocity, domain.DefaultVelocity+views/hours/youtubeVelocityUnit)
}
