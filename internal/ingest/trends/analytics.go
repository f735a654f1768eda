package trends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
)

const (
	analyticsDefaultLimit    = 25
	analyticsDefaultLookback = 72 * time.Hour
)

// AnalyticsConfig configures the internal-analytics fetcher.
type AnalyticsConfig struct {
	Enabled  bool
	Limit    int
	Lookback time.Duration
}

// AnalyticsFetcher turns the most viewed recent posts into signals, scoring
// each post relative to the most viewed one.
type AnalyticsFetcher struct {
	cfg   AnalyticsConfig
	posts ports.PublishedReader
	now   func() time.Time
}

// NewAnalyticsFetcher creates an internal-analytics fetcher over the posts store.
func NewAnalyticsFetcher(cfg AnalyticsConfig, posts ports.PublishedReader) *AnalyticsFetcher {
	if cfg.Limit <= 0 {
		cfg.Limit = analyticsDefaultLimit
	}

	if cfg.Lookback <= 0 {
		cfg.Lookback = analyticsDefaultLookback
	}

	return &AnalyticsFetcher{cfg: cfg, posts: posts, now: time.Now}
}

func (f *AnalyticsFetcher) Source() domain.SignalSource {
	return domain.SourceInternalAnalytics
}

func (f *AnalyticsFetcher) Enabled() bool {
	return f.cfg.Enabled && f.posts != nil
}

func (f *AnalyticsFetcher) Fetch(ctx context.Context) ([]domain.TrendSignal, error) {
	now := f.now()

	posts, err := f.posts.TopViewedPosts(ctx, now.Add(-f.cfg.Lookback), f.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("top viewed posts: %w", err)
	}

	var maxViews int64

	for _, p := range posts {
		maxViews = max(maxViews, p.Views)
	}

	ts := snapshotTime(now)
	signals := make([]domain.TrendSignal, 0, len(posts))

	for _, p := range posts {
		title := strings.TrimSpace(p.Title)
		if title == "" || p.Views <= 0 {
			continue
		}

		s := newSignal(domain.SourceInternalAnalytics, title, ts)
		s.RawScore = float64(p.Views)
		s.NormalizedScore = RelativeLinear(float64(p.Views), float64(maxViews))
		s.RelatedKeywords = append([]string(nil), p.Tags...)
		s.EntityID = "post:" + p.ID

		applyClassification(&s, title+" "+strings.Join(p.Tags, " "))

		signals = append(signals, s)
	}

	return signals, nil
}
