package trends

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/platform/htmlutils"
)

const (
	searchTrendsDefaultURL     = "https://trends.google.com/trending/rss?geo=IN"
	searchTrendsDefaultTimeout = 10 * time.Second
	trendsNamespace            = "ht"
	trendsTrafficElement       = "approx_traffic"
	trendsNewsItemElement      = "news_item"
	trendsNewsTitleElement     = "news_item_title"
	trendsNewsURLElement       = "news_item_url"
	trendsMaxRelated           = 3

	// Approximate searches at or above this map to 100.
	searchTrafficCeiling = 200_000.0
)

// SearchTrendsConfig configures the search-trends fetcher.
type SearchTrendsConfig struct {
	Enabled bool
	FeedURL string
	Timeout time.Duration
}

// SearchTrendsFetcher reads the daily trending searches RSS feed and keeps
// entertainment-related entries.
type SearchTrendsFetcher struct {
	cfg        SearchTrendsConfig
	httpClient *http.Client
	parser     *gofeed.Parser
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewSearchTrendsFetcher creates a search-trends fetcher.
func NewSearchTrendsFetcher(cfg SearchTrendsConfig, logger *zerolog.Logger) *SearchTrendsFetcher {
	if cfg.FeedURL == "" {
		cfg.FeedURL = searchTrendsDefaultURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = searchTrendsDefaultTimeout
	}

	return &SearchTrendsFetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		parser:     gofeed.NewParser(),
		logger:     logger,
		now:        time.Now,
	}
}

func (f *SearchTrendsFetcher) Source() domain.SignalSource {
	return domain.SourceSearchTrends
}

func (f *SearchTrendsFetcher) Enabled() bool {
	return f.cfg.Enabled
}

func (f *SearchTrendsFetcher) Fetch(ctx context.Context) ([]domain.TrendSignal, error) {
	body, err := getBody(ctx, f.httpClient, nil, f.cfg.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch trends feed: %w", err)
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse trends feed: %w", err)
	}

	fallbackTS := snapshotTime(f.now())
	signals := make([]domain.TrendSignal, 0, len(feed.Items))
	skipped := 0

	for _, item := range feed.Items {
		s, ok := f.toSignal(item, fallbackTS)
		if !ok {
			skipped++
			continue
		}

		signals = append(signals, s)
	}

	f.logger.Debug().Int("kept", len(signals)).Int("skipped", skipped).Msg("search trends feed parsed")

	return signals, nil
}

func (f *SearchTrendsFetcher) toSignal(item *gofeed.Item, fallbackTS time.Time) (domain.TrendSignal, bool) {
	keyword := htmlutils.PlainText(item.Title)
	if keyword == "" {
		return domain.TrendSignal{}, false
	}

	newsTitles, newsURLs := trendNewsItems(item.Extensions)

	entityType, category := Classify(keyword + " " + strings.Join(newsTitles, " "))
	if entityType == domain.EntityUnknown {
		return domain.TrendSignal{}, false
	}

	ts := fallbackTS

	switch {
	case item.PublishedParsed != nil:
		ts = item.PublishedParsed.UTC()
	case item.Published != "":
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			ts = t.UTC()
		}
	}

	traffic, _ := ParseApproxCount(extensionValue(item.Extensions, trendsTrafficElement))

	s := newSignal(domain.SourceSearchTrends, keyword, ts)
	s.RawScore = traffic
	s.NormalizedScore = CappedLinear(traffic, searchTrafficCeiling)
	s.EntityType = entityType
	s.Category = category

	for i, t := range newsTitles {
		if i >= trendsMaxRelated {
			break
		}

		s.RelatedKeywords = append(s.RelatedKeywords, t)
	}

	if len(newsURLs) > 0 {
		s.ReferenceURL = newsURLs[0]
	}

	return s, true
}

func extensionValue(exts ext.Extensions, name string) string {
	values := exts[trendsNamespace][name]
	if len(values) == 0 {
		return ""
	}

	return strings.TrimSpace(values[0].Value)
}

func trendNewsItems(exts ext.Extensions) (titles, urls []string) {
	for _, news := range exts[trendsNamespace][trendsNewsItemElement] {
		if t := childValue(news, trendsNewsTitleElement); t != "" {
			titles = append(titles, htmlutils.PlainText(t))
		}

		if u := childValue(news, trendsNewsURLElement); u != "" {
			urls = append(urls, u)
		}
	}

	return titles, urls
}

func childValue(e ext.Extension, name string) string {
	children := e.Children[name]
	if len(children) == 0 {
		return ""
	}

	return strings.TrimSpace(children[0].Value)
}
