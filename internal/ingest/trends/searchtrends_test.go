package trends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const trendsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:atom="http://www.w3.org/2005/Atom" xmlns:ht="https://trends.google.com/trending/rss" version="2.0">
<channel>
<title>Daily Search Trends</title>
<item>
  <title>Pushpa 2</title>
  <ht:approx_traffic>100,000+</ht:approx_traffic>
  <pubDate>Thu, 2 Jan 2025 08:00:00 +0000</pubDate>
  <ht:news_item>
    <ht:news_item_title>Pushpa 2 box office collection day 28</ht:news_item_title>
    <ht:news_item_url>https://example.com/pushpa</ht:news_item_url>
  </ht:news_item>
  <ht:news_item>
    <ht:news_item_title>Allu Arjun &amp;#39;s film</ht:news_item_title>
    <ht:news_item_url>https://example.com/allu</ht:news_item_url>
  </ht:news_item>
</item>
<item>
  <title>Sensex</title>
  <ht:approx_traffic>500,000+</ht:approx_traffic>
  <pubDate>Thu, 2 Jan 2025 07:00:00 +0000</pubDate>
  <ht:news_item>
    <ht:news_item_title>Markets close higher</ht:news_item_title>
  </ht:news_item>
</item>
</channel>
</rss>`

func TestSearchTrendsFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(trendsFeed))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	f := NewSearchTrendsFetcher(SearchTrendsConfig{Enabled: true, FeedURL: srv.URL}, &logger)

	signals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1, "non-entertainment trends are filtered")

	s := signals[0]
	assert.Equal(t, domain.SourceSearchTrends, s.Source)
	assert.Equal(t, "Pushpa 2", s.Keyword)
	assert.InDelta(t, 100000, s.RawScore, 1e-9)
	assert.InDelta(t, 50, s.NormalizedScore, 1e-9)
	assert.Equal(t, domain.CategoryBoxOff, s.Category)
	assert.Equal(t, "https://example.com/pushpa", s.ReferenceURL)
	assert.Len(t, s.RelatedKeywords, 2)
	assert.Equal(t, "Pushpa 2 box office collection day 28", s.RelatedKeywords[0])
	assert.True(t, s.Timestamp.Equal(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)))
}

func TestSearchTrendsFetcher_BadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	f := NewSearchTrendsFetcher(SearchTrendsConfig{Enabled: true, FeedURL: srv.URL}, &logger)

	signals, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, signals)
}
