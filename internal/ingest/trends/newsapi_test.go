package trends

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

const failedToWriteResp = "failed to write response: %v"

func newNewsAPITestFetcher(t *testing.T, handler http.HandlerFunc) *NewsAPIFetcher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	f := NewNewsAPIFetcher(NewsAPIConfig{
		Enabled:        true,
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Country:        "IN",
		PageSize:       4,
		RequestsPerMin: 6000,
	}, &logger)
	f.now = func() time.Time { return time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC) }

	return f
}

func TestNewsAPIFetcher_Fetch(t *testing.T) {
	f := newNewsAPITestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(newsAPIAuthHeader) != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		if r.URL.Path != "/top-headlines" || r.URL.Query().Get("country") != "in" || r.URL.Query().Get("category") != newsAPICategory {
			http.NotFound(w, r)

			return
		}

		if _, err := w.Write([]byte(`{"status":"ok","totalResults":4,"articles":[
			{"source":{"name":"Film Daily"},"title":"Pushpa 2 box office collection crosses 1000 crore - Film Daily","url":"https://example.com/a","publishedAt":"2025-01-02T08:00:00Z"},
			{"source":{"name":""},"title":"Devara streaming on Netflix from today - Cine Times","description":"<p>OTT release</p>","url":"https://example.com/b","publishedAt":"2025-01-01 18:00:00"},
			{"source":{"name":"X"},"title":"No URL article","url":""},
			{"source":{"name":"Y"},"title":"Singer announces concert tour","url":"https://example.com/d"}
		]}`)); err != nil {
			t.Errorf(failedToWriteResp, err)
		}
	})

	signals, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 3)

	assert.Equal(t, "Pushpa 2 box office collection crosses 1000 crore", signals[0].Keyword)
	assert.InDelta(t, 100, signals[0].NormalizedScore, 1e-9)
	assert.Equal(t, domain.CategoryBoxOff, signals[0].Category)
	assert.Equal(t, domain.EntityArticle, signals[0].EntityType)
	assert.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), signals[0].Timestamp)
	assert.Equal(t, "https://example.com/a", signals[0].ReferenceURL)

	assert.Equal(t, "Devara streaming on Netflix from today", signals[1].Keyword)
	assert.InDelta(t, 75, signals[1].NormalizedScore, 1e-9)
	assert.Equal(t, domain.CategoryOTT, signals[1].Category)

	assert.InDelta(t, 25, signals[2].NormalizedScore, 1e-9)
	assert.Equal(t, domain.CategoryMusic, signals[2].Category)
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), signals[2].Timestamp)
}

func TestNewsAPIFetcher_RateLimited(t *testing.T) {
	f := newNewsAPITestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)

		if _, err := w.Write([]byte(`{"status":"error","code":"rateLimited","message":"Too many requests"}`)); err != nil {
			t.Errorf(failedToWriteResp, err)
		}
	})

	signals, err := f.Fetch(context.Background())
	assert.Nil(t, signals)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRateLimited))
}

func TestNewsAPIFetcher_ErrorResponse(t *testing.T) {
	f := newNewsAPITestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)

		if _, err := w.Write([]byte(`{"status":"error","code":"parameterInvalid","message":"The parameter country is invalid."}`)); err != nil {
			t.Errorf(failedToWriteResp, err)
		}
	})

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "newsapi api error: The parameter country is invalid. (parameterInvalid)", err.Error())
}

func TestHeadlineKeyword(t *testing.T) {
	tests := []struct {
		title, source, want string
	}{
		{title: "Big news - Times", source: "Times", want: "Big news"},
		{title: "Big news - Times", source: "", want: "Big news"},
		{title: "Pushpa 2 - The Rule review - Paper", source: "Paper", want: "Pushpa 2 - The Rule review"},
		{title: "Tom &amp; Jerry", source: "", want: "Tom & Jerry"},
	}

	for _, tt := range tests {
		if got := headlineKeyword(tt.title, tt.source); got != tt.want {
			t.Errorf("headlineKeyword(%q, %q) = %q, want %q", tt.title, tt.source, got, tt.want)
		}
	}
}
