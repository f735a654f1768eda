package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const testRPM = 60000

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

func TestTMDBProvider_Search(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Allu Arjun", r.URL.Query().Get("query"))

		_, _ = w.Write([]byte(`{"results":[
			{"id":1,"media_type":"movie","title":"Pushpa","backdrop_path":"/b.jpg","poster_path":"/p.jpg"},
			{"id":2,"media_type":"person","name":"Allu Arjun","profile_path":"/a.jpg"}
		]}`))
	})

	logger := zerolog.Nop()
	p := NewTMDBProvider(TMDBConfig{
		Enabled:        true,
		APIKey:         "key",
		BaseURL:        srv.URL,
		ImageBaseURL:   "https://image.example/t/p",
		RequestsPerMin: testRPM,
	}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "Allu Arjun", EntityType: "person"}, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "https://image.example/t/p/h632/a.jpg", got[0].URL)
	require.NotNil(t, got[0].Metadata.HasFace)
	assert.True(t, *got[0].Metadata.HasFace)
	assert.Equal(t, "https://www.themoviedb.org/person/2", got[0].Metadata.SourceURL)
	assert.Equal(t, "https://image.example/t/p/w1280/b.jpg", got[1].URL)
	assert.Greater(t, got[0].Score, got[1].Score)
	assert.True(t, p.Enabled())
}

func TestTMDBProvider_DisabledWithoutKey(t *testing.T) {
	logger := zerolog.Nop()
	p := NewTMDBProvider(TMDBConfig{Enabled: true}, &logger)
	assert.False(t, p.Enabled())
}

func TestCommonsProvider_Search(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("generator"))
		assert.Equal(t, "test-agent", r.Header.Get(headerUserAgent))

		_, _ = w.Write([]byte(`{"query":{"pages":{
			"20":{"title":"File:Second.jpg","index":2,"imageinfo":[{"url":"https://upload.example/second.jpg","width":3000,"height":2000}]},
			"10":{"title":"File:First.jpg","index":1,"imageinfo":[{
				"url":"https://upload.example/first.jpg","width":4000,"height":3000,
				"thumburl":"https://upload.example/thumb/first.jpg","thumbwidth":1600,"thumbheight":1200,
				"descriptionurl":"https://commons.example/wiki/File:First.jpg",
				"extmetadata":{"LicenseShortName":{"value":"CC BY-SA 4.0"},"Artist":{"value":"<a href=\"/wiki/User:Jane\">Jane Doe</a>"}}
			}]},
			"30":{"title":"File:NoInfo.jpg","index":3}
		}}}`))
	})

	logger := zerolog.Nop()
	p := NewCommonsProvider(CommonsConfig{Enabled: true, BaseURL: srv.URL, UserAgent: "test-agent", RequestsPerMin: testRPM}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "Charminar"}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "https://upload.example/thumb/first.jpg", first.URL)
	assert.Equal(t, 1600, first.Metadata.Width)
	assert.Equal(t, "CC BY-SA 4.0", first.Metadata.License)
	assert.Equal(t, "Jane Doe", first.Metadata.Author)
	assert.Equal(t, "https://commons.example/wiki/File:First.jpg", first.Metadata.SourceURL)

	second := got[1]
	assert.Equal(t, "https://upload.example/second.jpg", second.URL)
	assert.Empty(t, second.Metadata.License)
	assert.Equal(t, "https://commons.wikimedia.org/wiki/File:Second.jpg", second.Metadata.SourceURL)
	assert.Greater(t, first.Score, second.Score)
}

func TestWikipediaProvider_Search(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/summary/Allu_Arjun":
			_, _ = w.Write([]byte(`{"type":"standard","title":"Allu Arjun",
				"originalimage":{"source":"https://upload.example/allu.jpg","width":1200,"height":1600},
				"content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Allu_Arjun"}}}`))
		case "/page/summary/Mercury":
			_, _ = w.Write([]byte(`{"type":"disambiguation","title":"Mercury"}`))
		default:
			http.NotFound(w, r)
		}
	})

	logger := zerolog.Nop()
	p := NewWikipediaProvider(WikipediaConfig{Enabled: true, BaseURL: srv.URL, RequestsPerMin: testRPM}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "Allu Arjun", EntityType: "person"}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://upload.example/allu.jpg", got[0].URL)
	assert.Equal(t, domain.ImageNeedsReview, got[0].ValidationStatus)
	require.NotNil(t, got[0].Metadata.HasFace)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Allu_Arjun", got[0].Metadata.SourceURL)

	got, err = p.Search(context.Background(), domain.ImageContext{Query: "Mercury"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = p.Search(context.Background(), domain.ImageContext{Query: "No Such Article"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWikipediaProvider_ServerError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	logger := zerolog.Nop()
	p := NewWikipediaProvider(WikipediaConfig{Enabled: true, BaseURL: srv.URL, RequestsPerMin: testRPM}, &logger)

	_, err := p.Search(context.Background(), domain.ImageContext{Query: "Allu Arjun"}, 5)
	require.Error(t, err)
}

func TestOpenGraphProvider_Search(t *testing.T) {
	var srv *httptest.Server

	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article-1":
			_, _ = fmt.Fprint(w, `<html><head>
				<meta property="og:site_name" content="Film News">
				<meta property="og:image" content="/images/hero.jpg">
				<meta property="og:image:width" content="1200">
				<meta property="og:image:height" content="630">
				</head><body></body></html>`)
		case "/article-2":
			_, _ = fmt.Fprint(w, `<html><head><meta name="twitter:image" content="https://cdn.example/tw.jpg"></head></html>`)
		case "/article-3":
			_, _ = fmt.Fprint(w, `<html><head><title>No image</title></head></html>`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	logger := zerolog.Nop()
	p := NewOpenGraphProvider(OpenGraphConfig{Enabled: true, MaxPages: 4, RequestsPerMin: testRPM}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{
		Query: "Devara",
		ReferenceURLs: []string{
			srv.URL + "/broken",
			srv.URL + "/article-1",
			srv.URL + "/article-2",
			srv.URL + "/article-3",
		},
	}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, srv.URL+"/images/hero.jpg", got[0].URL)
	assert.Equal(t, 1200, got[0].Metadata.Width)
	assert.Equal(t, 630, got[0].Metadata.Height)
	assert.Equal(t, "Film News", got[0].Metadata.Author)
	assert.Equal(t, srv.URL+"/article-1", got[0].Metadata.SourceURL)
	assert.Equal(t, "https://cdn.example/tw.jpg", got[1].URL)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestOpenGraphProvider_AllPagesFail(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	logger := zerolog.Nop()
	p := NewOpenGraphProvider(OpenGraphConfig{Enabled: true, RequestsPerMin: testRPM}, &logger)

	_, err := p.Search(context.Background(), domain.ImageContext{Query: "x", ReferenceURLs: []string{srv.URL}}, 5)
	require.Error(t, err)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "x"}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnsplashProvider_Search(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID access", r.Header.Get("Authorization"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))

		_, _ = w.Write([]byte(`{"results":[
			{"id":"a","width":6000,"height":4000,"urls":{"regular":"https://images.example/a"},
			 "links":{"html":"https://unsplash.example/photos/a"},"user":{"name":"Ravi"}},
			{"id":"b","width":4000,"height":3000,"urls":{"regular":""}}
		]}`))
	})

	logger := zerolog.Nop()
	p := NewUnsplashProvider(UnsplashConfig{Enabled: true, AccessKey: "access", BaseURL: srv.URL, RequestsPerMin: testRPM}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "cinema hall"}, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "https://images.example/a", c.URL)
	assert.Equal(t, 1080, c.Metadata.Width)
	assert.Equal(t, 720, c.Metadata.Height)
	assert.InDelta(t, 1.5, c.Metadata.AspectRatio, 0.001)
	assert.Equal(t, "Unsplash License", c.Metadata.License)
	assert.Equal(t, "Ravi", c.Metadata.Author)
}

func TestUnsplashProvider_RateLimited(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	logger := zerolog.Nop()
	p := NewUnsplashProvider(UnsplashConfig{Enabled: true, AccessKey: "access", BaseURL: srv.URL, RequestsPerMin: testRPM}, &logger)

	_, err := p.Search(context.Background(), domain.ImageContext{Query: "x"}, 3)
	require.Error(t, err)
}

func TestPlaceholderProvider(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://images.example/generated.png"}]}`))
	})

	logger := zerolog.Nop()
	p := NewPlaceholderProvider(PlaceholderConfig{Enabled: true, APIKey: "k", BaseURL: srv.URL + "/v1"}, &logger)

	got, err := p.Search(context.Background(), domain.ImageContext{Query: "Devara", Emotion: "festive"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ImageSourceAIPlaceholder, got[0].Source)
	require.NotNil(t, got[0].Metadata.EmotionMatch)

	disabled := NewPlaceholderProvider(PlaceholderConfig{APIKey: "k"}, &logger)
	assert.False(t, disabled.Enabled())
}

func TestPlaceholderPrompt(t *testing.T) {
	prompt := placeholderPrompt(domain.ImageContext{Query: " Devara ", Emotion: "tense"})
	assert.Contains(t, prompt, "about Devara.")
	assert.Contains(t, prompt, "Mood: tense.")
}
