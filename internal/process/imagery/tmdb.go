package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// TMDB image sizes and base scores.
const (
	tmdbBackdropSize    = "w1280"
	tmdbBackdropWidth   = 1280
	tmdbBackdropHeight  = 720
	tmdbPosterSize      = "w780"
	tmdbPosterWidth     = 780
	tmdbPosterHeight    = 1170
	tmdbProfileSize     = "h632"
	tmdbProfileWidth    = 421
	tmdbProfileHeight   = 632
	tmdbBackdropScore   = 75.0
	tmdbPosterScore     = 65.0
	tmdbProfileScore    = 80.0
	tmdbRankPenalty     = 5.0
	tmdbMaxResults      = 3
	tmdbLicense         = "TMDB terms of use"
	tmdbMediaTypePerson = "person"
	tmdbEntityPerson    = "person"
)

// TMDBConfig configures the structured-db image provider.
type TMDBConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	ImageBaseURL   string
	Language       string
	RequestsPerMin int
	Timeout        time.Duration
}

// TMDBProvider resolves topic names to TMDB posters, backdrops and profiles.
type TMDBProvider struct {
	cfg          TMDBConfig
	getter       httpGetter
	baseURL      string
	imageBaseURL string
	logger       *zerolog.Logger
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbSearchResult struct {
	ID           int64  `json:"id"`
	MediaType    string `json:"media_type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	ProfilePath  string `json:"profile_path"`
}

// NewTMDBProvider creates the structured-db image provider.
func NewTMDBProvider(cfg TMDBConfig, logger *zerolog.Logger) *TMDBProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.themoviedb.org/3"
	}

	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = "https://image.tmdb.org/t/p"
	}

	return &TMDBProvider{
		cfg:          cfg,
		getter:       newHTTPGetter(&http.Client{Timeout: cfg.Timeout}, cfg.RequestsPerMin, ""),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		logger:       logger,
	}
}

// Source implements Provider.
func (p *TMDBProvider) Source() domain.ImageSource { return domain.ImageSourceStructuredDB }

// Enabled implements Provider.
func (p *TMDBProvider) Enabled() bool { return p.cfg.Enabled && p.cfg.APIKey != "" }

// Search implements Provider.
func (p *TMDBProvider) Search(ctx context.Context, imgCtx domain.ImageContext, limit int) ([]domain.ImageCandidate, error) {
	q := url.Values{}
	q.Set("api_key", p.cfg.APIKey)
	q.Set("query", imgCtx.Query)
	q.Set("include_adult", "false")

	if p.cfg.Language != "" {
		q.Set("language", p.cfg.Language)
	}

	var resp tmdbSearchResponse
	if err := p.getter.json(ctx, p.baseURL+"/search/multi?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}

	results := preferPersons(resp.Results, imgCtx.EntityType == tmdbEntityPerson)

	var out []domain.ImageCandidate

	for rank, r := range results {
		if rank >= tmdbMaxResults {
			break
		}

		penalty := float64(rank) * tmdbRankPenalty
		out = append(out, p.candidatesFor(r, penalty)...)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	p.logger.Debug().Str("query", imgCtx.Query).Int("candidates", len(out)).Msg("tmdb image search")

	return out, nil
}

func (p *TMDBProvider) candidatesFor(r tmdbSearchResult, penalty float64) []domain.ImageCandidate {
	name := r.Title
	if name == "" {
		name = r.Name
	}

	page := fmt.Sprintf("https://www.themoviedb.org/%s/%d", r.MediaType, r.ID)

	var out []domain.ImageCandidate

	if r.MediaType == tmdbMediaTypePerson {
		if r.ProfilePath != "" {
			out = append(out, p.candidate(tmdbProfileSize, r.ProfilePath, tmdbProfileWidth, tmdbProfileHeight,
				tmdbProfileScore-penalty, boolPtr(true), name, page))
		}

		return out
	}

	if r.BackdropPath != "" {
		out = append(out, p.candidate(tmdbBackdropSize, r.BackdropPath, tmdbBackdropWidth, tmdbBackdropHeight,
			tmdbBackdropScore-penalty, nil, name, page))
	}

	if r.PosterPath != "" {
		out = append(out, p.candidate(tmdbPosterSize, r.PosterPath, tmdbPosterWidth, tmdbPosterHeight,
			tmdbPosterScore-penalty, nil, name, page))
	}

	return out
}

func (p *TMDBProvider) candidate(size, path string, width, height int, score float64, face *bool, author, page string) domain.ImageCandidate {
	return domain.ImageCandidate{
		URL:    p.imageBaseURL + "/" + size + path,
		Source: domain.ImageSourceStructuredDB,
		Score:  score,
		Metadata: domain.ImageMetadata{
			Width:       width,
			Height:      height,
			AspectRatio: aspect(width, height),
			HasFace:     face,
			License:     tmdbLicense,
			Author:      author,
			SourceURL:   page,
		},
		ValidationStatus: domain.ImageValid,
	}
}

func preferPersons(results []tmdbSearchResult, person bool) []tmdbSearchResult {
	if !person {
		return results
	}

	ordered := make([]tmdbSearchResult, 0, len(results))

	for _, r := range results {
		if r.MediaType == tmdbMediaTypePerson {
			ordered = append(ordered, r)
		}
	}

	for _, r := range results {
		if r.MediaType != tmdbMediaTypePerson {
			ordered = append(ordered, r)
		}
	}

	return ordered
}

var _ Provider = (*TMDBProvider)(nil)
