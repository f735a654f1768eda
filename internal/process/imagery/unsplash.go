package imagery

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const (
	unsplashBaseScore   = 60.0
	unsplashRankPenalty = 2.0
	unsplashRegularPx   = 1080
	unsplashLicense     = "Unsplash License"
	unsplashAuthHeader  = "Authorization"
	unsplashAuthPrefix  = "Client-ID "
	unsplashAPIVersion  = "Accept-Version"
)

// UnsplashConfig configures the stock-photo provider.
type UnsplashConfig struct {
	Enabled        bool
	AccessKey      string
	BaseURL        string
	RequestsPerMin int
	Timeout        time.Duration
}

// UnsplashProvider searches Unsplash for landscape stock photos.
type UnsplashProvider struct {
	cfg     UnsplashConfig
	getter  httpGetter
	baseURL string
	logger  *zerolog.Logger
}

type unsplashResponse struct {
	Results []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URLs   struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

// NewUnsplashProvider creates the stock-photo provider.
func NewUnsplashProvider(cfg UnsplashConfig, logger *zerolog.Logger) *UnsplashProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.unsplash.com"
	}

	return &UnsplashProvider{
		cfg:     cfg,
		getter:  newHTTPGetter(&http.Client{Timeout: cfg.Timeout}, cfg.RequestsPerMin, ""),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// Source implements Provider.
func (p *UnsplashProvider) Source() domain.ImageSource { return domain.ImageSourceStockPhoto }

// Enabled implements Provider.
func (p *UnsplashProvider) Enabled() bool { return p.cfg.Enabled && p.cfg.AccessKey != "" }

// Search implements Provider.
func (p *UnsplashProvider) Search(ctx context.Context, imgCtx domain.ImageContext, limit int) ([]domain.ImageCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	q := url.Values{}
	q.Set("query", imgCtx.Query)
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("orientation", "landscape")
	q.Set("content_filter", "high")

	headers := map[string]string{
		unsplashAuthHeader: unsplashAuthPrefix + p.cfg.AccessKey,
		unsplashAPIVersion: "v1",
	}

	var resp unsplashResponse
	if err := p.getter.json(ctx, p.baseURL+"/search/photos?"+q.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("unsplash search: %w", err)
	}

	out := make([]domain.ImageCandidate, 0, len(resp.Results))

	for rank, photo := range resp.Results {
		if photo.URLs.Regular == "" {
			continue
		}

		out = append(out, unsplashCandidate(photo, rank))
	}

	p.logger.Debug().Str("query", imgCtx.Query).Int("candidates", len(out)).Msg("unsplash image search")

	return out, nil
}

// The regular rendition is scaled to a fixed width, so dimensions are derived
// from the original aspect ratio.
func unsplashCandidate(photo unsplashPhoto, rank int) domain.ImageCandidate {
	ratio := aspect(photo.Width, photo.Height)
	width, height := photo.Width, photo.Height

	if ratio > 0 && width > unsplashRegularPx {
		width = unsplashRegularPx
		height = int(math.Round(float64(unsplashRegularPx) / ratio))
	}

	return domain.ImageCandidate{
		URL:    photo.URLs.Regular,
		Source: domain.ImageSourceStockPhoto,
		Score:  unsplashBaseScore - float64(rank)*unsplashRankPenalty,
		Metadata: domain.ImageMetadata{
			Width:       width,
			Height:      height,
			AspectRatio: ratio,
			License:     unsplashLicense,
			Author:      photo.User.Name,
			SourceURL:   photo.Links.HTML,
		},
		ValidationStatus: domain.ImageValid,
	}
}

var _ Provider = (*UnsplashProvider)(nil)
