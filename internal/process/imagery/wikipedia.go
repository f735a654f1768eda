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

const (
	wikipediaBaseScore     = 65.0
	wikipediaThumbScore    = 55.0
	wikipediaDisambigType  = "disambiguation"
	wikipediaEntityPerson  = "person"
	wikipediaDefaultRegion = "https://en.wikipedia.org/api/rest_v1"
)

// WikipediaConfig configures the encyclopedic provider.
type WikipediaConfig struct {
	Enabled        bool
	BaseURL        string
	UserAgent      string
	RequestsPerMin int
	Timeout        time.Duration
}

// WikipediaProvider uses the lead image of the matching encyclopedia article.
type WikipediaProvider struct {
	cfg     WikipediaConfig
	getter  httpGetter
	baseURL string
	logger  *zerolog.Logger
}

type wikipediaSummary struct {
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Thumbnail     *wikipediaImage `json:"thumbnail"`
	OriginalImage *wikipediaImage `json:"originalimage"`
	ContentURLs   struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type wikipediaImage struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewWikipediaProvider creates the encyclopedic provider.
func NewWikipediaProvider(cfg WikipediaConfig, logger *zerolog.Logger) *WikipediaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = wikipediaDefaultRegion
	}

	return &WikipediaProvider{
		cfg:     cfg,
		getter:  newHTTPGetter(&http.Client{Timeout: cfg.Timeout}, cfg.RequestsPerMin, cfg.UserAgent),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// Source implements Provider.
func (p *WikipediaProvider) Source() domain.ImageSource { return domain.ImageSourceEncyclopedic }

// Enabled implements Provider.
func (p *WikipediaProvider) Enabled() bool { return p.cfg.Enabled }

// Search implements Provider. Missing articles yield no candidates rather than an error.
func (p *WikipediaProvider) Search(ctx context.Context, imgCtx domain.ImageContext, _ int) ([]domain.ImageCandidate, error) {
	title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(imgCtx.Query), " ", "_"))
	if title == "" {
		return nil, nil
	}

	var summary wikipediaSummary

	err := p.getter.json(ctx, p.baseURL+"/page/summary/"+title, nil, &summary)
	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}

	if summary.Type == wikipediaDisambigType {
		return nil, nil
	}

	var face *bool
	if imgCtx.EntityType == wikipediaEntityPerson {
		face = boolPtr(true)
	}

	var out []domain.ImageCandidate

	if img := summary.OriginalImage; img != nil && img.Source != "" {
		out = append(out, wikipediaCandidate(*img, wikipediaBaseScore, face, summary))
	} else if img := summary.Thumbnail; img != nil && img.Source != "" {
		out = append(out, wikipediaCandidate(*img, wikipediaThumbScore, face, summary))
	}

	p.logger.Debug().Str("query", imgCtx.Query).Int("candidates", len(out)).Msg("wikipedia image lookup")

	return out, nil
}

// Encyclopedic lead images carry per-file licenses the summary endpoint does not
// expose, so they always go to review.
func wikipediaCandidate(img wikipediaImage, score float64, face *bool, summary wikipediaSummary) domain.ImageCandidate {
	return domain.ImageCandidate{
		URL:    img.Source,
		Source: domain.ImageSourceEncyclopedic,
		Score:  score,
		Metadata: domain.ImageMetadata{
			Width:       img.Width,
			Height:      img.Height,
			AspectRatio: aspect(img.Width, img.Height),
			HasFace:     face,
			SourceURL:   summary.ContentURLs.Desktop.Page,
		},
		ValidationStatus: domain.ImageNeedsReview,
	}
}

var _ Provider = (*WikipediaProvider)(nil)
