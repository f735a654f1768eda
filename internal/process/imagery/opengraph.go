package imagery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const (
	openGraphBaseScore   = 60.0
	openGraphRankPenalty = 5.0
	defaultOGMaxPages    = 3
)

// OpenGraphConfig configures the open-graph provider.
type OpenGraphConfig struct {
	Enabled        bool
	MaxPages       int
	UserAgent      string
	RequestsPerMin int
	Timeout        time.Duration
}

// OpenGraphProvider reads og:image tags from the reference pages of a topic.
type OpenGraphProvider struct {
	cfg    OpenGraphConfig
	getter httpGetter
	logger *zerolog.Logger
}

// NewOpenGraphProvider creates the open-graph provider.
func NewOpenGraphProvider(cfg OpenGraphConfig, logger *zerolog.Logger) *OpenGraphProvider {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultOGMaxPages
	}

	return &OpenGraphProvider{
		cfg:    cfg,
		getter: newHTTPGetter(&http.Client{Timeout: cfg.Timeout}, cfg.RequestsPerMin, cfg.UserAgent),
		logger: logger,
	}
}

// Source implements Provider.
func (p *OpenGraphProvider) Source() domain.ImageSource { return domain.ImageSourceOpenGraph }

// Enabled implements Provider.
func (p *OpenGraphProvider) Enabled() bool { return p.cfg.Enabled }

// Search implements Provider. Pages that fail to load are skipped.
func (p *OpenGraphProvider) Search(ctx context.Context, imgCtx domain.ImageContext, limit int) ([]domain.ImageCandidate, error) {
	var (
		out     []domain.ImageCandidate
		lastErr error
		seen    = make(map[string]bool)
	)

	for i, pageURL := range imgCtx.ReferenceURLs {
		if i >= p.cfg.MaxPages || (limit > 0 && len(out) >= limit) {
			break
		}

		c, err := p.fromPage(ctx, pageURL)
		if err != nil {
			lastErr = err
			p.logger.Debug().Err(err).Str("url", pageURL).Msg("open-graph page skipped")

			continue
		}

		if c == nil || seen[c.URL] {
			continue
		}

		seen[c.URL] = true
		c.Score = openGraphBaseScore - float64(len(out))*openGraphRankPenalty
		out = append(out, *c)
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return out, nil
}

func (p *OpenGraphProvider) fromPage(ctx context.Context, pageURL string) (*domain.ImageCandidate, error) {
	body, err := p.getter.body(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	imageURL := metaContent(doc, "og:image:secure_url", "og:image", "twitter:image", "twitter:image:src")
	if imageURL == "" {
		return nil, nil
	}

	imageURL = resolveURL(pageURL, imageURL)
	width, _ := strconv.Atoi(metaContent(doc, "og:image:width"))
	height, _ := strconv.Atoi(metaContent(doc, "og:image:height"))

	return &domain.ImageCandidate{
		URL:    imageURL,
		Source: domain.ImageSourceOpenGraph,
		Metadata: domain.ImageMetadata{
			Width:       width,
			Height:      height,
			AspectRatio: aspect(width, height),
			Author:      metaContent(doc, "og:site_name"),
			SourceURL:   pageURL,
		},
		ValidationStatus: domain.ImageNeedsReview,
	}, nil
}

// metaContent returns the first non-empty content of the named meta tags,
// matched by property or name attribute.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name"} {
			if v, ok := doc.Find(fmt.Sprintf("meta[%s='%s']", attr, key)).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}

	return ""
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}

	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return b.ResolveReference(r).String()
}

var _ Provider = (*OpenGraphProvider)(nil)
