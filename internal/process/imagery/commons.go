package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/platform/htmlutils"
)

const (
	commonsThumbWidth  = 1600
	commonsBaseScore   = 70.0
	commonsRankPenalty = 3.0
	commonsMaxAuthor   = 120
	commonsFilePage    = "https://commons.wikimedia.org/wiki/"
)

// CommonsConfig configures the Wikimedia Commons provider.
type CommonsConfig struct {
	Enabled        bool
	BaseURL        string
	UserAgent      string
	RequestsPerMin int
	Timeout        time.Duration
}

// CommonsProvider searches Wikimedia Commons for freely licensed bitmaps.
type CommonsProvider struct {
	cfg     CommonsConfig
	getter  httpGetter
	baseURL string
	logger  *zerolog.Logger
}

type commonsResponse struct {
	Query struct {
		Pages map[string]commonsPage `json:"pages"`
	} `json:"query"`
}

type commonsPage struct {
	Title     string             `json:"title"`
	Index     int                `json:"index"`
	ImageInfo []commonsImageInfo `json:"imageinfo"`
}

type commonsImageInfo struct {
	URL            string                      `json:"url"`
	ThumbURL       string                      `json:"thumburl"`
	ThumbWidth     int                         `json:"thumbwidth"`
	ThumbHeight    int                         `json:"thumbheight"`
	Width          int                         `json:"width"`
	Height         int                         `json:"height"`
	DescriptionURL string                      `json:"descriptionurl"`
	ExtMetadata    map[string]commonsMetaValue `json:"extmetadata"`
}

type commonsMetaValue struct {
	Value any `json:"value"`
}

// NewCommonsProvider creates the media-commons provider.
func NewCommonsProvider(cfg CommonsConfig, logger *zerolog.Logger) *CommonsProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://commons.wikimedia.org/w/api.php"
	}

	return &CommonsProvider{
		cfg:     cfg,
		getter:  newHTTPGetter(&http.Client{Timeout: cfg.Timeout}, cfg.RequestsPerMin, cfg.UserAgent),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// Source implements Provider.
func (p *CommonsProvider) Source() domain.ImageSource { return domain.ImageSourceMediaCommons }

// Enabled implements Provider.
func (p *CommonsProvider) Enabled() bool { return p.cfg.Enabled }

// Search implements Provider.
func (p *CommonsProvider) Search(ctx context.Context, imgCtx domain.ImageContext, limit int) ([]domain.ImageCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("generator", "search")
	q.Set("gsrsearch", imgCtx.Query+" filetype:bitmap")
	q.Set("gsrnamespace", "6")
	q.Set("gsrlimit", strconv.Itoa(limit))
	q.Set("prop", "imageinfo")
	q.Set("iiprop", "url|size|extmetadata")
	q.Set("iiurlwidth", strconv.Itoa(commonsThumbWidth))

	var resp commonsResponse
	if err := p.getter.json(ctx, p.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("commons search: %w", err)
	}

	pages := make([]commonsPage, 0, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		pages = append(pages, page)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	out := make([]domain.ImageCandidate, 0, len(pages))

	for rank, page := range pages {
		if len(page.ImageInfo) == 0 {
			continue
		}

		out = append(out, commonsCandidate(page, rank))
	}

	p.logger.Debug().Str("query", imgCtx.Query).Int("candidates", len(out)).Msg("commons image search")

	return out, nil
}

func commonsCandidate(page commonsPage, rank int) domain.ImageCandidate {
	info := page.ImageInfo[0]

	imageURL, width, height := info.URL, info.Width, info.Height
	if info.ThumbURL != "" {
		imageURL, width, height = info.ThumbURL, info.ThumbWidth, info.ThumbHeight
	}

	sourceURL := info.DescriptionURL
	if sourceURL == "" {
		sourceURL = commonsFilePage + url.PathEscape(strings.ReplaceAll(page.Title, " ", "_"))
	}

	return domain.ImageCandidate{
		URL:    imageURL,
		Source: domain.ImageSourceMediaCommons,
		Score:  commonsBaseScore - float64(rank)*commonsRankPenalty,
		Metadata: domain.ImageMetadata{
			Width:       width,
			Height:      height,
			AspectRatio: aspect(width, height),
			License:     metaString(info.ExtMetadata, "LicenseShortName"),
			Author:      htmlutils.Truncate(htmlutils.PlainText(metaString(info.ExtMetadata, "Artist")), commonsMaxAuthor),
			SourceURL:   sourceURL,
		},
		ValidationStatus: domain.ImageValid,
	}
}

func metaString(meta map[string]commonsMetaValue, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}

	switch val := v.Value.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

var _ Provider = (*CommonsProvider)(nil)
