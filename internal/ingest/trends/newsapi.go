package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/platform/htmlutils"
)

const (
	newsAPIDefaultBaseURL  = "https://newsapi.org/v2"
	newsAPIDefaultTimeout  = 15 * time.Second
	newsAPIDefaultRPM      = 1 // Free tier: 100 requests/day
	newsAPIDefaultPageSize = 40
	newsAPIMaxPageSize     = 100
	newsAPIAuthHeader      = "X-Api-Key"
	newsAPICategory        = "entertainment"
	responseTruncateLen    = 200
	maxPublisherSuffix     = 40
)

var (
	errNewsAPIBadStatus = errors.New("newsapi bad status")
	errNewsAPIError     = errors.New("newsapi api error")
)

// NewsAPIConfig configures the news-api fetcher.
type NewsAPIConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	Country        string
	PageSize       int
	RequestsPerMin int
	Timeout        time.Duration
}

// NewsAPIFetcher reads entertainment top headlines. Headline rank maps linearly
// onto the score scale.
type NewsAPIFetcher struct {
	cfg         NewsAPIConfig
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewNewsAPIFetcher creates a news-api fetcher.
func NewNewsAPIFetcher(cfg NewsAPIConfig, logger *zerolog.Logger) *NewsAPIFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = newsAPIDefaultTimeout
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = newsAPIDefaultPageSize
	}

	if cfg.PageSize > newsAPIMaxPageSize {
		cfg.PageSize = newsAPIMaxPageSize
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = newsAPIDefaultBaseURL
	}

	return &NewsAPIFetcher{
		cfg:         cfg,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(perMinuteLimit(cfg.RequestsPerMin, newsAPIDefaultRPM)), 1),
		logger:      logger,
		now:         time.Now,
	}
}

func (f *NewsAPIFetcher) Source() domain.SignalSource {
	return domain.SourceNewsAPI
}

func (f *NewsAPIFetcher) Enabled() bool {
	return f.cfg.Enabled && f.cfg.APIKey != ""
}

// newsAPIResponse represents the JSON response from NewsAPI.
type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"` //nolint:tagliatelle // NewsAPI uses camelCase
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`  //nolint:tagliatelle // NewsAPI uses camelCase
	PublishedAt string `json:"publishedAt"` //nolint:tagliatelle // NewsAPI uses camelCase
}

type newsAPIErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (f *NewsAPIFetcher) Fetch(ctx context.Context) ([]domain.TrendSignal, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("newsapi rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.buildURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create newsapi request: %w", err)
	}

	req.Header.Set(newsAPIAuthHeader, f.cfg.APIKey)
	req.Header.Set(headerUserAgent, defaultUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w: %w", apperrors.ErrSourceUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("newsapi: %w: %w", apperrors.ErrSourceUnavailable, apperrors.ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		if err := checkNewsAPIError(body); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf(errWrapFmtWithCode, apperrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	return f.parseResponse(body)
}

func (f *NewsAPIFetcher) buildURL() string {
	params := url.Values{}
	params.Set("category", newsAPICategory)
	params.Set("pageSize", strconv.Itoa(f.cfg.PageSize))

	if f.cfg.Country != "" {
		params.Set("country", strings.ToLower(f.cfg.Country))
	}

	return f.baseURL + "/top-headlines?" + params.Encode()
}

func (f *NewsAPIFetcher) parseResponse(body []byte) ([]domain.TrendSignal, error) {
	if err := checkNewsAPIError(body); err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse newsapi json: %w", err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: %s", errNewsAPIBadStatus, resp.Status)
	}

	fallbackTS := snapshotTime(f.now())
	total := len(resp.Articles)
	signals := make([]domain.TrendSignal, 0, total)

	for rank, article := range resp.Articles {
		keyword := headlineKeyword(article.Title, article.Source.Name)
		if keyword == "" || article.URL == "" {
			continue
		}

		ts := fallbackTS

		if article.PublishedAt != "" {
			if t, err := dateparse.ParseAny(article.PublishedAt); err == nil {
				ts = t.UTC()
			}
		}

		s := newSignal(domain.SourceNewsAPI, keyword, ts)
		s.RawScore = float64(total - rank)
		s.NormalizedScore = RankLinear(rank, total)
		s.ReferenceURL = article.URL
		s.EntityType = domain.EntityArticle

		applyClassification(&s, keyword+" "+htmlutils.PlainText(article.Description))

		signals = append(signals, s)
	}

	return signals, nil
}

// headlineKeyword drops the " - Publisher" suffix NewsAPI appends to titles.
func headlineKeyword(title, sourceName string) string {
	title = htmlutils.PlainText(title)

	if sourceName != "" {
		return strings.TrimSpace(strings.TrimSuffix(title, " - "+sourceName))
	}

	if i := strings.LastIndex(title, " - "); i > 0 && len(title)-i < maxPublisherSuffix {
		title = title[:i]
	}

	return strings.TrimSpace(title)
}

func checkNewsAPIError(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		errMsg := htmlutils.Truncate(string(trimmed), responseTruncateLen)

		return fmt.Errorf("%w: %s", errNewsAPIError, errMsg)
	}

	var errResp newsAPIErrorResponse
	if err := json.Unmarshal(trimmed, &errResp); err == nil && errResp.Status == "error" {
		return fmt.Errorf("%w: %s (%s)", errNewsAPIError, errResp.Message, errResp.Code)
	}

	return nil
}
