package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

const (
	maxResponseBytes = 4 << 20
	headerUserAgent  = "User-Agent"
	defaultUserAgent = "trendpulse/1.0"
	defaultRPM       = 60
	secondsPerMinute = 60.0
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

func isNotFound(err error) bool {
	var se *statusError

	return errors.As(err, &se) && se.code == http.StatusNotFound
}

type httpGetter struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newHTTPGetter(client *http.Client, requestsPerMin int, userAgent string) httpGetter {
	if client == nil {
		client = http.DefaultClient
	}

	if requestsPerMin <= 0 {
		requestsPerMin = defaultRPM
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return httpGetter{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(float64(requestsPerMin)/secondsPerMinute), 1),
		userAgent: userAgent,
	}
}

func (g httpGetter) body(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, g.userAgent)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, apperrors.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %w: %w", apperrors.ErrSourceUnavailable, apperrors.ErrUnexpectedStatus, &statusError{code: resp.StatusCode})
	}

	return data, nil
}

func (g httpGetter) json(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	data, err := g.body(ctx, rawURL, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
