package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

const maxResponseBytes = 4 << 20

// getBody performs a rate-limited GET and returns the body of a 200 response.
func getBody(ctx context.Context, client *http.Client, limiter *rate.Limiter, rawURL string, headers map[string]string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, defaultUserAgent)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, apperrors.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: "+errWrapFmtWithCode, apperrors.ErrSourceUnavailable, apperrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, nil
}

func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, rawURL string, headers map[string]string, out any) error {
	body, err := getBody(ctx, client, limiter, rawURL, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
