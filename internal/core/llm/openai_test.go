package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

func newOpenAITestServer(t *testing.T, content, finishReason string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)

			return
		}

		var req struct {
			Model string `json:"model"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": finishReason,
				},
			},
		})
	}))
}

func TestOpenAIProvider_Complete(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		finishReason   string
		wantConfidence float64
		wantErr        error
	}{
		{name: "complete", content: `{"title":"A"}`, finishReason: "stop", wantConfidence: ConfidenceComplete},
		{name: "truncated", content: `{"title":"A"`, finishReason: "length", wantConfidence: ConfidenceTruncated},
		{name: "empty", content: "  ", finishReason: "stop", wantErr: apperrors.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newOpenAITestServer(t, tt.content, tt.finishReason)
			defer srv.Close()

			logger := zerolog.Nop()
			p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", RPS: 100}, &logger)

			got, err := p.Complete(context.Background(), "prompt")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, ProviderOpenAI, got.Provider)
			assert.Equal(t, "gpt-4o-mini", got.Model)
		})
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", RPS: 100}, &logger)

	_, err := p.Complete(context.Background(), "prompt")
	require.Error(t, err)
}

func TestOpenAIProvider_AvailabilityFollowsKey(t *testing.T) {
	logger := zerolog.Nop()

	assert.False(t, NewOpenAIProvider(OpenAIConfig{}, &logger).IsAvailable())
	assert.True(t, NewOpenAIProvider(OpenAIConfig{APIKey: "k"}, &logger).IsAvailable())
}
