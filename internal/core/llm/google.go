package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

// ModelGeminiFlashLite is the cheapest Google model.
const ModelGeminiFlashLite = "gemini-2.5-flash-lite"

// GoogleConfig configures the Gemini provider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	RPS       int
	MaxTokens int32
}

type googleProvider struct {
	cfg         GoogleConfig
	client      *genai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewGoogleProvider creates a new Google Gemini LLM provider.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = ModelGeminiFlashLite
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	return &googleProvider{
		cfg:         cfg,
		client:      client,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), defaultRateLimiterBurst),
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

func (p *googleProvider) IsAvailable() bool {
	return p.cfg.APIKey != "" && p.client != nil
}

func (p *googleProvider) Priority() int {
	return PrioritySecondFallback
}

func (p *googleProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiterSimple, err)
	}

	model := p.client.GenerativeModel(p.cfg.Model)
	model.SetTemperature(defaultTemperature)
	model.SetMaxOutputTokens(p.cfg.MaxTokens)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(sanitizeUTF8(prompt)))
	if err != nil {
		return Completion{}, fmt.Errorf("google generate content: %w", err)
	}

	text := strings.TrimSpace(extractGoogleResponseText(resp))
	if text == "" {
		return Completion{}, fmt.Errorf("google: %w", apperrors.ErrEmptyResponse)
	}

	confidence := ConfidenceComplete
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		confidence = ConfidenceTruncated
	}

	return Completion{
		Text:       text,
		Confidence: confidence,
		Provider:   ProviderGoogle,
		Model:      p.cfg.Model,
	}, nil
}

// sanitizeUTF8 drops invalid UTF-8 sequences; the protobuf API rejects them.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, "")
}

// extractGoogleResponseText extracts text content from Google Gemini response.
func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}

	return result.String()
}

var _ Provider = (*googleProvider)(nil)
