package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

// ModelClaudeHaiku is the default Anthropic model.
const ModelClaudeHaiku = "claude-haiku-4-5"

const contentTypeText = "text"

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	RPS       int
	MaxTokens int64
}

type anthropicProvider struct {
	cfg         AnthropicConfig
	client      anthropic.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg AnthropicConfig, logger *zerolog.Logger) Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Model == "" {
		cfg.Model = ModelClaudeHaiku
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	return &anthropicProvider{
		cfg:         cfg,
		client:      anthropic.NewClient(opts...),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), defaultRateLimiterBurst),
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

func (p *anthropicProvider) IsAvailable() bool {
	return p.cfg.APIKey != ""
}

func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

func (p *anthropicProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiterSimple, err)
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: p.cfg.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic messages: %w", err)
	}

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		return Completion{}, fmt.Errorf("anthropic: %w", apperrors.ErrEmptyResponse)
	}

	confidence := ConfidenceComplete
	if resp.StopReason == anthropic.StopReasonMaxTokens {
		confidence = ConfidenceTruncated
	}

	return Completion{
		Text:       text,
		Confidence: confidence,
		Provider:   ProviderAnthropic,
		Model:      p.cfg.Model,
	}, nil
}

// extractTextFromResponse extracts text content from Anthropic response.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

var _ Provider = (*anthropicProvider)(nil)
