package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

// OpenAIConfig configures the OpenAI chat provider.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	RPS       int
	MaxTokens int
}

type openaiProvider struct {
	cfg         OpenAIConfig
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a chat-completion provider backed by go-openai.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zerolog.Logger) Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), defaultRateLimiterBurst),
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.APIKey != ""
}

func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

func (p *openaiProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiterSimple, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: defaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("openai: %w", apperrors.ErrEmptyResponse)
	}

	choice := resp.Choices[0]

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return Completion{}, fmt.Errorf("openai: %w", apperrors.ErrEmptyResponse)
	}

	confidence := ConfidenceComplete
	if choice.FinishReason == openai.FinishReasonLength {
		confidence = ConfidenceTruncated
	}

	p.logger.Debug().
		Str(logKeyModel, p.cfg.Model).
		Str("finish_reason", string(choice.FinishReason)).
		Msg("openai completion received")

	return Completion{
		Text:       text,
		Confidence: confidence,
		Provider:   ProviderOpenAI,
		Model:      p.cfg.Model,
	}, nil
}

var _ Provider = (*openaiProvider)(nil)
