package imagery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

const (
	placeholderBaseScore = 40.0
	placeholderWidth     = 1792
	placeholderHeight    = 1024
	placeholderLicense   = "AI-generated"
	placeholderAuthor    = "generated"
)

// PlaceholderConfig configures the AI placeholder provider. It is opt-in.
type PlaceholderConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
}

// PlaceholderProvider generates an editorial illustration when nothing else is
// usable. It never depicts real people.
type PlaceholderProvider struct {
	cfg    PlaceholderConfig
	client *openai.Client
	logger *zerolog.Logger
}

// NewPlaceholderProvider creates the ai-placeholder provider.
func NewPlaceholderProvider(cfg PlaceholderConfig, logger *zerolog.Logger) *PlaceholderProvider {
	if cfg.Model == "" {
		cfg.Model = openai.CreateImageModelDallE3
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &PlaceholderProvider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}
}

// Source implements Provider.
func (p *PlaceholderProvider) Source() domain.ImageSource { return domain.ImageSourceAIPlaceholder }

// Enabled implements Provider.
func (p *PlaceholderProvider) Enabled() bool { return p.cfg.Enabled && p.cfg.APIKey != "" }

// Search implements Provider and returns at most one generated image.
func (p *PlaceholderProvider) Search(ctx context.Context, imgCtx domain.ImageContext, _ int) ([]domain.ImageCandidate, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         placeholderPrompt(imgCtx),
		Model:          p.cfg.Model,
		N:              1,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create image: %w", apperrors.ErrSourceUnavailable, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, apperrors.ErrEmptyResponse
	}

	var emotion *float64

	if imgCtx.Emotion != "" {
		match := 1.0
		emotion = &match
	}

	p.logger.Debug().Str("query", imgCtx.Query).Msg("generated placeholder image")

	return []domain.ImageCandidate{{
		URL:    resp.Data[0].URL,
		Source: domain.ImageSourceAIPlaceholder,
		Score:  placeholderBaseScore,
		Metadata: domain.ImageMetadata{
			Width:        placeholderWidth,
			Height:       placeholderHeight,
			AspectRatio:  aspect(placeholderWidth, placeholderHeight),
			HasFace:      boolPtr(false),
			License:      placeholderLicense,
			Author:       placeholderAuthor,
			EmotionMatch: emotion,
		},
		ValidationStatus: domain.ImageValid,
	}}, nil
}

func placeholderPrompt(imgCtx domain.ImageContext) string {
	var sb strings.Builder

	sb.WriteString("Editorial illustration for an entertainment news story about ")
	sb.WriteString(strings.TrimSpace(imgCtx.Query))
	sb.WriteString(". Abstract cinematic composition, no text, no logos, no recognizable real people.")

	if imgCtx.Emotion != "" {
		sb.WriteString(" Mood: ")
		sb.WriteString(imgCtx.Emotion)
		sb.WriteString(".")
	}

	return sb.String()
}

var _ Provider = (*PlaceholderProvider)(nil)
