// Package synthesis turns a topic into a content draft.
//
// Generation goes through the pluggable AI capability first; any failure
// (capability unavailable, timeout, malformed output) falls back to a
// deterministic template with a low fixed confidence. Synthesis never fails.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/core/llm"
	"github.com/lueurxax/trendpulse/internal/ingest/trends"
	"github.com/lueurxax/trendpulse/internal/platform/htmlutils"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

const (
	defaultFallbackConfidence = 0.2
	maxTitleRunes             = 120
	maxTags                   = 8
	maxTagRunes               = 40
)

// ImageSelector picks an illustrative image for a context.
type ImageSelector interface {
	SelectBestImage(ctx context.Context, imgCtx domain.ImageContext) domain.ImageSelection
}

// Config tunes synthesis.
type Config struct {
	FallbackConfidence float64
	// GenerateTimeout bounds one AI call. Zero leaves the caller's deadline.
	GenerateTimeout time.Duration
}

// Synthesizer produces drafts for topics.
type Synthesizer struct {
	generator llm.Generator
	images    ImageSelector
	cfg       Config
	now       func() time.Time
	logger    *zerolog.Logger
}

type aiDraft struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags"`
	Confidence *float64 `json:"confidence"`
}

// NewSynthesizer creates a Synthesizer. generator and images may be nil.
func NewSynthesizer(generator llm.Generator, images ImageSelector, cfg Config, logger *zerolog.Logger) *Synthesizer {
	if cfg.FallbackConfidence <= 0 || cfg.FallbackConfidence >= 1 {
		cfg.FallbackConfidence = defaultFallbackConfidence
	}

	return &Synthesizer{
		generator: generator,
		images:    images,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// Synthesize returns a draft for topic. It always returns a usable draft.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string) domain.ContentDraft {
	return s.SynthesizeWithHint(ctx, topic, Hint{})
}

// SynthesizeWithHint is Synthesize with trend context from the cluster the topic came from.
func (s *Synthesizer) SynthesizeWithHint(ctx context.Context, topic string, hint Hint) domain.ContentDraft {
	topic = htmlutils.CollapseSpaces(topic)

	draft, err := s.generate(ctx, topic, hint)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("ai generation failed, using template fallback")

		draft = fallbackDraft(topic, s.cfg.FallbackConfidence)
	}

	observability.DraftsSynthesized.WithLabelValues(string(draft.Source)).Inc()

	s.attachImage(ctx, &draft, hint)
	draft.Slug = Slug(draft.Title, s.now())

	return draft
}

func (s *Synthesizer) generate(ctx context.Context, topic string, hint Hint) (domain.ContentDraft, error) {
	if s.generator == nil {
		return domain.ContentDraft{}, apperrors.ErrClientDisabled
	}

	if topic == "" {
		return domain.ContentDraft{}, apperrors.ErrInvalidInput
	}

	if s.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerateTimeout)
		defer cancel()
	}

	completion, err := s.generator.Generate(ctx, buildPrompt(topic, hint))
	if err != nil {
		return domain.ContentDraft{}, fmt.Errorf("generate: %w", err)
	}

	return parseDraft(topic, completion)
}

func parseDraft(topic string, completion llm.Completion) (domain.ContentDraft, error) {
	var out aiDraft
	if err := json.Unmarshal([]byte(llm.ExtractJSON(completion.Text)), &out); err != nil {
		return domain.ContentDraft{}, fmt.Errorf("%w: decode draft: %w", apperrors.ErrEmptyResponse, err)
	}

	title := htmlutils.Truncate(htmlutils.PlainText(out.Title), maxTitleRunes)
	body := strings.TrimSpace(out.Body)

	if title == "" || body == "" {
		return domain.ContentDraft{}, fmt.Errorf("%w: draft missing title or body", apperrors.ErrEmptyResponse)
	}

	return domain.ContentDraft{
		Topic:      topic,
		Title:      title,
		Body:       body,
		Tags:       normalizeTags(out.Tags),
		Confidence: draftConfidence(completion.Confidence, out.Confidence),
		Source:     domain.ContentSourceAI,
	}, nil
}

// draftConfidence is the provider's confidence, lowered by the model's own
// estimate when it reports one. A non-finite provider confidence counts as zero.
func draftConfidence(provider float64, selfReported *float64) float64 {
	if math.IsNaN(provider) || math.IsInf(provider, 0) {
		return 0
	}

	c := provider
	if selfReported != nil && !math.IsNaN(*selfReported) {
		c = math.Min(c, *selfReported)
	}

	return math.Max(0, math.Min(1, c))
}

func (s *Synthesizer) attachImage(ctx context.Context, draft *domain.ContentDraft, hint Hint) {
	if s.images == nil || draft.Topic == "" {
		return
	}

	entityType := hint.EntityType
	if entityType == "" {
		entityType, _ = trends.Classify(draft.Topic)
	}

	sel := s.images.SelectBestImage(ctx, domain.ImageContext{
		Query:         draft.Topic,
		EntityType:    entityType,
		PreferFace:    entityType == domain.EntityPerson,
		ReferenceURLs: hint.ReferenceURLs,
	})

	draft.ImageReason = sel.SelectionReason

	if sel.SelectedImage != nil {
		draft.ImageURL = sel.SelectedImage.URL
	}
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, t := range tags {
		t = strings.ToLower(htmlutils.Truncate(htmlutils.CollapseSpaces(t), maxTagRunes))
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		out = append(out, t)

		if len(out) == maxTags {
			break
		}
	}

	return out
}
