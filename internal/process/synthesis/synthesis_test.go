package synthesis

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/llm"
)

var errCapability = errors.New("capability error")

const aiDraftJSON = "```json\n" + `{"title":"Pushpa 2 crosses a new milestone","body":"First paragraph.\n\nSecond paragraph.","tags":["Pushpa 2","Allu Arjun","pushpa 2"," Telugu "],"confidence":0.7}` + "\n```"

type stubGenerator struct {
	mu    sync.Mutex
	fail  map[string]bool
	text  string
	conf  float64
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (llm.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++

	for topic := range g.fail {
		if strings.Contains(prompt, "Topic: "+topic) {
			return llm.Completion{}, errCapability
		}
	}

	return llm.Completion{Text: g.text, Confidence: g.conf, Provider: llm.ProviderMock}, nil
}

type stubImages struct {
	mu      sync.Mutex
	url     string
	queries []domain.ImageContext
}

func (s *stubImages) SelectBestImage(_ context.Context, imgCtx domain.ImageContext) domain.ImageSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, imgCtx)

	if s.url == "" {
		return domain.ImageSelection{SelectionReason: "no candidates returned"}
	}

	return domain.ImageSelection{
		SelectedImage:   &domain.ImageCandidate{URL: s.url, Source: domain.ImageSourceStructuredDB},
		SelectionReason: "structured-db candidate",
	}
}

func newTestSynthesizer(gen llm.Generator, images ImageSelector) *Synthesizer {
	logger := zerolog.Nop()
	s := NewSynthesizer(gen, images, Config{FallbackConfidence: 0.2}, &logger)
	s.now = func() time.Time { return time.UnixMilli(1735812000000) }

	return s
}

func TestSynthesize_AIDraft(t *testing.T) {
	images := &stubImages{url: "https://image.example/pushpa.jpg"}
	s := newTestSynthesizer(&stubGenerator{text: aiDraftJSON, conf: llm.ConfidenceComplete}, images)

	d := s.Synthesize(context.Background(), "  Pushpa 2  ")

	assert.Equal(t, domain.ContentSourceAI, d.Source)
	assert.Equal(t, "Pushpa 2", d.Topic)
	assert.Equal(t, "Pushpa 2 crosses a new milestone", d.Title)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", d.Body)
	assert.Equal(t, []string{"pushpa 2", "allu arjun", "telugu"}, d.Tags)
	assert.InDelta(t, 0.7, d.Confidence, 0.0001)
	assert.Equal(t, "https://image.example/pushpa.jpg", d.ImageURL)
	assert.Equal(t, "pushpa-2-crosses-a-new-milestone-"+"m5f5nb40", d.Slug)

	require.Len(t, images.queries, 1)
	assert.Equal(t, "Pushpa 2", images.queries[0].Query)
}

func TestSynthesize_FallbackOnFailure(t *testing.T) {
	topics := []string{"Pushpa 2", "Kalki 2898 AD", "Devara", "Coolie", "Game Changer"}
	gen := &stubGenerator{text: aiDraftJSON, conf: llm.ConfidenceComplete, fail: map[string]bool{"Devara": true}}
	s := newTestSynthesizer(gen, nil)

	drafts := make([]domain.ContentDraft, 0, len(topics))
	for _, topic := range topics {
		drafts = append(drafts, s.Synthesize(context.Background(), topic))
	}

	require.Len(t, drafts, len(topics))

	for i, d := range drafts {
		assert.Equal(t, topics[i], d.Topic)

		if d.Topic == "Devara" {
			assert.Equal(t, domain.ContentSourceFallback, d.Source)
			assert.InDelta(t, 0.2, d.Confidence, 0.0001)
			assert.Less(t, d.Confidence, llm.ConfidenceComplete)
			assert.Equal(t, "Devara: What We Know So Far", d.Title)
			assert.Contains(t, d.Body, "Devara is drawing attention")
			assert.NotEmpty(t, d.Slug)

			continue
		}

		assert.Equal(t, domain.ContentSourceAI, d.Source)
	}
}

func TestSynthesize_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		gen  llm.Generator
	}{
		{"no capability", nil},
		{"malformed output", &stubGenerator{text: "I cannot help with that."}},
		{"missing body", &stubGenerator{text: `{"title":"Only a title"}`, conf: 0.8}},
		{"registry without providers", llm.NewRegistry(time.Second, nopLogger())},
		{"provider error", registryWith(llm.NewMockProvider(llm.MockResponse{Err: errCapability}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynthesizer(tt.gen, nil)

			d := s.Synthesize(context.Background(), "coolie teaser")

			assert.Equal(t, domain.ContentSourceFallback, d.Source)
			assert.Equal(t, "Coolie Teaser: What We Know So Far", d.Title)
			assert.Equal(t, []string{"coolie teaser"}, d.Tags)
			assert.True(t, strings.HasPrefix(d.Slug, "coolie-teaser-what-we-know-so-far-"))
		})
	}
}

func TestSynthesize_ThroughRegistry(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: aiDraftJSON, Confidence: llm.ConfidenceTruncated})
	s := newTestSynthesizer(registryWith(mock), nil)

	d := s.Synthesize(context.Background(), "Pushpa 2")

	assert.Equal(t, domain.ContentSourceAI, d.Source)
	assert.InDelta(t, llm.ConfidenceTruncated, d.Confidence, 0.0001)
	require.Len(t, mock.Calls(), 1)
	assert.Contains(t, mock.Calls()[0], "Topic: Pushpa 2")
}

func TestSynthesize_ImageAbsenceNotFatal(t *testing.T) {
	images := &stubImages{}
	s := newTestSynthesizer(&stubGenerator{text: aiDraftJSON, conf: 0.8}, images)

	d := s.SynthesizeWithHint(context.Background(), "Allu Arjun", Hint{
		EntityType:    domain.EntityPerson,
		ReferenceURLs: []string{"https://news.example/a"},
	})

	assert.Equal(t, domain.ContentSourceAI, d.Source)
	assert.Empty(t, d.ImageURL)
	assert.Equal(t, "no candidates returned", d.ImageReason)

	require.Len(t, images.queries, 1)
	assert.True(t, images.queries[0].PreferFace)
	assert.Equal(t, []string{"https://news.example/a"}, images.queries[0].ReferenceURLs)
}

func TestDraftConfidence(t *testing.T) {
	self := 0.3
	high := 1.7

	assert.InDelta(t, 0.8, draftConfidence(0.8, nil), 0.0001)
	assert.InDelta(t, 0.3, draftConfidence(0.8, &self), 0.0001)
	assert.InDelta(t, 0.8, draftConfidence(0.8, &high), 0.0001)
	assert.InDelta(t, 1.0, draftConfidence(3, nil), 0.0001)
	assert.Zero(t, draftConfidence(math.NaN(), nil))
	assert.Zero(t, draftConfidence(math.NaN(), &self))
	assert.Zero(t, draftConfidence(math.Inf(1), nil))
}

func TestSynthesize_ConcurrentCallsAreIndependent(t *testing.T) {
	const workers = 30

	gen := &stubGenerator{text: aiDraftJSON, conf: 0.8, fail: map[string]bool{"Café Déjà Vu": true}}
	s := newTestSynthesizer(gen, nil)

	topics := []string{"Café Déjà Vu", "Pushpa 2"}
	drafts := make([]domain.ContentDraft, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			drafts[i] = s.Synthesize(context.Background(), topics[i%len(topics)])
		}()
	}

	wg.Wait()

	for i, d := range drafts {
		if i%len(topics) == 0 {
			assert.Equal(t, domain.ContentSourceFallback, d.Source)
			assert.Equal(t, "Café Déjà Vu: What We Know So Far", d.Title)
			assert.True(t, strings.HasPrefix(d.Slug, "cafe-deja-vu-what-we-know-so-far-"), d.Slug)

			continue
		}

		assert.Equal(t, domain.ContentSourceAI, d.Source)
		assert.True(t, strings.HasPrefix(d.Slug, "pushpa-2-crosses-a-new-milestone-"), d.Slug)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("Devara", Hint{Category: "movies", Keywords: []string{"devara trailer", "ntr"}})

	assert.Contains(t, p, "Topic: Devara")
	assert.Contains(t, p, "Category: movies")
	assert.Contains(t, p, "Related searches: devara trailer, ntr")
	assert.NotContains(t, p, promptContextPlaceholder)
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()

	return &logger
}

func registryWith(p llm.Provider) *llm.Registry {
	r := llm.NewRegistry(time.Second, nopLogger())
	r.Register(p, llm.CircuitBreakerConfig{})

	return r
}
