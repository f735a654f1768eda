package validation

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/process/synthesis"
)

var longBody = strings.Repeat("Verified details about the release. ", 15)

type stubSynth struct {
	mu       sync.Mutex
	drafts   map[string]domain.ContentDraft
	delay    time.Duration
	active   atomic.Int32
	peak     atomic.Int32
	calls    []string
	lastHint synthesis.Hint
}

func (s *stubSynth) SynthesizeWithHint(_ context.Context, topic string, hint synthesis.Hint) domain.ContentDraft {
	n := s.active.Add(1)
	defer s.active.Add(-1)

	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.calls = append(s.calls, topic)
	s.lastHint = hint
	d, ok := s.drafts[topic]
	s.mu.Unlock()

	if !ok {
		d = goodDraft(topic, 0.8)
	}

	return d
}

func goodDraft(topic string, confidence float64) domain.ContentDraft {
	return domain.ContentDraft{
		Topic:      topic,
		Title:      topic + " update",
		Body:       longBody,
		Tags:       []string{strings.ToLower(topic)},
		Slug:       synthesis.Slug(topic, time.UnixMilli(1735812000000)),
		Confidence: confidence,
		Source:     domain.ContentSourceAI,
	}
}

func fallbackDraft(topic string) domain.ContentDraft {
	d := goodDraft(topic, 0.2)
	d.Source = domain.ContentSourceFallback

	return d
}

func newTestPipeline(synth Synthesizer, cfg Config) *Pipeline {
	logger := zerolog.Nop()

	return NewPipeline(synth, cfg, &logger)
}

var batchTopics = []string{"Pushpa 2", "Devara", "Kalki 2898 AD", "Coolie", "Game Changer"}

func TestPipeline_ContinueOnErrorPartition(t *testing.T) {
	synth := &stubSynth{drafts: map[string]domain.ContentDraft{
		"Devara": fallbackDraft("Devara"),
		"Coolie": {Topic: "Coolie", Title: "", Body: "short", Confidence: 0.9, Source: domain.ContentSourceAI},
	}}
	p := newTestPipeline(synth, Config{Concurrency: 3})

	res := p.GenerateValidatedDrafts(context.Background(), batchTopics, DefaultOptions())

	assert.Len(t, res.Successful, 3)
	assert.Len(t, res.Failed, 2)
	assert.Equal(t, len(batchTopics), len(res.Successful)+len(res.Failed))
	assert.False(t, res.Summary.Halted)
	assert.Equal(t, 5, res.Summary.Attempted)

	for _, s := range res.Successful {
		assert.Equal(t, batchTopics[s.Index], s.Topic)
		assert.Equal(t, s.Topic, s.Draft.Topic)
	}

	assert.Equal(t, []int{0, 2, 4}, []int{res.Successful[0].Index, res.Successful[1].Index, res.Successful[2].Index})

	devara := res.Failed[0]
	assert.Equal(t, "Devara", devara.Topic)
	assert.Contains(t, devara.Errors, "template fallback content is not publication-ready")

	coolie := res.Failed[1]
	assert.Equal(t, 3, coolie.Index)
	assert.Contains(t, coolie.Errors, "title is empty")
	assert.Contains(t, coolie.Errors, "slug is empty")
	assert.Len(t, coolie.Errors, 3)

	assert.InDelta(t, (0.8*3+0.2+0.9)/5, res.Summary.AvgConfidence, 0.0001)
}

func TestPipeline_HaltsOnFirstRejection(t *testing.T) {
	synth := &stubSynth{drafts: map[string]domain.ContentDraft{
		"Devara": fallbackDraft("Devara"),
	}}
	p := newTestPipeline(synth, Config{Concurrency: 3})

	res := p.GenerateValidatedDrafts(context.Background(), batchTopics, Options{ContinueOnError: false})

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "Devara", res.Failed[0].Topic)
	require.Len(t, res.Successful, 1)
	assert.Equal(t, "Pushpa 2", res.Successful[0].Topic)
	assert.True(t, res.Summary.Halted)
	assert.Equal(t, 3, res.Summary.Skipped)
	assert.Equal(t, 2, res.Summary.Attempted)
	assert.Equal(t, []string{"Pushpa 2", "Devara"}, synth.calls)
	assert.InDelta(t, 0.5, res.Summary.AvgConfidence, 0.0001)
}

func TestPipeline_RejectionOnLastTopicIsNotAHalt(t *testing.T) {
	synth := &stubSynth{drafts: map[string]domain.ContentDraft{
		"Game Changer": fallbackDraft("Game Changer"),
	}}
	p := newTestPipeline(synth, Config{})

	res := p.GenerateValidatedDrafts(context.Background(), batchTopics, Options{})

	assert.False(t, res.Summary.Halted)
	assert.Len(t, res.Successful, 4)
	assert.Len(t, res.Failed, 1)
}

func TestPipeline_ConfidenceGate(t *testing.T) {
	synth := &stubSynth{drafts: map[string]domain.ContentDraft{
		"Pushpa 2": goodDraft("Pushpa 2", 0.59),
		"Devara":   goodDraft("Devara", 0.6),
		"Coolie":   fallbackDraft("Coolie"),
	}}
	p := newTestPipeline(synth, Config{MinConfidence: 0.6, AllowFallback: true})

	res := p.GenerateValidatedDrafts(context.Background(), []string{"Pushpa 2", "Devara", "Coolie"}, DefaultOptions())

	require.Len(t, res.Successful, 1)
	assert.Equal(t, "Devara", res.Successful[0].Topic)

	for _, f := range res.Failed {
		assert.Contains(t, strings.Join(f.Errors, ";"), "below the 0.60 floor")
		assert.NotContains(t, f.Errors, "template fallback content is not publication-ready")
	}
}

func TestPipeline_NonFiniteConfidenceRejected(t *testing.T) {
	synth := &stubSynth{drafts: map[string]domain.ContentDraft{
		"Pushpa 2": goodDraft("Pushpa 2", math.NaN()),
		"Devara":   goodDraft("Devara", math.Inf(1)),
	}}
	p := newTestPipeline(synth, Config{MinConfidence: 0.6})

	res := p.GenerateValidatedDrafts(context.Background(), []string{"Pushpa 2", "Devara", "Coolie"}, DefaultOptions())

	require.Len(t, res.Successful, 1)
	assert.Equal(t, "Coolie", res.Successful[0].Topic)
	require.Len(t, res.Failed, 2)

	for _, f := range res.Failed {
		assert.Contains(t, f.Errors, "confidence is not a finite number")
		assert.Zero(t, f.Confidence)
	}

	assert.False(t, math.IsNaN(res.Summary.AvgConfidence))
	assert.InDelta(t, 0.8/3, res.Summary.AvgConfidence, 0.0001)
}

func TestFailure_Err(t *testing.T) {
	f := Failure{Topic: "Devara", Errors: []string{"title is empty", "slug is empty"}}

	err := f.Err()

	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, err.Error(), `topic "Devara": title is empty; slug is empty`)
}

func TestPipeline_RealSynthesizerUnderPool(t *testing.T) {
	logger := zerolog.Nop()
	synth := synthesis.NewSynthesizer(nil, nil, synthesis.Config{FallbackConfidence: 0.2}, &logger)
	p := newTestPipeline(synth, Config{Concurrency: 3})

	topics := make([]string, 30)
	for i := range topics {
		topics[i] = "Café Premiere " + strconv.Itoa(i)
	}

	res := p.GenerateValidatedDrafts(context.Background(), topics, DefaultOptions())

	assert.Empty(t, res.Successful)
	require.Len(t, res.Failed, len(topics))

	for i, f := range res.Failed {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, topics[i], f.Topic)
		assert.Equal(t, domain.ContentSourceFallback, f.Source)
		assert.InDelta(t, 0.2, f.Confidence, 0.0001)
	}
}

func TestPipeline_BoundedConcurrency(t *testing.T) {
	synth := &stubSynth{delay: 20 * time.Millisecond}
	p := newTestPipeline(synth, Config{Concurrency: 2})

	topics := make([]string, 8)
	for i := range topics {
		topics[i] = "topic " + string(rune('a'+i))
	}

	res := p.GenerateValidatedDrafts(context.Background(), topics, DefaultOptions())

	assert.Len(t, res.Successful, 8)
	assert.LessOrEqual(t, synth.peak.Load(), int32(2))
}

func TestPipeline_BatchTimeoutKeepsPartition(t *testing.T) {
	synth := &stubSynth{delay: 50 * time.Millisecond}
	p := newTestPipeline(synth, Config{Concurrency: 1, BatchTimeout: 20 * time.Millisecond})

	res := p.GenerateValidatedDrafts(context.Background(), []string{"a", "b", "c"}, DefaultOptions())

	assert.Equal(t, 3, len(res.Successful)+len(res.Failed))
	assert.Equal(t, 1, res.Summary.Attempted)
	require.Len(t, res.Failed, 2)
	assert.Contains(t, res.Failed[0].Errors[0], "batch stopped before topic started")
}

func TestPipeline_Limit(t *testing.T) {
	synth := &stubSynth{}
	p := newTestPipeline(synth, Config{})

	res := p.GenerateValidatedDrafts(context.Background(), batchTopics, Options{ContinueOnError: true, Limit: 2})

	assert.Equal(t, 2, res.Summary.Total)
	assert.Len(t, res.Successful, 2)
}

func TestPipeline_EmptyBatch(t *testing.T) {
	p := newTestPipeline(&stubSynth{}, Config{})

	res := p.GenerateValidatedDrafts(context.Background(), nil, DefaultOptions())

	assert.Empty(t, res.Successful)
	assert.Empty(t, res.Failed)
	assert.Zero(t, res.Summary.AvgConfidence)
}

func TestPipeline_PassesHints(t *testing.T) {
	synth := &stubSynth{}
	p := newTestPipeline(synth, Config{})

	hint := synthesis.Hint{Category: domain.CategoryMovies, ReferenceURLs: []string{"https://news.example/a"}}
	p.Run(context.Background(), []TopicRequest{{Topic: "Devara", Hint: hint}}, DefaultOptions())

	assert.Equal(t, hint, synth.lastHint)
}
