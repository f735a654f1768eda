// Package validation turns a batch of topics into validated drafts.
//
// Each topic moves through PENDING → SYNTHESIZING → VALIDATING and ends ACCEPTED
// or REJECTED. Topics run on a bounded worker pool; results keep input order.
// With ContinueOnError disabled topics run one at a time and the batch halts at
// the first rejection.
package validation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
	"github.com/lueurxax/trendpulse/internal/process/synthesis"
)

// State is a topic's position in the validation state machine.
type State string

// Topic states.
const (
	StatePending      State = "PENDING"
	StateSynthesizing State = "SYNTHESIZING"
	StateValidating   State = "VALIDATING"
	StateAccepted     State = "ACCEPTED"
	StateRejected     State = "REJECTED"
)

// Outcome metric labels.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeSkipped  = "skipped"
)

// Defaults.
const (
	DefaultMinConfidence = 0.6
	DefaultMinBodyLength = 400
	DefaultConcurrency   = 3
	DefaultBatchTimeout  = 10 * time.Minute
)

// Synthesizer produces a draft for a topic and never fails.
type Synthesizer interface {
	SynthesizeWithHint(ctx context.Context, topic string, hint synthesis.Hint) domain.ContentDraft
}

// Config holds acceptance rules and pool sizing.
type Config struct {
	MinConfidence float64
	MinBodyLength int
	AllowFallback bool
	Concurrency   int
	BatchTimeout  time.Duration
}

// Options control one batch.
type Options struct {
	Verbose         bool
	ContinueOnError bool
	// Limit caps how many topics are processed. Zero means all.
	Limit int
}

// DefaultOptions continues past rejected topics.
func DefaultOptions() Options {
	return Options{ContinueOnError: true}
}

// TopicRequest is one topic with optional trend context.
type TopicRequest struct {
	Topic string
	Hint  synthesis.Hint
}

// Success is an accepted topic. Confidence and provenance are stripped.
type Success struct {
	Index int                     `json:"index"`
	Topic string                  `json:"topic"`
	Draft domain.PublishableDraft `json:"draft"`
}

// Failure is a rejected topic with the reasons it failed. Source and
// Confidence describe the rejected draft and are empty when the topic never
// reached synthesis.
type Failure struct {
	Index      int                  `json:"index"`
	Topic      string               `json:"topic"`
	Source     domain.ContentSource `json:"source,omitempty"`
	Confidence float64              `json:"confidence"`
	Errors     []string             `json:"errors"`
}

// Err wraps the rejection reasons in apperrors.ErrValidationFailed.
func (f Failure) Err() error {
	return fmt.Errorf("%w: topic %q: %s", apperrors.ErrValidationFailed, f.Topic, strings.Join(f.Errors, "; "))
}

// Summary reports batch-level figures.
type Summary struct {
	Total         int           `json:"total"`
	Attempted     int           `json:"attempted"`
	Accepted      int           `json:"accepted"`
	Rejected      int           `json:"rejected"`
	Skipped       int           `json:"skipped"`
	Halted        bool          `json:"halted"`
	AvgConfidence float64       `json:"avg_confidence"`
	Duration      time.Duration `json:"duration"`
}

// Result is the partition of a batch.
type Result struct {
	Successful []Success `json:"successful"`
	Failed     []Failure `json:"failed"`
	Summary    Summary   `json:"summary"`
}

type outcome struct {
	attempted  bool
	state      State
	draft      domain.ContentDraft
	confidence float64
	errs       []string
}

// Pipeline validates topic batches.
type Pipeline struct {
	synth  Synthesizer
	cfg    Config
	logger *zerolog.Logger
}

// NewPipeline creates a Pipeline with defaults for unset config fields.
func NewPipeline(synth Synthesizer, cfg Config, logger *zerolog.Logger) *Pipeline {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}

	if cfg.MinBodyLength <= 0 {
		cfg.MinBodyLength = DefaultMinBodyLength
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}

	return &Pipeline{synth: synth, cfg: cfg, logger: logger}
}

// GenerateValidatedDrafts validates plain topics.
func (p *Pipeline) GenerateValidatedDrafts(ctx context.Context, topics []string, opts Options) Result {
	reqs := make([]TopicRequest, 0, len(topics))
	for _, t := range topics {
		reqs = append(reqs, TopicRequest{Topic: t})
	}

	return p.Run(ctx, reqs, opts)
}

// Run validates a batch. It never fails; per-topic problems land in Failed.
func (p *Pipeline) Run(ctx context.Context, topics []TopicRequest, opts Options) Result {
	start := time.Now()

	if opts.Limit > 0 && len(topics) > opts.Limit {
		topics = topics[:opts.Limit]
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.BatchTimeout)
	defer cancel()

	outcomes := make([]outcome, len(topics))
	halted := false

	if opts.ContinueOnError {
		p.runPool(ctx, topics, outcomes, opts)
	} else {
		halted = p.runSequential(ctx, topics, outcomes, opts)
	}

	res := aggregate(topics, outcomes)
	res.Summary.Halted = halted
	res.Summary.Duration = time.Since(start)

	for _, f := range res.Failed {
		p.logger.Debug().Err(f.Err()).Int("index", f.Index).Str("source", string(f.Source)).Msg("topic rejected")
	}

	observability.ValidationBatchDuration.Observe(res.Summary.Duration.Seconds())
	observability.ValidationAvgConfidence.Set(res.Summary.AvgConfidence)

	p.logger.Info().
		Int("topics", res.Summary.Total).
		Int("accepted", res.Summary.Accepted).
		Int("rejected", res.Summary.Rejected).
		Int("skipped", res.Summary.Skipped).
		Bool("halted", halted).
		Float64("avg_confidence", res.Summary.AvgConfidence).
		Dur("duration", res.Summary.Duration).
		Msg("validation batch finished")

	return res
}

func (p *Pipeline) runPool(ctx context.Context, topics []TopicRequest, outcomes []outcome, opts Options) {
	var g errgroup.Group

	g.SetLimit(p.cfg.Concurrency)

	for i, t := range topics {
		g.Go(func() error {
			outcomes[i] = p.process(ctx, i, t, opts)

			return nil
		})
	}

	_ = g.Wait()
}

// runSequential stops at the first rejection and reports whether it halted early.
func (p *Pipeline) runSequential(ctx context.Context, topics []TopicRequest, outcomes []outcome, opts Options) bool {
	for i, t := range topics {
		outcomes[i] = p.process(ctx, i, t, opts)

		if outcomes[i].state == StateRejected {
			return i < len(topics)-1
		}
	}

	return false
}

func (p *Pipeline) process(ctx context.Context, index int, req TopicRequest, opts Options) outcome {
	out := outcome{state: StatePending}

	if err := ctx.Err(); err != nil {
		out.state = StateRejected
		out.errs = []string{fmt.Sprintf("batch stopped before topic started: %v", err)}
		p.transition(opts, index, req.Topic, out.state)

		return out
	}

	out.attempted = true
	out.state = StateSynthesizing
	p.transition(opts, index, req.Topic, out.state)

	out.draft = p.synth.SynthesizeWithHint(ctx, req.Topic, req.Hint)
	out.confidence = out.draft.Confidence
	if math.IsNaN(out.confidence) || math.IsInf(out.confidence, 0) {
		out.confidence = 0
	}

	out.state = StateValidating
	p.transition(opts, index, req.Topic, out.state)

	out.errs = p.check(out.draft)
	if len(out.errs) > 0 {
		out.state = StateRejected
	} else {
		out.state = StateAccepted
	}

	p.transition(opts, index, req.Topic, out.state)

	return out
}

// check applies acceptance rules and returns one reason per failed rule.
func (p *Pipeline) check(d domain.ContentDraft) []string {
	var errs []string

	if d.Title == "" {
		errs = append(errs, "title is empty")
	}

	if n := utf8.RuneCountInString(d.Body); n < p.cfg.MinBodyLength {
		errs = append(errs, fmt.Sprintf("body has %d characters, minimum is %d", n, p.cfg.MinBodyLength))
	}

	switch {
	case math.IsNaN(d.Confidence) || math.IsInf(d.Confidence, 0):
		errs = append(errs, "confidence is not a finite number")
	case d.Confidence < p.cfg.MinConfidence:
		errs = append(errs, fmt.Sprintf("confidence %.2f is below the %.2f floor", d.Confidence, p.cfg.MinConfidence))
	}

	if d.Source == domain.ContentSourceFallback && !p.cfg.AllowFallback {
		errs = append(errs, "template fallback content is not publication-ready")
	}

	if d.Slug == "" {
		errs = append(errs, "slug is empty")
	}

	return errs
}

func (p *Pipeline) transition(opts Options, index int, topic string, state State) {
	ev := p.logger.Debug()
	if opts.Verbose {
		ev = p.logger.Info()
	}

	ev.Int("index", index).Str("topic", topic).Str("state", string(state)).Msg("topic state")
}

func aggregate(topics []TopicRequest, outcomes []outcome) Result {
	res := Result{
		Successful: []Success{},
		Failed:     []Failure{},
		Summary:    Summary{Total: len(topics)},
	}

	var confidenceSum float64

	for i, o := range outcomes {
		if o.attempted {
			res.Summary.Attempted++
			confidenceSum += o.confidence
		}

		switch o.state {
		case StateAccepted:
			res.Successful = append(res.Successful, Success{Index: i, Topic: topics[i].Topic, Draft: o.draft.Publishable()})
			res.Summary.Accepted++
			observability.ValidationOutcomes.WithLabelValues(outcomeAccepted).Inc()
		case StateRejected:
			res.Failed = append(res.Failed, Failure{
				Index:      i,
				Topic:      topics[i].Topic,
				Source:     o.draft.Source,
				Confidence: o.confidence,
				Errors:     o.errs,
			})
			res.Summary.Rejected++
			observability.ValidationOutcomes.WithLabelValues(outcomeRejected).Inc()
		default:
			res.Summary.Skipped++
			observability.ValidationOutcomes.WithLabelValues(outcomeSkipped).Inc()
		}
	}

	if res.Summary.Attempted > 0 {
		res.Summary.AvgConfidence = confidenceSum / float64(res.Summary.Attempted)
	}

	return res
}
