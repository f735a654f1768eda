package imagery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

const (
	defaultProviderTimeout = 8 * time.Second
	defaultMaxPerProvider  = 5
	selectionNone          = "none"
)

// Engine runs the provider cascade for one image context at a time.
type Engine struct {
	providers      []Provider
	breakers       map[domain.ImageSource]*circuitBreaker
	timeout        time.Duration
	maxPerProvider int
	logger         *zerolog.Logger
}

// NewEngine orders providers by source priority. Nil providers are ignored.
func NewEngine(providers []Provider, timeout time.Duration, maxPerProvider int, logger *zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	if maxPerProvider <= 0 {
		maxPerProvider = defaultMaxPerProvider
	}

	ordered := make([]Provider, 0, len(providers))
	breakers := make(map[domain.ImageSource]*circuitBreaker, len(providers))

	for _, p := range providers {
		if p == nil {
			continue
		}

		ordered = append(ordered, p)
		breakers[p.Source()] = newCircuitBreaker()
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return PriorityBonus(ordered[i].Source()) > PriorityBonus(ordered[j].Source())
	})

	return &Engine{
		providers:      ordered,
		breakers:       breakers,
		timeout:        timeout,
		maxPerProvider: maxPerProvider,
		logger:         logger,
	}
}

// Sources lists the enabled provider sources in priority order.
func (e *Engine) Sources() []domain.ImageSource {
	out := make([]domain.ImageSource, 0, len(e.providers))

	for _, p := range e.providers {
		if p.Enabled() {
			out = append(out, p.Source())
		}
	}

	return out
}

// SelectBestImage queries every enabled provider concurrently, rescores all
// candidates and returns the best one that is not rejected. A nil
// SelectedImage is a normal outcome.
func (e *Engine) SelectBestImage(ctx context.Context, imgCtx domain.ImageContext) domain.ImageSelection {
	if strings.TrimSpace(imgCtx.Query) == "" {
		observability.ImageSelections.WithLabelValues(selectionNone).Inc()

		return domain.ImageSelection{SelectionReason: "empty image query"}
	}

	perProvider := make([][]domain.ImageCandidate, len(e.providers))

	var g errgroup.Group

	for i, p := range e.providers {
		if !p.Enabled() {
			continue
		}

		g.Go(func() error {
			perProvider[i] = e.query(ctx, p, imgCtx)

			return nil
		})
	}

	_ = g.Wait()

	candidates := rank(perProvider, imgCtx)

	return e.choose(imgCtx, candidates)
}

// query never fails: errors, panics and timeouts contribute zero candidates.
func (e *Engine) query(ctx context.Context, p Provider, imgCtx domain.ImageContext) (out []domain.ImageCandidate) {
	source := p.Source()
	name := string(source)
	breaker := e.breakers[source]

	if !breaker.canAttempt() {
		observability.ImageProviderRequests.WithLabelValues(name, observability.StatusSkipped).Inc()
		e.logger.Debug().Str("provider", name).Err(apperrors.ErrCircuitBreakerOpen).Msg("image provider skipped")

		return nil
	}

	pctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			breaker.recordFailure()
			observability.ImageProviderRequests.WithLabelValues(name, observability.StatusError).Inc()
			e.logger.Error().Str("provider", name).Interface("panic", r).Msg("image provider panicked")

			out = nil
		}
	}()

	candidates, err := p.Search(pctx, imgCtx, e.maxPerProvider)

	observability.ImageProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		breaker.recordFailure()
		observability.ImageProviderRequests.WithLabelValues(name, observability.StatusError).Inc()
		e.logger.Warn().Err(err).Str("provider", name).Str("query", imgCtx.Query).Msg("image provider failed")

		return nil
	}

	breaker.recordSuccess()

	if len(candidates) == 0 {
		observability.ImageProviderRequests.WithLabelValues(name, observability.StatusEmpty).Inc()

		return nil
	}

	observability.ImageProviderRequests.WithLabelValues(name, observability.StatusSuccess).Inc()

	if len(candidates) > e.maxPerProvider {
		candidates = candidates[:e.maxPerProvider]
	}

	for i := range candidates {
		candidates[i].Source = source
	}

	return candidates
}

// rank flattens provider results in priority order, drops duplicate URLs,
// validates and rescores every candidate, then sorts by score descending.
func rank(perProvider [][]domain.ImageCandidate, imgCtx domain.ImageContext) []domain.ImageCandidate {
	seen := make(map[string]bool)

	var out []domain.ImageCandidate

	for _, candidates := range perProvider {
		for _, c := range candidates {
			key := strings.TrimSpace(c.URL)
			if key != "" && seen[key] {
				continue
			}

			seen[key] = true
			c.ValidationStatus = Validate(c)
			c.Score = Score(c, imgCtx)
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	return out
}

func (e *Engine) choose(imgCtx domain.ImageContext, candidates []domain.ImageCandidate) domain.ImageSelection {
	selection := domain.ImageSelection{Candidates: candidates}

	rejected := 0

	for i := range candidates {
		if candidates[i].ValidationStatus == domain.ImageRejected {
			rejected++

			continue
		}

		if selection.SelectedImage == nil {
			chosen := candidates[i]
			selection.SelectedImage = &chosen
		}
	}

	if selection.SelectedImage == nil {
		observability.ImageSelections.WithLabelValues(selectionNone).Inc()

		if len(candidates) == 0 {
			selection.SelectionReason = "no candidates returned"
		} else {
			selection.SelectionReason = fmt.Sprintf("all %d candidates rejected", len(candidates))
		}

		e.logger.Debug().Str("query", imgCtx.Query).Msg(selection.SelectionReason)

		return selection
	}

	chosen := selection.SelectedImage
	observability.ImageSelections.WithLabelValues(string(chosen.Source)).Inc()

	selection.SelectionReason = fmt.Sprintf("%s candidate scored %.1f, best of %d (%d rejected)",
		chosen.Source, chosen.Score, len(candidates), rejected)

	return selection
}
