package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

// Metric values for provider availability gauge.
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
)

// Registry manages LLM providers with fallback support.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*CircuitBreaker
	timeout         time.Duration
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry. Every provider call is bounded by timeout.
func NewRegistry(timeout time.Duration, logger *zerolog.Logger) *Registry {
	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		timeout:         timeout,
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	observability.AIProviderAvailable.WithLabelValues(string(name)).Set(available)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Available reports whether at least one provider can currently be attempted.
func (r *Registry) Available() bool {
	for _, p := range r.snapshot() {
		if p.provider.IsAvailable() && !p.breaker.IsOpen() {
			return true
		}
	}

	return false
}

type registeredProvider struct {
	provider Provider
	breaker  *CircuitBreaker
}

func (r *Registry) snapshot() []registeredProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registeredProvider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, registeredProvider{provider: r.providers[name], breaker: r.circuitBreakers[name]})
	}

	return out
}

// Generate tries providers in priority order and returns the first successful completion.
func (r *Registry) Generate(ctx context.Context, prompt string) (Completion, error) {
	var (
		attempted int
		errs      []error
	)

	for _, rp := range r.snapshot() {
		name := rp.provider.Name()

		if !rp.provider.IsAvailable() {
			continue
		}

		if err := rp.breaker.CheckCircuit(); err != nil {
			r.logger.Debug().Str(logKeyProvider, string(name)).Msg("skipping provider - circuit breaker open")
			continue
		}

		attempted++

		completion, err := r.complete(ctx, rp.provider, prompt)
		if err != nil {
			rp.breaker.RecordFailure(name)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))

			r.logger.Warn().Err(err).Str(logKeyProvider, string(name)).Msg("LLM provider failed, trying next")

			if ctx.Err() != nil {
				break
			}

			continue
		}

		rp.breaker.RecordSuccess()

		return completion, nil
	}

	if attempted == 0 {
		return Completion{}, ErrNoProvidersAvailable
	}

	return Completion{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func (r *Registry) complete(ctx context.Context, p Provider, prompt string) (Completion, error) {
	callCtx := ctx

	if r.timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := p.Complete(callCtx, prompt)

	observability.AIRequestDuration.WithLabelValues(string(p.Name())).Observe(time.Since(start).Seconds())

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
	}

	observability.AIRequests.WithLabelValues(string(p.Name()), status).Inc()

	if err != nil {
		return Completion{}, err //nolint:wrapcheck // provider errors are already wrapped
	}

	completion.Provider = p.Name()

	return completion, nil
}
