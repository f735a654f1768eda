package trends

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

const defaultFetcherTimeout = 20 * time.Second

// SourceResult reports one fetcher's outcome in an ingestion run.
type SourceResult struct {
	Source   domain.SignalSource `json:"source"`
	Fetched  int                 `json:"fetched"`
	Skipped  bool                `json:"skipped,omitempty"`
	Error    string              `json:"error,omitempty"`
	Duration time.Duration       `json:"duration"`
}

// Result summarizes one ingestion run.
type Result struct {
	Sources  []SourceResult       `json:"sources"`
	Fetched  int                  `json:"fetched"`
	Stored   int                  `json:"stored"`
	Signals  []domain.TrendSignal `json:"-"`
	Duration time.Duration        `json:"duration"`
}

// Counts returns fetched signal counts keyed by source.
func (r Result) Counts() map[domain.SignalSource]int {
	counts := make(map[domain.SignalSource]int, len(r.Sources))
	for _, s := range r.Sources {
		counts[s.Source] = s.Fetched
	}

	return counts
}

// Ingestor runs every fetcher concurrently and persists the concatenated signals.
type Ingestor struct {
	fetchers       []Fetcher
	store          ports.SignalWriter
	fetcherTimeout time.Duration
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewIngestor creates an ingestor. A zero fetcherTimeout uses the default.
func NewIngestor(fetchers []Fetcher, store ports.SignalWriter, fetcherTimeout time.Duration, logger *zerolog.Logger) *Ingestor {
	if fetcherTimeout <= 0 {
		fetcherTimeout = defaultFetcherTimeout
	}

	return &Ingestor{
		fetchers:       fetchers,
		store:          store,
		fetcherTimeout: fetcherTimeout,
		logger:         logger,
		now:            time.Now,
	}
}

// Run fetches from all sources and waits for every fetcher to settle. Source
// failures are recorded in the result; only a store failure is returned.
func (i *Ingestor) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	perSource := make([][]domain.TrendSignal, len(i.fetchers))
	results := make([]SourceResult, len(i.fetchers))

	var g errgroup.Group

	for idx, f := range i.fetchers {
		g.Go(func() error {
			perSource[idx], results[idx] = i.fetchSafely(ctx, f)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	ingestedAt := i.now().UTC()
	res := Result{Sources: results}

	for _, signals := range perSource {
		for _, s := range signals {
			s.IngestedAt = ingestedAt
			res.Signals = append(res.Signals, s)
		}
	}

	res.Fetched = len(res.Signals)

	if len(res.Signals) > 0 && i.store != nil {
		stored, err := i.store.SaveSignals(ctx, res.Signals)
		if err != nil {
			return res, fmt.Errorf("save signals: %w", err)
		}

		res.Stored = stored
		observability.SignalsStored.Add(float64(stored))
	}

	res.Duration = time.Since(start)

	sort.SliceStable(res.Sources, func(a, b int) bool { return res.Sources[a].Source < res.Sources[b].Source })

	i.logger.Info().
		Int("fetched", res.Fetched).
		Int("stored", res.Stored).
		Dur("duration", res.Duration).
		Msg("ingestion run complete")

	return res, nil
}

// fetchSafely never fails: errors, panics and timeouts become an empty result.
func (i *Ingestor) fetchSafely(ctx context.Context, f Fetcher) (signals []domain.TrendSignal, res SourceResult) {
	source := f.Source()
	res.Source = source

	if !f.Enabled() {
		res.Skipped = true

		observability.FetcherRuns.WithLabelValues(string(source), observability.StatusSkipped).Inc()

		return nil, res
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			i.logger.Error().Interface("panic", r).Str("source", string(source)).Msg("fetcher panicked")

			signals = nil
			res.Error = fmt.Sprintf("panic: %v", r)
			res.Fetched = 0

			observability.FetcherRuns.WithLabelValues(string(source), observability.StatusError).Inc()
		}

		res.Duration = time.Since(start)
		observability.FetcherDuration.WithLabelValues(string(source)).Observe(res.Duration.Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, i.fetcherTimeout)
	defer cancel()

	signals, err := f.Fetch(fetchCtx)
	if err != nil {
		i.logger.Warn().Err(err).Str("source", string(source)).Msg("fetcher failed, contributing no signals")

		res.Error = err.Error()

		observability.FetcherRuns.WithLabelValues(string(source), observability.StatusError).Inc()

		return nil, res
	}

	status := observability.StatusSuccess
	if len(signals) == 0 {
		status = observability.StatusEmpty
	}

	res.Fetched = len(signals)

	observability.FetcherRuns.WithLabelValues(string(source), status).Inc()
	observability.SignalsFetched.WithLabelValues(string(source)).Add(float64(len(signals)))

	i.logger.Debug().Str("source", string(source)).Int("count", len(signals)).Msg("fetcher completed")

	return signals, res
}

// Pruner deletes signals older than the retention window.
type Pruner struct {
	store     ports.SignalPruner
	retention time.Duration
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewPruner creates a pruner. Retention below the seven day minimum is raised to it.
func NewPruner(store ports.SignalPruner, retention time.Duration, logger *zerolog.Logger) *Pruner {
	if retention < domain.SignalRetention {
		retention = domain.SignalRetention
	}

	return &Pruner{store: store, retention: retention, logger: logger, now: time.Now}
}

// Prune removes expired signals and returns how many were deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)

	n, err := p.store.PruneSignals(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune signals: %w", err)
	}

	observability.SignalsPruned.Add(float64(n))
	p.logger.Info().Int64("count", n).Time("cutoff", cutoff).Msg("pruned expired signals")

	return n, nil
}
