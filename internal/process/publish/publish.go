// Package publish hands validated drafts to the persistence boundary.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/core/ports"
	"github.com/lueurxax/trendpulse/internal/platform/observability"
)

const (
	defaultRetryAttempts = 1
	maxRetryAttempts     = 2
	slugSuffixLength     = 6

	statusInserted = "inserted"
	statusConflict = "conflict"
	statusError    = "error"
)

// Publisher inserts drafts, retrying slug conflicts a bounded number of times.
type Publisher struct {
	store    ports.DraftInserter
	attempts int
	suffix   func() string
	logger   *zerolog.Logger
}

// NewPublisher creates a Publisher. attempts is clamped to [1, 2].
func NewPublisher(store ports.DraftInserter, attempts int, logger *zerolog.Logger) *Publisher {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}

	if attempts > maxRetryAttempts {
		attempts = maxRetryAttempts
	}

	return &Publisher{
		store:    store,
		attempts: attempts,
		suffix:   randomSuffix,
		logger:   logger,
	}
}

// Publish inserts drafts and returns their ids. On a slug conflict every draft
// gets a fresh random suffix and the insert is retried; a conflict that
// survives all retries is returned wrapped in ErrPersistenceConflict.
func (p *Publisher) Publish(ctx context.Context, drafts []domain.PublishableDraft) ([]string, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	batch := drafts

	ids, err := p.store.InsertDrafts(ctx, batch)

	for attempt := 1; errors.Is(err, apperrors.ErrPersistenceConflict) && attempt <= p.attempts; attempt++ {
		observability.SlugRetries.Inc()
		p.logger.Warn().Err(err).Int("attempt", attempt).Int("drafts", len(batch)).Msg("slug conflict, retrying with suffixed slugs")

		batch = p.withSuffixes(drafts)
		ids, err = p.store.InsertDrafts(ctx, batch)
	}

	if err != nil {
		status := statusError
		if errors.Is(err, apperrors.ErrPersistenceConflict) {
			status = statusConflict
		}

		observability.DraftsPersisted.WithLabelValues(status).Add(float64(len(drafts)))

		return nil, fmt.Errorf("insert drafts: %w", err)
	}

	observability.DraftsPersisted.WithLabelValues(statusInserted).Add(float64(len(ids)))
	p.logger.Info().Int("drafts", len(ids)).Msg("drafts persisted")

	return ids, nil
}

func (p *Publisher) withSuffixes(drafts []domain.PublishableDraft) []domain.PublishableDraft {
	out := make([]domain.PublishableDraft, len(drafts))

	for i, d := range drafts {
		d.Slug = strings.TrimRight(d.Slug, "-") + "-" + p.suffix()
		out[i] = d
	}

	return out
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:slugSuffixLength]
}
