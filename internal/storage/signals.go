package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
)

const signalColumns = `id, source, keyword, localized_keyword, related_keywords, raw_score, normalized_score,
	velocity, category, entity_type, entity_id, sentiment, reference_url, ts, ingested_at`

// SaveSignals inserts signals, skipping ids that already exist, and returns
// how many rows were new.
func (db *DB) SaveSignals(ctx context.Context, signals []domain.TrendSignal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}

	for _, s := range signals {
		related := s.RelatedKeywords
		if related == nil {
			related = []string{}
		}

		ingestedAt := s.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = time.Now()
		}

		batch.Queue(`
			INSERT INTO trend_signals (`+signalColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO NOTHING
		`, s.ID, string(s.Source), SanitizeUTF8(s.Keyword), SanitizeUTF8(s.LocalizedKeyword), sanitizeAll(related),
			s.RawScore, s.NormalizedScore, s.Velocity, s.Category, s.EntityType, s.EntityID, s.Sentiment,
			s.ReferenceURL, s.Timestamp.UTC(), ingestedAt.UTC())
	}

	br := db.Pool.SendBatch(ctx, batch)

	defer func() {
		_ = br.Close()
	}()

	inserted := 0

	for range signals {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert signal: %w", err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// RecentSignals reads signals in a repeatable-read, read-only transaction so a
// clustering run sees one snapshot even while ingestion is writing.
func (db *DB) RecentSignals(ctx context.Context, since, asOf time.Time) ([]domain.TrendSignal, error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	rows, err := tx.Query(ctx, `
		SELECT `+signalColumns+`
		FROM trend_signals
		WHERE ts >= $1 AND ingested_at <= $2
		ORDER BY ts, id
	`, since.UTC(), asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("query recent signals: %w", err)
	}

	signals, err := pgx.CollectRows(rows, scanSignal)
	if err != nil {
		return nil, fmt.Errorf("scan recent signals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot transaction: %w", err)
	}

	return signals, nil
}

func scanSignal(row pgx.CollectableRow) (domain.TrendSignal, error) {
	var (
		s      domain.TrendSignal
		source string
	)

	err := row.Scan(&s.ID, &source, &s.Keyword, &s.LocalizedKeyword, &s.RelatedKeywords, &s.RawScore,
		&s.NormalizedScore, &s.Velocity, &s.Category, &s.EntityType, &s.EntityID, &s.Sentiment,
		&s.ReferenceURL, &s.Timestamp, &s.IngestedAt)
	s.Source = domain.SignalSource(source)

	return s, err //nolint:wrapcheck // wrapped by caller
}

// PruneSignals deletes signals observed before olderThan.
func (db *DB) PruneSignals(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM trend_signals WHERE ts < $1`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune signals: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ReferenceURLs returns distinct reference pages of signals whose keyword
// matches case-insensitively, newest first.
func (db *DB) ReferenceURLs(ctx context.Context, keyword string, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT reference_url
		FROM trend_signals
		WHERE lower(keyword) = lower($1) AND reference_url <> '' AND ts >= $2
		GROUP BY reference_url
		ORDER BY max(ts) DESC, reference_url
		LIMIT $3
	`, strings.TrimSpace(keyword), since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query reference urls: %w", err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan reference urls: %w", err)
	}

	return urls, nil
}

// SourceStats aggregates signals observed at or after since by source.
func (db *DB) SourceStats(ctx context.Context, since time.Time) ([]domain.SourceStat, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT source, count(*), coalesce(avg(normalized_score), 0), max(ts)
		FROM trend_signals
		WHERE ts >= $1
		GROUP BY source
		ORDER BY source
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query source stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SourceStat, error) {
		var (
			st     domain.SourceStat
			source string
		)

		err := row.Scan(&source, &st.Signals, &st.AvgScore, &st.LastSignalAt)
		st.Source = domain.SignalSource(source)

		return st, err //nolint:wrapcheck // wrapped by caller
	})
	if err != nil {
		return nil, fmt.Errorf("scan source stats: %w", err)
	}

	return stats, nil
}

var _ ports.SignalStore = (*DB)(nil)
