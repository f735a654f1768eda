package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	"github.com/lueurxax/trendpulse/internal/core/ports"
)

var clusterColumns = []string{
	"cluster_key", "primary_keyword", "keywords", "avg_score", "signal_count", "trend_direction",
	"category", "saturation_score", "is_saturated", "last_signal_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// UpsertClusters writes clusters keyed by cluster key in one transaction.
// Saturation fields are owned by the fatigue scorer and survive re-clustering.
func (db *DB) UpsertClusters(ctx context.Context, clusters []domain.TopicCluster) error {
	if len(clusters) == 0 {
		return nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	for _, c := range clusters {
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}

		updatedAt := c.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO topic_clusters (cluster_key, primary_keyword, keywords, avg_score, signal_count,
				trend_direction, category, last_signal_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cluster_key) DO UPDATE SET
				primary_keyword = EXCLUDED.primary_keyword,
				keywords = EXCLUDED.keywords,
				avg_score = EXCLUDED.avg_score,
				signal_count = EXCLUDED.signal_count,
				trend_direction = EXCLUDED.trend_direction,
				category = EXCLUDED.category,
				last_signal_at = EXCLUDED.last_signal_at,
				updated_at = EXCLUDED.updated_at
		`, SanitizeUTF8(c.ClusterKey), SanitizeUTF8(c.PrimaryKeyword), sanitizeAll(keywords), c.AvgScore,
			c.SignalCount, string(c.TrendDirection), c.Category, c.LastSignalAt.UTC(), updatedAt.UTC()); err != nil {
			return fmt.Errorf("upsert cluster %q: %w", c.ClusterKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clusters: %w", err)
	}

	return nil
}

// ActiveClusters lists clusters whose last signal is at or after since.
func (db *DB) ActiveClusters(ctx context.Context, since time.Time) ([]domain.TopicCluster, error) {
	return db.ListClusters(ctx, domain.ClusterQuery{Since: since})
}

// ListClusters is the cluster read model. Zero query fields do not filter.
func (db *DB) ListClusters(ctx context.Context, q domain.ClusterQuery) ([]domain.TopicCluster, error) {
	sqlText, args, err := clusterQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build cluster query: %w", err)
	}

	rows, err := db.Pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}

	clusters, err := pgx.CollectRows(rows, scanCluster)
	if err != nil {
		return nil, fmt.Errorf("scan clusters: %w", err)
	}

	return clusters, nil
}

func clusterQuery(q domain.ClusterQuery) (string, []any, error) {
	query := psql.Select(clusterColumns...).
		From("topic_clusters").
		OrderBy("avg_score DESC", "cluster_key")

	if !q.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"last_signal_at": q.Since.UTC()})
	}

	if q.Direction != "" {
		query = query.Where(sq.Eq{"trend_direction": string(q.Direction)})
	}

	if q.Category != "" {
		query = query.Where(sq.Eq{"category": q.Category})
	}

	if q.MinScore > 0 {
		query = query.Where(sq.GtOrEq{"avg_score": q.MinScore})
	}

	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}

	return query.ToSql() //nolint:wrapcheck // wrapped by caller
}

func scanCluster(row pgx.CollectableRow) (domain.TopicCluster, error) {
	var (
		c         domain.TopicCluster
		direction string
	)

	err := row.Scan(&c.ClusterKey, &c.PrimaryKeyword, &c.Keywords, &c.AvgScore, &c.SignalCount, &direction,
		&c.Category, &c.SaturationScore, &c.IsSaturated, &c.LastSignalAt, &c.UpdatedAt)
	c.TrendDirection = domain.TrendDirection(direction)

	return c, err //nolint:wrapcheck // wrapped by caller
}

// UpdateSaturation stores fatigue scores. Unknown cluster keys are ignored.
func (db *DB) UpdateSaturation(ctx context.Context, scores []domain.Saturation) error {
	if len(scores) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, s := range scores {
		batch.Queue(`
			UPDATE topic_clusters
			SET saturation_score = $2, is_saturated = $3, published_count = $4
			WHERE cluster_key = $1
		`, s.ClusterKey, s.Score, s.IsSaturated, s.PublishedCount)
	}

	br := db.Pool.SendBatch(ctx, batch)

	defer func() {
		_ = br.Close()
	}()

	for _, s := range scores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("update saturation for %q: %w", s.ClusterKey, err)
		}
	}

	return nil
}

var _ ports.ClusterStore = (*DB)(nil)
