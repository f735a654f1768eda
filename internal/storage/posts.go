package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
	"github.com/lueurxax/trendpulse/internal/core/ports"
)

const postColumns = `id::text, title, slug, tags, views, published_at`

// RecentPublished lists posts published at or after since, newest first.
func (db *DB) RecentPublished(ctx context.Context, since time.Time) ([]domain.PublishedPost, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE status = $1 AND published_at >= $2
		ORDER BY published_at DESC
	`, PostStatusPublished, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("scan recent posts: %w", err)
	}

	return posts, nil
}

// TopViewedPosts lists the most viewed posts published at or after since.
func (db *DB) TopViewedPosts(ctx context.Context, since time.Time, limit int) ([]domain.PublishedPost, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE status = $1 AND published_at >= $2 AND views > 0
		ORDER BY views DESC, published_at DESC
		LIMIT $3
	`, PostStatusPublished, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query top viewed posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("scan top viewed posts: %w", err)
	}

	return posts, nil
}

func scanPost(row pgx.CollectableRow) (domain.PublishedPost, error) {
	var p domain.PublishedPost

	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Tags, &p.Views, &p.PublishedAt)

	return p, err //nolint:wrapcheck // wrapped by caller
}

// InsertDrafts stores drafts atomically. A duplicate slug rolls back the whole
// batch and is reported as a persistence conflict.
func (db *DB) InsertDrafts(ctx context.Context, drafts []domain.PublishableDraft) ([]string, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	ids := make([]string, 0, len(drafts))

	for _, d := range drafts {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}

		var id string

		err := tx.QueryRow(ctx, `
			INSERT INTO posts (topic, title, body, tags, slug, image_url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id::text
		`, SanitizeUTF8(d.Topic), SanitizeUTF8(d.Title), SanitizeUTF8(d.Body), sanitizeAll(tags), d.Slug,
			d.ImageURL, PostStatusDraft).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: slug %q: %w", apperrors.ErrPersistenceConflict, d.Slug, err)
			}

			return nil, fmt.Errorf("insert draft %q: %w", d.Slug, err)
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit drafts: %w", err)
	}

	return ids, nil
}

var (
	_ ports.PublishedReader = (*DB)(nil)
	_ ports.DraftInserter   = (*DB)(nil)
)
