package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
	apperrors "github.com/lueurxax/trendpulse/internal/core/errors"
)

// PostStore is a thread-safe in-memory implementation of ports.PublishedReader
// and ports.DraftInserter. Slugs are unique, as in the real posts table.
type PostStore struct {
	mu        sync.RWMutex
	published []domain.PublishedPost
	slugs     map[string]bool
	drafts    []domain.PublishableDraft
	calls     int

	// InsertDraftsFn allows overriding InsertDrafts behavior.
	InsertDraftsFn func(ctx context.Context, drafts []domain.PublishableDraft) ([]string, error)
}

// NewPostStore creates a new mock post store.
func NewPostStore() *PostStore {
	return &PostStore{slugs: make(map[string]bool)}
}

// AddPublished stores published posts directly.
func (s *PostStore) AddPublished(posts ...domain.PublishedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		s.published = append(s.published, p)
		if p.Slug != "" {
			s.slugs[p.Slug] = true
		}
	}
}

// RecentPublished returns posts published at or after since.
func (s *PostStore) RecentPublished(_ context.Context, since time.Time) ([]domain.PublishedPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PublishedPost

	for _, p := range s.published {
		if !p.PublishedAt.Before(since) {
			out = append(out, p)
		}
	}

	return out, nil
}

// TopViewedPosts returns the most viewed posts published at or after since.
func (s *PostStore) TopViewedPosts(ctx context.Context, since time.Time, limit int) ([]domain.PublishedPost, error) {
	out, err := s.RecentPublished(ctx, since)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// InsertDrafts inserts all drafts or none; a taken slug yields ErrPersistenceConflict.
func (s *PostStore) InsertDrafts(ctx context.Context, drafts []domain.PublishableDraft) ([]string, error) {
	if s.InsertDraftsFn != nil {
		return s.InsertDraftsFn(ctx, drafts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	seen := make(map[string]bool, len(drafts))

	for _, d := range drafts {
		if s.slugs[d.Slug] || seen[d.Slug] {
			return nil, fmt.Errorf("%w: slug %q already exists", apperrors.ErrPersistenceConflict, d.Slug)
		}

		seen[d.Slug] = true
	}

	ids := make([]string, 0, len(drafts))

	for _, d := range drafts {
		s.slugs[d.Slug] = true
		s.drafts = append(s.drafts, d)
		ids = append(ids, fmt.Sprintf("post-%d", len(s.drafts)))
	}

	return ids, nil
}

// Drafts returns all inserted drafts.
func (s *PostStore) Drafts() []domain.PublishableDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PublishableDraft, len(s.drafts))
	copy(out, s.drafts)

	return out
}

// InsertCalls returns how many times InsertDrafts ran against the in-memory state.
func (s *PostStore) InsertCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.calls
}
