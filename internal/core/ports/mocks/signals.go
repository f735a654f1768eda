package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// SignalStore is a thread-safe in-memory implementation of ports.SignalStore.
type SignalStore struct {
	mu      sync.RWMutex
	signals map[string]domain.TrendSignal
	seq     int

	// SaveSignalsFn allows overriding SaveSignals behavior.
	SaveSignalsFn func(ctx context.Context, signals []domain.TrendSignal) (int, error)

	// RecentSignalsFn allows overriding RecentSignals behavior.
	RecentSignalsFn func(ctx context.Context, since, asOf time.Time) ([]domain.TrendSignal, error)
}

// NewSignalStore creates a new mock signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{signals: make(map[string]domain.TrendSignal)}
}

// Add stores signals directly, assigning ids to signals without one.
func (s *SignalStore) Add(signals ...domain.TrendSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sig := range signals {
		s.put(sig)
	}
}

func (s *SignalStore) put(sig domain.TrendSignal) bool {
	if sig.ID == "" {
		s.seq++
		sig.ID = fmt.Sprintf("sig-%06d", s.seq)
	}

	if _, exists := s.signals[sig.ID]; exists {
		return false
	}

	s.signals[sig.ID] = sig

	return true
}

// SaveSignals stores signals, ignoring ids that already exist.
func (s *SignalStore) SaveSignals(ctx context.Context, signals []domain.TrendSignal) (int, error) {
	if s.SaveSignalsFn != nil {
		return s.SaveSignalsFn(ctx, signals)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0

	for _, sig := range signals {
		if s.put(sig) {
			inserted++
		}
	}

	return inserted, nil
}

// RecentSignals returns stored signals in the window, ordered by id.
func (s *SignalStore) RecentSignals(ctx context.Context, since, asOf time.Time) ([]domain.TrendSignal, error) {
	if s.RecentSignalsFn != nil {
		return s.RecentSignalsFn(ctx, since, asOf)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TrendSignal, 0, len(s.signals))

	for _, sig := range s.signals {
		if sig.Timestamp.Before(since) {
			continue
		}

		if !sig.IngestedAt.IsZero() && sig.IngestedAt.After(asOf) {
			continue
		}

		out = append(out, sig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// PruneSignals deletes signals with a timestamp before olderThan.
func (s *SignalStore) PruneSignals(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int64

	for id, sig := range s.signals {
		if sig.Timestamp.Before(olderThan) {
			delete(s.signals, id)
			pruned++
		}
	}

	return pruned, nil
}

// ReferenceURLs returns distinct reference URLs of signals whose keyword
// matches case-insensitively, newest first.
func (s *SignalStore) ReferenceURLs(_ context.Context, keyword string, since time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.TrendSignal, 0)

	for _, sig := range s.signals {
		if sig.ReferenceURL == "" || sig.Timestamp.Before(since) {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(sig.Keyword), strings.TrimSpace(keyword)) {
			matches = append(matches, sig)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Timestamp.After(matches[j].Timestamp)
		}

		return matches[i].ID < matches[j].ID
	})

	seen := make(map[string]bool)

	var out []string

	for _, sig := range matches {
		if seen[sig.ReferenceURL] {
			continue
		}

		seen[sig.ReferenceURL] = true
		out = append(out, sig.ReferenceURL)

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

// SourceStats aggregates stored signals at or after since by source.
func (s *SignalStore) SourceStats(_ context.Context, since time.Time) ([]domain.SourceStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource := make(map[domain.SignalSource]*domain.SourceStat)

	for _, sig := range s.signals {
		if sig.Timestamp.Before(since) {
			continue
		}

		st, ok := bySource[sig.Source]
		if !ok {
			st = &domain.SourceStat{Source: sig.Source}
			bySource[sig.Source] = st
		}

		st.AvgScore += sig.NormalizedScore
		st.Signals++

		if sig.Timestamp.After(st.LastSignalAt) {
			st.LastSignalAt = sig.Timestamp
		}
	}

	out := make([]domain.SourceStat, 0, len(bySource))

	for _, st := range bySource {
		st.AvgScore /= float64(st.Signals)
		out = append(out, *st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })

	return out, nil
}

// Len returns the number of stored signals.
func (s *SignalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.signals)
}
