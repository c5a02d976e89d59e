package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/logloss/pkg/types"
)

// Entry is an evaluation together with the time it was last received.
type Entry struct {
	Evaluation *types.Evaluation
	UpdatedAt  time.Time
}

// Store is a thread-safe in-memory evaluation store, keyed by dataset.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the evaluation for ev.Dataset.
// Callers must not modify ev after calling Put.
func (s *Store) Put(ev *types.Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ev.Dataset] = &Entry{
		Evaluation: ev,
		UpdatedAt:  s.now(),
	}
}

// Get returns the Entry for dataset and whether one was found.
// The entry may be stale if TTL has elapsed.
func (s *Store) Get(dataset string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[dataset]
	return e, ok
}

// Live is Get restricted to entries updated within the TTL.
func (s *Store) Live(dataset string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[dataset]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// List returns all entries updated within the TTL, sorted by dataset.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Evaluation.Dataset < out[j].Evaluation.Dataset
	})
	return out
}

// Evaluations returns the evaluations of List.
func (s *Store) Evaluations() []types.Evaluation {
	entries := s.List()
	out := make([]types.Evaluation, len(entries))
	for i, e := range entries {
		out[i] = *e.Evaluation
	}
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for ds, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, ds)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second, maximum 1 hour). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale evaluations", "count", n)
			}
		}
	}
}
