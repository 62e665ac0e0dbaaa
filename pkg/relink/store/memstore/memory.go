// Package memstore is an in-memory store.Store used by tests and one-shot
// runs that don't need persistence.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/relink/pkg/relink/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a run, keyed by its ID.
func (s *Store) SaveRun(ctx context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = copyRun(run)
	return nil
}

// GetRun returns a stored run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(run), true, nil
}

// ListRuns returns summaries of all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]store.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, store.RunSummary{
			ID:        run.ID,
			StartedAt: run.StartedAt,
			Matches:   len(run.Matches),
			Misses:    len(run.Misses),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func copyRun(run store.Run) store.Run {
	cp := run
	cp.Matches = append([]store.Match(nil), run.Matches...)
	cp.Misses = append([]store.Miss(nil), run.Misses...)
	return cp
}
