package store

import (
	"sort"
	"sync"

	"github.com/logtools/ingressparse/pkg/models"
	"github.com/logtools/ingressparse/pkg/nginx"
)

// MemoryStore keeps runs and entries in process memory. It backs tests
// and `serve --db memory` demo setups; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*models.ImportRun
	entries map[string][]*nginx.Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:    make(map[string]*models.ImportRun),
		entries: make(map[string][]*nginx.Entry),
	}
}

// CreateRun inserts a new import run.
func (s *MemoryStore) CreateRun(run *models.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

// GetRun fetches a run by ID.
func (s *MemoryStore) GetRun(id string) (*models.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns all runs, newest first.
func (s *MemoryStore) ListRuns() ([]*models.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*models.ImportRun, 0, len(s.runs))
	for _, run := range s.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// DeleteRun removes a run and its entries.
func (s *MemoryStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, id)
	delete(s.entries, id)
	return nil
}

// InsertEntries appends entries for a run.
func (s *MemoryStore) InsertEntries(runID string, entries []*nginx.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[runID] = append(s.entries[runID], entries...)
	return nil
}

// GetEntries returns entries for a run, filtered, ordered by time, paged.
func (s *MemoryStore) GetEntries(runID string, q EntryQuery) ([]*nginx.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrRunNotFound
	}

	var matched []*nginx.Entry
	for _, e := range s.entries[runID] {
		if q.Filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Time.Before(matched[j].Time)
	})

	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountEntries returns the number of stored entries for a run.
func (s *MemoryStore) CountEntries(runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return 0, ErrRunNotFound
	}
	return len(s.entries[runID]), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// HealthCheck is a no-op.
func (s *MemoryStore) HealthCheck() error { return nil }
