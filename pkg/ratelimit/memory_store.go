package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in a process-local map. Entries are never evicted:
// a client that stops sending requests keeps its entry until Reset is called.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.ResetAt) {
		e = Entry{Count: 1, ResetAt: now.Add(window)}
		s.entries[key] = e
		return e, true, nil
	}

	if e.Count >= limit {
		return e, false, nil
	}

	e.Count++
	s.entries[key] = e
	return e, true, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of tracked clients.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
