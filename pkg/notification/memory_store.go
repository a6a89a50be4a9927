package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a volatile Store for tests and single-process deployments.
// Records are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	byUser  map[string][]*memoryRecord
	seq     uint64
	now     func() time.Time
}

type memoryRecord struct {
	n   Notification
	seq uint64
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the time source used for createdAt and readAt.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*memoryRecord),
		byUser:  make(map[string][]*memoryRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (Notification, error) {
	if err := in.Validate(); err != nil {
		return Notification{}, err
	}

	n := build(in, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec := &memoryRecord{n: n, seq: s.seq}
	s.records[n.ID] = rec
	s.byUser[n.UserID] = append(s.byUser[n.UserID], rec)

	return n.clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return rec.n.clone(), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	recs := make([]*memoryRecord, len(s.byUser[userID]))
	copy(recs, s.byUser[userID])
	out := make([]Notification, 0, min(limit, len(recs)))

	// Equal timestamps fall back to insertion order so the newest write wins.
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].n.CreatedAt.Equal(recs[j].n.CreatedAt) {
			return recs[i].n.CreatedAt.After(recs[j].n.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	for _, rec := range recs {
		if len(out) == limit {
			break
		}
		out = append(out, rec.n.clone())
	}
	s.mu.RUnlock()

	return out, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id string) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	now := s.now()
	rec.n.Read = true
	rec.n.ReadAt = &now

	return rec.n.clone(), nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
