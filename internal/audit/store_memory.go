package audit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps audit entries in process. Implements both Store and
// Outbox for unit tests and local runs without Postgres.
type InMemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	entries   []*Entry
	published map[int64]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, published: make(map[int64]time.Time)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	cp.ID = s.nextID
	s.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, &cp)
	entry.ID = cp.ID
	entry.CreatedAt = cp.CreatedAt
	return nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityType string, entityID int64) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, e := range s.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Unpublished(_ context.Context, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, e := range s.entries {
		if _, ok := s.published[e.ID]; ok {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = at
	}
	return nil
}

// All returns every entry, oldest first. Test helper.
func (s *InMemoryStore) All() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}
