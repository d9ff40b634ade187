package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps events in insertion order per entity.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]Event)}
}

func entityKey(kind, id string) string {
	return kind + "/" + id
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey(event.EntityKind, event.EntityID)
	s.events[key] = append(s.events[key], event)
	return nil
}

func (s *MemoryStore) ListByEntity(_ context.Context, entityKind, entityID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[entityKey(entityKind, entityID)]...), nil
}
