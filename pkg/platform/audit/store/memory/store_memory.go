package memory

import (
	"context"
	"sync"

	id "collabgate/pkg/domain"
	audit "collabgate/pkg/platform/audit"
)

// InMemoryStore keeps audit events in memory, ordered by append time.
// Suitable for tests and single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records an event.
func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByActor returns all events recorded for the given actor, oldest first.
func (s *InMemoryStore) ListByActor(ctx context.Context, actor id.Username) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	return out, nil
}
