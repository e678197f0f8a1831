package onboarding

import (
	"context"
	"sync"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in insertion order. Used in tests and as the
// default when neither a data directory nor postgres is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests []*Request
	byID     map[id.RequestID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.RequestID]int)}
}

func (s *InMemoryStore) Append(ctx context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[request.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *request
	s.byID[request.ID] = len(s.requests)
	s.requests = append(s.requests, &clone)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, requestID id.RequestID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.requests[i]
	return &clone, nil
}

func (s *InMemoryStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, request := range s.requests {
		if request.ProjectID == projectID {
			clone := *request
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByApplicant(ctx context.Context, username id.Username) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, request := range s.requests {
		if request.Username == username {
			clone := *request
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[request.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	clone := *request
	s.requests[i] = &clone
	return nil
}
