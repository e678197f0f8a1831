package registry

import (
	"context"
	"sort"
	"sync"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// InMemoryStore keeps projects in a map. Used in tests and as the default
// when no data directory is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[id.ProjectID]*Project
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{projects: make(map[id.ProjectID]*Project)}
}

func (s *InMemoryStore) Save(ctx context.Context, project *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *project
	clone.Participants = append([]id.Username(nil), project.Participants...)
	s.projects[project.ID] = &clone
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, projectID id.ProjectID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *project
	clone.Participants = append([]id.Username(nil), project.Participants...)
	return &clone, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, 0, len(s.projects))
	for _, project := range s.projects {
		clone := *project
		clone.Participants = append([]id.Username(nil), project.Participants...)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
