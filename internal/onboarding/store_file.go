package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// FileStore persists the request collection as one JSON document, rewritten
// wholesale on every mutation. The mutex around the read-modify-write cycle
// and the temp-then-rename commit close the lost-update and partial-write
// windows a naive rewrite would have.
type FileStore struct {
	path string

	mu sync.Mutex
}

// NewFileStore creates a store backed by the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Append(ctx context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range requests {
		if existing.ID == request.ID {
			return sentinel.ErrConflict
		}
	}
	return s.write(append(requests, request))
}

func (s *FileStore) Get(ctx context.Context, requestID id.RequestID) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, request := range requests {
		if request.ID == requestID {
			return request, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *FileStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []*Request
	for _, request := range requests {
		if request.ProjectID == projectID {
			out = append(out, request)
		}
	}
	return out, nil
}

func (s *FileStore) ListByApplicant(ctx context.Context, username id.Username) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []*Request
	for _, request := range requests {
		if request.Username == username {
			out = append(out, request)
		}
	}
	return out, nil
}

func (s *FileStore) Update(ctx context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range requests {
		if existing.ID == request.ID {
			requests[i] = request
			return s.write(requests)
		}
	}
	return sentinel.ErrNotFound
}

// load reads the collection fresh on every call. A missing file is an empty
// collection, not an error.
func (s *FileStore) load() ([]*Request, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read requests: %w", err)
	}
	var requests []*Request
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	return requests, nil
}

func (s *FileStore) write(requests []*Request) error {
	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal requests: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create requests dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".requests*.tmp")
	if err != nil {
		return fmt.Errorf("create temp requests: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write requests: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close requests: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit requests: %w", err)
	}
	return nil
}
