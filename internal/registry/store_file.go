package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// FileStore persists the whole registry as one JSON document. Every mutation
// rewrites the document through a temp file and rename, under a mutex, so a
// crash mid-write leaves the previous registry intact and concurrent writers
// never interleave.
type FileStore struct {
	path string

	mu sync.Mutex
}

// registryDocument is the on-disk shape. Participants live in a separate map
// keyed by project id, matching the registry files this service inherits.
type registryDocument struct {
	Projects     []*Project                    `json:"projects"`
	Participants map[id.ProjectID][]id.Username `json:"project_participants"`
}

// NewFileStore creates a store backed by the JSON document at path. The file
// is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(ctx context.Context, project *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range doc.Projects {
		if existing.ID == project.ID {
			doc.Projects[i] = project
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Projects = append(doc.Projects, project)
	}
	doc.Participants[project.ID] = append([]id.Username(nil), project.Participants...)
	return s.write(doc)
}

func (s *FileStore) Get(ctx context.Context, projectID id.ProjectID) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, project := range doc.Projects {
		if project.ID == projectID {
			project.Participants = doc.Participants[projectID]
			return project, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *FileStore) List(ctx context.Context) ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, project := range doc.Projects {
		project.Participants = doc.Participants[project.ID]
	}
	sort.Slice(doc.Projects, func(i, j int) bool { return doc.Projects[i].ID < doc.Projects[j].ID })
	return doc.Projects, nil
}

// load reads the document fresh on every call. A missing file is an empty
// registry, not an error.
func (s *FileStore) load() (*registryDocument, error) {
	doc := &registryDocument{Participants: make(map[id.ProjectID][]id.Username)}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if doc.Participants == nil {
		doc.Participants = make(map[id.ProjectID][]id.Username)
	}
	return doc, nil
}

func (s *FileStore) write(doc *registryDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registry*.tmp")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit registry: %w", err)
	}
	return nil
}
