// Package docstore persists one JSON document per submission event. Filenames
// embed a fixed-width UTC stamp so "most recent" is a lexicographic sort, the
// way the answer, expectation, and provision stores are laid out on disk.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// Store writes and scans per-submission JSON documents under a base
// directory, one subdirectory per document kind.
type Store struct {
	baseDir string

	mu  sync.Mutex
	seq uint64

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Document kinds used by this service.
const (
	KindQuestionnaireAnswers = "questionnaire_answers"
	KindFormatAnswers        = "data_format_answers"
	KindFormatExpectations   = "data_format_expectations"
)

// New creates a store rooted at baseDir. Subdirectories are created lazily on
// first write.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, Now: time.Now}
}

// Put writes payload as JSON under kind with a generated name
// "{prefix}_{stamp}_{seq}.json". The per-process sequence suffix makes the
// lexicographic "latest" selection total even for same-second submissions.
// The write is temp-then-rename so readers never observe a partial document.
func (s *Store) Put(ctx context.Context, kind, prefix string, payload any) (string, error) {
	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("%s_%s_%04d.json", prefix, id.FormatStamp(s.Now()), s.seq)
	s.mu.Unlock()

	dir := filepath.Join(s.baseDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind, err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp")
	if err != nil {
		return "", fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("commit document: %w", err)
	}
	return filepath.Join(kind, name), nil
}

// Latest decodes the newest document whose filename starts with prefix.
// Returns sentinel.ErrNotFound when the kind directory is missing or no
// document matches; callers degrade to their empty defaults.
func (s *Store) Latest(ctx context.Context, kind, prefix string, out any) (string, error) {
	dir := filepath.Join(s.baseDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", sentinel.ErrNotFound
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		matches = append(matches, name)
	}
	if len(matches) == 0 {
		return "", sentinel.ErrNotFound
	}
	// Newest first; stamps are fixed-width so string order is time order.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	name := matches[0]
	if err := s.readInto(filepath.Join(dir, name), out); err != nil {
		return "", err
	}
	return filepath.Join(kind, name), nil
}

// Read decodes an explicitly referenced document, given its store-relative
// path as returned by Put.
func (s *Store) Read(ctx context.Context, rel string, out any) error {
	rel = filepath.FromSlash(rel)
	// A stored reference must stay inside the base directory.
	if strings.Contains(rel, "..") || filepath.IsAbs(rel) {
		return sentinel.ErrNotFound
	}
	return s.readInto(filepath.Join(s.baseDir, rel), out)
}

func (s *Store) readInto(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
