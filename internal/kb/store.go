package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"exam-chatbot-backend/models"
)

// Store holds the knowledge base: an ordered sequence of chunks loaded once
// from a JSON array file and read many times by retrieval. Writes replace
// the whole file via write-temp-then-rename, so readers either see the old
// knowledge base or the new one, never a partial write. Retrieval order
// depends on insertion order, which JSON arrays preserve.
type Store struct {
	path string

	mu     sync.RWMutex
	chunks []models.Chunk
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the knowledge base file into memory. A missing file is not an
// error: the store simply starts empty until the first ingestion run.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.mu.Lock()
			s.chunks = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var chunks []models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()
	return nil
}

// Replace persists a freshly ingested chunk sequence and swaps it in as the
// in-memory knowledge base. The file write is atomic at the rename level.
func (s *Store) Replace(chunks []models.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create knowledge base directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kb-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	if err := enc.Encode(chunks); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace knowledge base: %w", err)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()
	return nil
}

// Chunks returns the current knowledge base. The returned slice must be
// treated as read-only; Replace swaps in a new slice rather than mutating.
func (s *Store) Chunks() []models.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) Path() string {
	return s.path
}
