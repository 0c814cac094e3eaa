// Package repository implements the local record store: independent JSON
// documents persisted whole under a data directory.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DocumentStore persists named JSON documents to a directory. Every write
// replaces the whole document; partial updates do not exist at this layer.
// Writes go through a temp file and rename so a crash never leaves a
// half-written document behind.
type DocumentStore struct {
	dir string
	mu  sync.Mutex
}

// NewDocumentStore creates the data directory if needed and returns a store
func NewDocumentStore(dir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &DocumentStore{dir: dir}, nil
}

// Dir returns the store's data directory
func (s *DocumentStore) Dir() string { return s.dir }

func (s *DocumentStore) read(name string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", name, err)
	}
	return nil
}

func (s *DocumentStore) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace document %s: %w", name, err)
	}
	return nil
}
