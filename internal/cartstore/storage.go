package cartstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists guest cart lines across sessions. Implementations must
// tolerate concurrent stores calling them serially from one goroutine at a
// time per Store.
type Storage interface {
	Load() ([]LineItem, error)
	Save(items []LineItem) error
	Clear() error
}

// MemoryStorage keeps lines in process memory. Used for tests and for
// sessions that opt out of persistence.
type MemoryStorage struct {
	mu    sync.Mutex
	items []LineItem
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns the stored lines.
func (m *MemoryStorage) Load() ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LineItem(nil), m.items...), nil
}

// Save replaces the stored lines.
func (m *MemoryStorage) Save(items []LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]LineItem(nil), items...)
	return nil
}

// Clear drops everything.
func (m *MemoryStorage) Clear() error {
	return m.Save(nil)
}

// FileStorage persists lines as a JSON document on disk.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates a storage backed by one file.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the lines. A missing file is an empty cart.
func (f *FileStorage) Load() ([]LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Save writes the lines atomically via a temp file rename.
func (f *FileStorage) Save(items []LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the file.
func (f *FileStorage) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
