// Package settings loads and persists the user's scan settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/STRATINT/activityscan/internal/models"
)

// Store persists scan settings. Load returns empty settings, not an error,
// when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
}

// Update merges a partial update into the stored settings, validates the
// result and saves it.
func Update(ctx context.Context, store Store, update models.Settings) (models.Settings, error) {
	if err := update.Validate(); err != nil {
		return models.Settings{}, err
	}

	current, err := store.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	merged := current.Merge(update)
	if err := store.Save(ctx, merged); err != nil {
		return models.Settings{}, err
	}
	return store.Load(ctx)
}

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	settings models.Settings
}

// NewMemoryStore creates a store seeded with initial.
func NewMemoryStore(initial models.Settings) *MemoryStore {
	return &MemoryStore{settings: initial}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (models.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, settings models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	settings.UpdatedAt = &now
	m.settings = settings
	return nil
}

// FileStore keeps settings in a YAML file using the same keys as the JSON API.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings models.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to parse settings file %s: %w", f.path, err)
	}
	if err := settings.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("invalid settings file %s: %w", f.path, err)
	}

	if info, err := os.Stat(f.path); err == nil {
		modTime := info.ModTime().UTC()
		settings.UpdatedAt = &modTime
	}
	return settings, nil
}

// Save implements Store. The file is replaced atomically.
func (f *FileStore) Save(ctx context.Context, settings models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
