package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/bretbouchard/sandbox/internal/shared/paths"
)

// TabRef is one tab of a saved layout
type TabRef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Layout is the saved tab arrangement of one user in one sandbox
type Layout struct {
	Tabs    []TabRef  `yaml:"tabs"`
	Active  string    `yaml:"active,omitempty"`
	SavedAt time.Time `yaml:"saved_at"`
}

// Stats contains layout manager statistics
type Stats struct {
	Cached       int        `json:"cached"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}

// Manager persists tab layouts as YAML files under a directory
type Manager struct {
	dir          string
	layouts      sync.Map
	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a layout manager rooted at dir
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Save writes a layout, replacing any previous one
func (m *Manager) Save(userID, sandboxID string, layout *Layout) error {
	path, err := m.layoutPath(userID, sandboxID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	saved := *layout
	saved.SavedAt = now

	data, err := yaml.Marshal(&saved)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}
	// write then rename so a crash never leaves a truncated layout
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write layout: %w", err)
	}

	m.layouts.Store(path, &saved)
	m.lastSaved = &now
	return nil
}

// Load returns the saved layout, or nil when none was saved
func (m *Manager) Load(userID, sandboxID string) (*Layout, error) {
	path, err := m.layoutPath(userID, sandboxID)
	if err != nil {
		return nil, err
	}

	layout, err := m.load(path)
	if err != nil || layout == nil {
		return nil, err
	}

	m.mu.Lock()
	now := time.Now()
	m.lastRestored = &now
	m.mu.Unlock()

	out := *layout
	out.Tabs = append([]TabRef(nil), layout.Tabs...)
	return &out, nil
}

func (m *Manager) load(path string) (*Layout, error) {
	// Check cache first
	if cached, ok := m.layouts.Load(path); ok {
		return cached.(*Layout), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layout %s: %w", path, err)
	}

	m.layouts.Store(path, &layout)
	return &layout, nil
}

// Delete removes a saved layout
func (m *Manager) Delete(userID, sandboxID string) error {
	path, err := m.layoutPath(userID, sandboxID)
	if err != nil {
		return err
	}
	m.layouts.Delete(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	return nil
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cached := 0
	m.layouts.Range(func(_, _ interface{}) bool {
		cached++
		return true
	})
	return Stats{
		Cached:       cached,
		LastSaved:    m.lastSaved,
		LastRestored: m.lastRestored,
	}
}

func (m *Manager) layoutPath(userID, sandboxID string) (string, error) {
	if m.dir == "" {
		return "", errors.New("layout directory not configured")
	}
	if err := paths.ValidateSegment("user id", userID); err != nil {
		return "", err
	}
	if err := paths.ValidateSegment("sandbox id", sandboxID); err != nil {
		return "", err
	}
	return paths.LayoutFile(m.dir, userID, sandboxID), nil
}
