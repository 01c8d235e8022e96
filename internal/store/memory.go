package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// InMemoryPresetStore implements PresetStore for testing and development.
type InMemoryPresetStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewInMemoryPresetStore creates a new in-memory store.
func NewInMemoryPresetStore() *InMemoryPresetStore {
	return &InMemoryPresetStore{presets: make(map[string]Preset)}
}

// Save inserts or replaces a preset.
func (s *InMemoryPresetStore) Save(ctx context.Context, p Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}

	now := time.Now().UTC()
	p.BuiltIn = false
	p.CreatedAt = now
	if old, ok := s.presets[p.Name]; ok {
		p.CreatedAt = old.CreatedAt
	}
	p.UpdatedAt = now
	s.presets[p.Name] = p
	return nil
}

// Get retrieves a preset by name. Returns nil if not found.
func (s *InMemoryPresetStore) Get(ctx context.Context, name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// List returns all presets ordered by name.
func (s *InMemoryPresetStore) List(ctx context.Context) ([]Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presets := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		presets = append(presets, p)
	}
	slices.SortFunc(presets, func(a, b Preset) int { return strings.Compare(a.Name, b.Name) })
	return presets, nil
}

// Delete removes a preset by name.
func (s *InMemoryPresetStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.presets, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryPresetStore) Close() error {
	return nil
}
