// Package store defines the PresetStore interface for persisting named
// simulation scenarios.
package store

import (
	"context"
	"time"

	"github.com/inventure/venturesim/internal/portfolio"
)

// Preset is a named, reusable simulation configuration.
type Preset struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Config      portfolio.Config `json:"config" yaml:"config"`
	BuiltIn     bool             `json:"built_in" yaml:"-"`
	CreatedAt   time.Time        `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt   time.Time        `json:"updated_at,omitzero" yaml:"-"`
}

// PresetStore defines the interface for storing user presets.
type PresetStore interface {
	// Save inserts or replaces the preset with p.Name.
	Save(ctx context.Context, p Preset) error

	// Get returns the named preset, or nil if it does not exist.
	Get(ctx context.Context, name string) (*Preset, error)

	// List returns all presets ordered by name.
	List(ctx context.Context) ([]Preset, error)

	// Delete removes the named preset. Deleting a missing preset is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}
