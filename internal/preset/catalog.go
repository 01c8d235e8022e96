package preset

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/inventure/venturesim/internal/sanitize"
	"github.com/inventure/venturesim/internal/store"
)

var (
	// ErrNotFound is returned when no built-in or stored preset has the name.
	ErrNotFound = errors.New("preset not found")

	// ErrReadOnly is returned when saving over or deleting a built-in preset.
	ErrReadOnly = errors.New("built-in presets are read-only")
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateName checks that name can be used for a user preset.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid preset name %q: use 1-64 lowercase letters, digits, '-' or '_'", name)
	}
	return nil
}

// Catalog resolves preset names against the built-ins and a user store.
// A Catalog with a nil store serves built-ins only.
type Catalog struct {
	store store.PresetStore
}

// NewCatalog creates a Catalog backed by s.
func NewCatalog(s store.PresetStore) *Catalog {
	return &Catalog{store: s}
}

// Get returns the named preset. Built-ins shadow stored presets.
func (c *Catalog) Get(ctx context.Context, name string) (Preset, error) {
	if p, ok := Builtin(name); ok {
		return p, nil
	}
	if c.store == nil {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	p, err := c.store.Get(ctx, name)
	if err != nil {
		return Preset{}, err
	}
	if p == nil {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return *p, nil
}

// List returns the built-ins followed by stored presets in name order.
func (c *Catalog) List(ctx context.Context) ([]Preset, error) {
	presets := Builtins()
	if c.store == nil {
		return presets, nil
	}

	stored, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range stored {
		if !IsBuiltin(p.Name) {
			presets = append(presets, p)
		}
	}
	return presets, nil
}

// Validate reports whether p could be saved as a user preset. Built-in
// names yield ErrReadOnly.
func Validate(p Preset) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if IsBuiltin(p.Name) {
		return fmt.Errorf("%w: %s", ErrReadOnly, p.Name)
	}
	if err := p.Config.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return nil
}

// Save validates p and stores it, replacing a user preset of the same name.
func (c *Catalog) Save(ctx context.Context, p Preset) error {
	if err := Validate(p); err != nil {
		return err
	}
	if c.store == nil {
		return fmt.Errorf("no preset store configured")
	}

	p.BuiltIn = false
	p.Description = sanitize.Description(p.Description)
	return c.store.Save(ctx, p)
}

// Delete removes a user preset.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	if IsBuiltin(name) {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if _, err := c.Get(ctx, name); err != nil {
		return err
	}
	return c.store.Delete(ctx, name)
}
