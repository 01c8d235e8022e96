package preset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/inventure/venturesim/internal/sanitize"
)

// ReadFile loads a preset from a YAML file and validates it.
// A missing name is derived from the file name.
func ReadFile(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("reading preset file: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parsing preset file: %w", err)
	}
	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = sanitize.PresetName(base[:len(base)-len(filepath.Ext(base))])
	}

	if err := ValidateName(p.Name); err != nil {
		return Preset{}, err
	}
	if err := p.Config.WithDefaults().Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	p.Description = sanitize.Description(p.Description)
	return p, nil
}

// WriteFile writes p to path as YAML.
func WriteFile(path string, p Preset) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing preset file: %w", err)
	}
	return nil
}
