// Package backup provides backup and restore of user presets.
//
// A backup file is a JSON header line followed by a gzip-compressed JSON
// payload; the header carries a SHA-256 checksum of the compressed bytes.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/inventure/venturesim/internal/config"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/store"
)

// DefaultBackupDir returns the default backup directory (~/.venturesim/backups/).
func DefaultBackupDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// Backup writes every stored preset to outputPath. Built-in presets are
// not stored and so are never part of a backup.
func Backup(ctx context.Context, s store.PresetStore, outputPath string) (*Header, error) {
	presets, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	header, err := writeFile(outputPath, &Payload{
		CreatedAt: time.Now().UTC(),
		Presets:   presets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return header, nil
}

// RestoreMode controls how restore handles existing presets.
type RestoreMode string

const (
	// RestoreMerge skips presets whose name already exists (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace leaves only the restored presets in the store.
	// RestoreReplace leaves exactly the backed-up presets in the store.
	RestoreReplace RestoreMode = "replace"
)

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	Restored int      `json:"restored"`
	Skipped  int      `json:"skipped"`
	Invalid  []string `json:"invalid,omitempty"`
}

// Restore loads presets from a backup file into s. Every preset passes the
// same validation as a direct save; invalid ones are reported, not fatal.
// Store failures abort the restore. In replace mode stored presets missing
// from the backup are deleted only after every restored preset is written.
func Restore(ctx context.Context, s store.PresetStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	_, payload, err := readFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	result := &RestoreResult{}
	var valid []store.Preset
	for _, p := range payload.Presets {
		switch err := preset.Validate(p); {
		case errors.Is(err, preset.ErrReadOnly):
			result.Skipped++
		case err != nil:
			result.Invalid = append(result.Invalid, p.Name)
		default:
			valid = append(valid, p)
		}
	}

	cat := preset.NewCatalog(s)
	restored := make(map[string]bool, len(valid))
	for _, p := range valid {
		if mode == RestoreMerge {
			existing, err := s.Get(ctx, p.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to check existing preset %s: %w", p.Name, err)
			}
			if existing != nil {
				result.Skipped++
				continue
			}
		}

		if err := cat.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to restore preset %s: %w", p.Name, err)
		}
		restored[p.Name] = true
		result.Restored++
	}

	if mode == RestoreReplace {
		existing, err := s.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list presets: %w", err)
		}
		for _, p := range existing {
			if restored[p.Name] {
				continue
			}
			if err := s.Delete(ctx, p.Name); err != nil {
				return nil, fmt.Errorf("failed to delete preset %s: %w", p.Name, err)
			}
		}
	}

	return result, nil
}

// GenerateBackupPath creates a timestamped backup filename in the given directory.
func GenerateBackupPath(dir string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("presets-%s.backup", ts))
}
