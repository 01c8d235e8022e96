package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Info holds metadata for retention decisions and listings.
type Info struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	PresetCount int       `json:"preset_count"`
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, "presets-") && strings.HasSuffix(name, ".backup")
}

// ListBackups scans dir for presets-*.backup files and returns them
// sorted newest-first. A missing directory yields no backups.
func ListBackups(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Info
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}

		info := Info{
			Path:      filepath.Join(dir, e.Name()),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		}
		if h, err := ReadHeader(info.Path); err == nil {
			info.CreatedAt = h.CreatedAt
			info.PresetCount = h.PresetCount
		}
		backups = append(backups, info)
	}

	// Timestamp is embedded in the name.
	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})

	return backups, nil
}

// Rotate keeps the keepN most recent backups in dir and deletes the rest.
// keepN < 1 keeps everything.
func Rotate(dir string, keepN int) (deleted []string, err error) {
	if keepN < 1 {
		return nil, nil
	}

	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}
	if len(backups) <= keepN {
		return nil, nil
	}

	for _, b := range backups[keepN:] {
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}
