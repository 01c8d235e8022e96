// Package logging provides leveled logging and run history for venturesim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr, optionally teed to a rotating file
//   - A RunLog of JSONL run metadata (~/.venturesim/runs.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/inventure/venturesim/internal/config"
)

// LevelTrace is a custom slog level below Debug.
// At this level per-chunk progress of simulations is logged.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New builds the process logger from cfg. Output goes to stderr and, when
// cfg.File is set, to a size-rotated log file as well. The returned closer
// releases the file and is never nil.
func New(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, io.Closer) {
	if cfg.File == "" {
		return NewLogger(cfg.Level, stderr), nopCloser{}
	}

	file := newRotatingFile(cfg.File, cfg)
	return NewLogger(cfg.Level, io.MultiWriter(stderr, file)), file
}

func newRotatingFile(path string, cfg config.LoggingConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RunLog appends one JSON line per completed simulation: what ran and how
// long it took, never the results. It is safe for concurrent use. A nil
// RunLog is safe to use; all methods are no-ops on a nil receiver.
type RunLog struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// NewRunLog opens dir/runs.jsonl for the run history.
// At "info" level (the default) it returns nil and no file is created.
// The file rotates with the same limits as the operational log.
func NewRunLog(dir string, cfg config.LoggingConfig) *RunLog {
	if ParseLevel(cfg.Level) == slog.LevelInfo {
		return nil
	}
	if cfg.MaxSizeMB < 1 {
		cfg.MaxSizeMB = config.Default().Logging.MaxSizeMB
	}
	return &RunLog{out: newRotatingFile(filepath.Join(dir, "runs.jsonl"), cfg)}
}

// Log writes event as a single JSONL line with a "time" field added.
// The caller's map is not mutated.
func (rl *RunLog) Log(event map[string]any) {
	if rl == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.out == nil {
		return
	}
	_, _ = rl.out.Write(data)
}

// Close closes the underlying file.
func (rl *RunLog) Close() {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.out != nil {
		rl.out.Close()
		rl.out = nil
	}
}
