// Package config provides unified configuration loading for venturesim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inventure/venturesim/internal/constants"
	"gopkg.in/yaml.v3"
)

// VenturesimConfig contains all venturesim configuration settings.
type VenturesimConfig struct {
	// Simulation contains engine execution defaults.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP contains settings for the MCP tool server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// SimulationConfig holds defaults applied when a command does not set them.
type SimulationConfig struct {
	// Trials is the default number of cohort simulations per run.
	Trials int `json:"trials" yaml:"trials"`

	// Workers is the number of goroutines running trials. 1 runs sequentially.
	Workers int `json:"workers" yaml:"workers"`

	// CarryOver is the share of a stage's common factor kept by the next stage.
	CarryOver float64 `json:"carry_over" yaml:"carry_over"`

	// Seed, when set, makes every run replayable. Unset means a random seed per run.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// LoggingConfig configures venturesim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`

	// File, when set, additionally writes logs to a rotating file.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	// Audit enables the JSONL audit log of tool calls.
	Audit bool `json:"audit" yaml:"audit"`

	// SimulationsPerMinute limits portfolio_simulate and portfolio_sweep calls.
	SimulationsPerMinute float64 `json:"simulations_per_minute" yaml:"simulations_per_minute"`

	// Burst is the number of simulation calls allowed back to back.
	Burst int `json:"burst" yaml:"burst"`

	// MaxTrials caps the trial count a tool call may request.
	MaxTrials int `json:"max_trials" yaml:"max_trials"`

	// MaxPreSeedCount caps the cohort size a tool call may request.
	MaxPreSeedCount int `json:"max_pre_seed_count" yaml:"max_pre_seed_count"`
}

// Default returns a VenturesimConfig with sensible defaults.
func Default() *VenturesimConfig {
	return &VenturesimConfig{
		Simulation: SimulationConfig{
			Trials:    constants.DefaultTrialCount,
			Workers:   1,
			CarryOver: constants.DefaultCarryOver,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		MCP: MCPConfig{
			Audit:                true,
			SimulationsPerMinute: 30,
			Burst:                5,
			MaxTrials:            50000,
			MaxPreSeedCount:      20000,
		},
	}
}

// Dir returns the venturesim directory under the user's home.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.AppDirName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.venturesim/config.yaml -> environment variables
func Load() (*VenturesimConfig, error) {
	config := Default()

	configPath, err := Path()
	if err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*VenturesimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.File = expandEnvVars(config.Logging.File)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *VenturesimConfig) Validate() error {
	if c.Simulation.Trials < 1 {
		return fmt.Errorf("simulation.trials must be at least 1, got %d", c.Simulation.Trials)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be at least 1, got %d", c.Simulation.Workers)
	}
	if !(c.Simulation.CarryOver >= 0 && c.Simulation.CarryOver <= 1) {
		return fmt.Errorf("simulation.carry_over must be between 0 and 1, got %f", c.Simulation.CarryOver)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("logging.max_size_mb must be at least 1, got %d", c.Logging.MaxSizeMB)
	}

	if c.MCP.SimulationsPerMinute <= 0 {
		return fmt.Errorf("mcp.simulations_per_minute must be positive, got %f", c.MCP.SimulationsPerMinute)
	}
	if c.MCP.Burst < 1 {
		return fmt.Errorf("mcp.burst must be at least 1, got %d", c.MCP.Burst)
	}
	if c.MCP.MaxTrials < 1 {
		return fmt.Errorf("mcp.max_trials must be at least 1, got %d", c.MCP.MaxTrials)
	}
	if c.MCP.MaxPreSeedCount < 1 {
		return fmt.Errorf("mcp.max_pre_seed_count must be at least 1, got %d", c.MCP.MaxPreSeedCount)
	}

	return nil
}

// Save writes the configuration to path as YAML, creating the directory.
func (c *VenturesimConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *VenturesimConfig) {
	if v := os.Getenv("VENTURESIM_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Trials = n
		}
	}

	if v := os.Getenv("VENTURESIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("VENTURESIM_CARRY_OVER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.CarryOver = f
		}
	}

	if v := os.Getenv("VENTURESIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = &n
		}
	}

	if v := os.Getenv("VENTURESIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("VENTURESIM_LOG_FILE"); v != "" {
		config.Logging.File = v
	}

	if v := os.Getenv("VENTURESIM_MCP_AUDIT"); v != "" {
		config.MCP.Audit = v == "true" || v == "1"
	}

	if v := os.Getenv("VENTURESIM_MCP_MAX_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MCP.MaxTrials = n
		}
	}

	if v := os.Getenv("VENTURESIM_MCP_MAX_PRE_SEED_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MCP.MaxPreSeedCount = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
