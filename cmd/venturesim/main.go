package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/config"
	"github.com/inventure/venturesim/internal/logging"
	"github.com/inventure/venturesim/internal/portfolio"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "venturesim",
		Short: "Monte Carlo simulator for staged venture portfolios",
		Long: `venturesim simulates a cohort of projects moving through
Pre-Seed -> Seed -> Series A -> Series B under correlated market conditions.

It reports the expected number of Series B projects, its dispersion and
confidence interval, the probability of reaching a target, and the
capital deployed at every stage.

Settings are read from ~/.venturesim/config.yaml and VENTURESIM_*
environment variables; command-line flags always win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (default from config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newEstimateCmd(),
		newSweepCmd(),
		newPresetCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// errorMessage renders err for the terminal. Configuration problems keep
// their "invalid configuration:" prefix however deeply they were wrapped.
func errorMessage(err error) string {
	var cfgErr *portfolio.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	if errors.Is(err, portfolio.ErrInvalidConfiguration) {
		return err.Error()
	}
	return "Error: " + err.Error()
}

// app bundles what every command needs: settings, the settings directory
// and a logger that never writes to stdout.
type app struct {
	settings *config.VenturesimConfig
	dir      string
	logger   *slog.Logger
	closer   io.Closer
}

// loadApp reads settings, applies --log-level and opens the logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		settings.Logging.Level = level
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	logger, closer := logging.New(settings.Logging, cmd.ErrOrStderr())
	return &app{settings: settings, dir: dir, logger: logger, closer: closer}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}
