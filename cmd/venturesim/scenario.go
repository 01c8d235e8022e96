package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/constants"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/store"
)

// scenarioFlag maps a command-line flag to a Config field and the range
// the field is usually explored in.
type scenarioFlag struct {
	name    string
	usage   string
	integer bool
	rng     *constants.Range
	set     func(o *preset.Overrides, cmd *cobra.Command)
}

var scenarioFlags = []scenarioFlag{
	{
		name: "pre-seed", usage: "Projects entering the pre-seed stage", integer: true,
		rng: &constants.PreSeedCountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.PreSeedCount = intFlag(cmd, "pre-seed") },
	},
	{
		name: "rate-seed", usage: "Pre-seed to seed advancement rate",
		rng: &constants.PreSeedToSeedRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.PreSeedToSeed = floatFlag(cmd, "rate-seed") },
	},
	{
		name: "rate-series-a", usage: "Seed to Series A advancement rate",
		rng: &constants.SeedToSeriesARange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.SeedToSeriesA = floatFlag(cmd, "rate-series-a") },
	},
	{
		name: "rate-series-b", usage: "Series A to Series B advancement rate",
		rng: &constants.SeriesAToSeriesBRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.SeriesAToSeriesB = floatFlag(cmd, "rate-series-b") },
	},
	{
		name: "invest-pre-seed", usage: "Capital per pre-seed project, in millions",
		rng: &constants.PreSeedAmountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.PreSeedInvestment = floatFlag(cmd, "invest-pre-seed") },
	},
	{
		name: "invest-seed", usage: "Capital per seed project, in millions",
		rng: &constants.SeedAmountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.SeedInvestment = floatFlag(cmd, "invest-seed") },
	},
	{
		name: "invest-series-a", usage: "Capital per Series A project, in millions",
		rng: &constants.SeriesAAmountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.SeriesAInvestment = floatFlag(cmd, "invest-series-a") },
	},
	{
		name: "invest-series-b", usage: "Capital per Series B project, in millions",
		rng: &constants.SeriesBAmountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.SeriesBInvestment = floatFlag(cmd, "invest-series-b") },
	},
	{
		name: "correlation", usage: "Weight of the shared market factor",
		rng: &constants.CorrelationRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.Correlation = floatFlag(cmd, "correlation") },
	},
	{
		name: "target", usage: "Series B count whose probability is reported", integer: true,
		rng: &constants.TargetCountRange,
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.TargetCount = intFlag(cmd, "target") },
	},
	{
		name: "carry-over", usage: "Share of a stage's market factor kept by the next stage (default from config)",
		set: func(o *preset.Overrides, cmd *cobra.Command) { o.CarryOver = floatFlag(cmd, "carry-over") },
	},
}

// addScenarioFlags registers --preset and one flag per Config field.
// Unset flags keep the preset's value.
func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", preset.Baseline, "Preset to start from")
	for _, sf := range scenarioFlags {
		usage := sf.usage
		if sf.rng != nil {
			usage = fmt.Sprintf("%s (typically %g-%g)", usage, sf.rng.Min, sf.rng.Max)
		}
		if sf.integer {
			cmd.Flags().Int(sf.name, 0, usage)
		} else {
			cmd.Flags().Float64(sf.name, 0, usage)
		}
	}
}

// addRunFlags registers the execution flags shared by run and sweep.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("trials", 0, "Number of simulated cohorts (default from preset or config)")
	cmd.Flags().Uint64("seed", 0, "Random seed for a reproducible run (default random)")
	cmd.Flags().Int("workers", 0, "Goroutines running trials (default from config)")
}

// scenarioOverrides collects the scenario flags the user set.
func scenarioOverrides(cmd *cobra.Command) preset.Overrides {
	var o preset.Overrides
	for _, sf := range scenarioFlags {
		if cmd.Flags().Changed(sf.name) {
			sf.set(&o, cmd)
		}
	}
	return o
}

func intFlag(cmd *cobra.Command, name string) *int {
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func floatFlag(cmd *cobra.Command, name string) *float64 {
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

// scenario is a resolved, validated configuration and where it came from.
type scenario struct {
	preset string
	config portfolio.Config
}

// openCatalog returns a catalog for looking up name. Built-in presets are
// served without touching the preset database.
func openCatalog(a *app, name string) (*preset.Catalog, func(), error) {
	if preset.IsBuiltin(name) {
		return preset.NewCatalog(nil), func() {}, nil
	}
	s, err := store.NewSQLitePresetStore(a.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preset store: %w", err)
	}
	return preset.NewCatalog(s), func() { s.Close() }, nil
}

// resolveScenario builds the Config for a command from --preset, the
// scenario flags and the settings. Trials resolve in order: --trials, the
// preset's trial count, simulation.trials.
func resolveScenario(ctx context.Context, cmd *cobra.Command, a *app) (scenario, error) {
	name, _ := cmd.Flags().GetString("preset")
	if name == "" {
		name = preset.Baseline
	}

	cat, closeCatalog, err := openCatalog(a, name)
	if err != nil {
		return scenario{}, err
	}
	defer closeCatalog()

	p, err := cat.Get(ctx, name)
	if err != nil {
		return scenario{}, err
	}

	overrides := scenarioOverrides(cmd)
	if !overrides.IsZero() {
		a.logger.Debug("overriding preset fields", "preset", p.Name)
	}
	cfg := overrides.Apply(p.Config)
	if cfg.CarryOver == nil {
		carry := a.settings.Simulation.CarryOver
		cfg.CarryOver = &carry
	}

	if cmd.Flags().Lookup("trials") != nil && cmd.Flags().Changed("trials") {
		cfg.TrialCount, _ = cmd.Flags().GetInt("trials")
	} else if cfg.TrialCount == 0 {
		cfg.TrialCount = a.settings.Simulation.Trials
	}

	if err := cfg.Validate(); err != nil {
		return scenario{}, err
	}

	warnOutsideRanges(a, cfg)
	return scenario{preset: p.Name, config: cfg}, nil
}

// warnOutsideRanges logs a warning for each field outside its usual range.
// Such values are valid; they are just unusual for this kind of portfolio.
func warnOutsideRanges(a *app, cfg portfolio.Config) {
	checks := []struct {
		field string
		value float64
		rng   constants.Range
	}{
		{"pre_seed_count", float64(cfg.PreSeedCount), constants.PreSeedCountRange},
		{"pre_seed_to_seed", cfg.Rates.PreSeedToSeed, constants.PreSeedToSeedRange},
		{"seed_to_series_a", cfg.Rates.SeedToSeriesA, constants.SeedToSeriesARange},
		{"series_a_to_series_b", cfg.Rates.SeriesAToSeriesB, constants.SeriesAToSeriesBRange},
		{"investment.pre_seed", cfg.Investment.PreSeed, constants.PreSeedAmountRange},
		{"investment.seed", cfg.Investment.Seed, constants.SeedAmountRange},
		{"investment.series_a", cfg.Investment.SeriesA, constants.SeriesAAmountRange},
		{"investment.series_b", cfg.Investment.SeriesB, constants.SeriesBAmountRange},
		{"correlation", cfg.Correlation, constants.CorrelationRange},
		{"target_count", float64(cfg.TargetCount), constants.TargetCountRange},
	}
	for _, c := range checks {
		if !c.rng.Contains(c.value) {
			a.logger.Warn("value outside recommended range",
				"field", c.field, "value", c.value, "min", c.rng.Min, "max", c.rng.Max)
		}
	}
}

// runSettings resolves the seed and worker count for a run.
func runSettings(cmd *cobra.Command, a *app) (seed uint64, workers int, err error) {
	switch {
	case cmd.Flags().Changed("seed"):
		seed, _ = cmd.Flags().GetUint64("seed")
	case a.settings.Simulation.Seed != nil:
		seed = *a.settings.Simulation.Seed
	default:
		seed = rand.Uint64()
	}

	workers = a.settings.Simulation.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}
	if workers < 1 {
		return 0, 0, fmt.Errorf("--workers must be at least 1, got %d", workers)
	}
	return seed, workers, nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
