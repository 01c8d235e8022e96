// Package preset manages named simulation scenarios: a fixed set of
// built-in presets plus user presets kept in a store.PresetStore.
package preset

import (
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/store"
)

// Preset is a named simulation configuration.
type Preset = store.Preset

// Built-in preset names.
const (
	Baseline         = "baseline"
	Conservative     = "conservative"
	Aggressive       = "aggressive"
	CorrelatedMarket = "correlated-market"
)

// Builtins returns the read-only presets in display order.
func Builtins() []Preset {
	conservative := portfolio.DefaultConfig()
	conservative.Rates = portfolio.Rates{PreSeedToSeed: 0.15, SeedToSeriesA: 0.35, SeriesAToSeriesB: 0.50}

	aggressive := portfolio.DefaultConfig()
	aggressive.PreSeedCount = 1200
	aggressive.Rates = portfolio.Rates{PreSeedToSeed: 0.25, SeedToSeriesA: 0.45, SeriesAToSeriesB: 0.65}
	aggressive.TargetCount = 80

	correlated := portfolio.DefaultConfig()
	correlated.Correlation = 0.30
	carry := 0.6
	correlated.CarryOver = &carry

	baseline := portfolio.DefaultConfig()

	presets := []Preset{
		{
			Name:        Baseline,
			Description: "Default cohort of 876 pre-seed projects with historical advancement rates",
			Config:      baseline,
			BuiltIn:     true,
		},
		{
			Name:        Conservative,
			Description: "Lower advancement at every stage, as in a tight funding market",
			Config:      conservative,
			BuiltIn:     true,
		},
		{
			Name:        Aggressive,
			Description: "Larger cohort with higher advancement and a target of 80 Series B projects",
			Config:      aggressive,
			BuiltIn:     true,
		},
		{
			Name:        CorrelatedMarket,
			Description: "Projects share market conditions strongly and the shocks persist across stages",
			Config:      correlated,
			BuiltIn:     true,
		},
	}

	// Built-ins leave the trial count to the caller's settings.
	for i := range presets {
		presets[i].Config.TrialCount = 0
	}
	return presets
}

// Builtin returns the named built-in preset.
func Builtin(name string) (Preset, bool) {
	for _, p := range Builtins() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// IsBuiltin reports whether name belongs to a built-in preset.
func IsBuiltin(name string) bool {
	_, ok := Builtin(name)
	return ok
}
