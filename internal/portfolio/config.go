package portfolio

import (
	"math"

	"github.com/inventure/venturesim/internal/constants"
)

// Rates holds the probability a project advances across each transition.
type Rates struct {
	PreSeedToSeed    float64 `json:"pre_seed_to_seed" yaml:"pre_seed_to_seed"`
	SeedToSeriesA    float64 `json:"seed_to_series_a" yaml:"seed_to_series_a"`
	SeriesAToSeriesB float64 `json:"series_a_to_series_b" yaml:"series_a_to_series_b"`
}

// transitions returns the rates in stage order.
func (r Rates) transitions() [NumStages - 1]float64 {
	return [NumStages - 1]float64{r.PreSeedToSeed, r.SeedToSeriesA, r.SeriesAToSeriesB}
}

// Investment holds the capital committed per project at each stage, in millions.
type Investment struct {
	PreSeed float64 `json:"pre_seed" yaml:"pre_seed"`
	Seed    float64 `json:"seed" yaml:"seed"`
	SeriesA float64 `json:"series_a" yaml:"series_a"`
	SeriesB float64 `json:"series_b" yaml:"series_b"`
}

// At returns the per-project amount for stage s.
func (i Investment) At(s Stage) float64 {
	switch s {
	case PreSeed:
		return i.PreSeed
	case Seed:
		return i.Seed
	case SeriesA:
		return i.SeriesA
	case SeriesB:
		return i.SeriesB
	default:
		return 0
	}
}

// Config describes one simulation run. It is never modified by the engine.
type Config struct {
	// PreSeedCount is the number of projects entering the first stage.
	PreSeedCount int `json:"pre_seed_count" yaml:"pre_seed_count"`

	// Rates are the per-transition advancement probabilities, each in (0, 1).
	Rates Rates `json:"advancement_rates" yaml:"advancement_rates"`

	// Investment is the per-project capital at each stage.
	Investment Investment `json:"investment" yaml:"investment"`

	// Correlation in [0, 1] weights the shared factor against the
	// project's own draw. 0 means independent projects, 1 means every
	// project shares one fate per transition.
	Correlation float64 `json:"correlation" yaml:"correlation"`

	// TargetCount is the Series B count used for ProbabilityOfTarget.
	TargetCount int `json:"target_count" yaml:"target_count"`

	// TrialCount is the number of cohort simulations. Zero means
	// constants.DefaultTrialCount.
	TrialCount int `json:"trial_count,omitempty" yaml:"trial_count,omitempty"`

	// CarryOver in [0, 1] is the share of a transition's common factor kept
	// by the next transition. Nil means constants.DefaultCarryOver.
	CarryOver *float64 `json:"carry_over,omitempty" yaml:"carry_over,omitempty"`
}

// DefaultConfig returns the baseline scenario.
func DefaultConfig() Config {
	return Config{
		PreSeedCount: constants.DefaultPreSeedCount,
		Rates: Rates{
			PreSeedToSeed:    constants.DefaultPreSeedToSeedRate,
			SeedToSeriesA:    constants.DefaultSeedToSeriesARate,
			SeriesAToSeriesB: constants.DefaultSeriesAToSeriesBRate,
		},
		Investment: Investment{
			PreSeed: constants.DefaultPreSeedInvestment,
			Seed:    constants.DefaultSeedInvestment,
			SeriesA: constants.DefaultSeriesAInvestment,
			SeriesB: constants.DefaultSeriesBInvestment,
		},
		Correlation: constants.DefaultCorrelation,
		TargetCount: constants.DefaultTargetCount,
		TrialCount:  constants.DefaultTrialCount,
	}
}

// WithDefaults returns a copy with zero-valued optional fields filled in.
func (c Config) WithDefaults() Config {
	if c.TrialCount == 0 {
		c.TrialCount = constants.DefaultTrialCount
	}
	if c.CarryOver == nil {
		carry := constants.DefaultCarryOver
		c.CarryOver = &carry
	} else {
		carry := *c.CarryOver
		c.CarryOver = &carry
	}
	return c
}

// carry returns the effective carry-over share.
func (c Config) carry() float64 {
	if c.CarryOver == nil {
		return constants.DefaultCarryOver
	}
	return *c.CarryOver
}

// Validate checks every precondition of Run. The returned error is a
// *ConfigError wrapping ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.PreSeedCount < 1 {
		return invalid("pre_seed_count", "must be at least 1, got %d", c.PreSeedCount)
	}

	rates := []struct {
		field string
		value float64
	}{
		{"advancement_rates.pre_seed_to_seed", c.Rates.PreSeedToSeed},
		{"advancement_rates.seed_to_series_a", c.Rates.SeedToSeriesA},
		{"advancement_rates.series_a_to_series_b", c.Rates.SeriesAToSeriesB},
	}
	for _, r := range rates {
		// Written as a negated range so NaN fails too.
		if !(r.value > 0 && r.value < 1) {
			return invalid(r.field, "must be strictly between 0 and 1, got %g", r.value)
		}
	}

	for _, s := range Stages {
		v := c.Investment.At(s)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return invalid("investment."+stageKey(s), "must be a non-negative finite amount, got %g", v)
		}
	}

	if !(c.Correlation >= 0 && c.Correlation <= 1) {
		return invalid("correlation", "must be between 0 and 1, got %g", c.Correlation)
	}
	if c.TargetCount < 0 {
		return invalid("target_count", "must be non-negative, got %d", c.TargetCount)
	}
	if c.TrialCount < 1 {
		return invalid("trial_count", "must be at least 1, got %d", c.TrialCount)
	}
	if carry := c.carry(); !(carry >= 0 && carry <= 1) {
		return invalid("carry_over", "must be between 0 and 1, got %g", carry)
	}
	return nil
}

// stageKey is the snake_case config key for a stage.
func stageKey(s Stage) string {
	switch s {
	case PreSeed:
		return "pre_seed"
	case Seed:
		return "seed"
	case SeriesA:
		return "series_a"
	case SeriesB:
		return "series_b"
	default:
		return "unknown"
	}
}
