// Package constants provides named constants used throughout venturesim.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// AppDirName is the per-user directory holding config, presets and logs.
const AppDirName = ".venturesim"

// Default scenario: the baseline cohort shown on the landing page.
const (
	// DefaultPreSeedCount is the number of pre-seed investments in the cohort.
	DefaultPreSeedCount = 876

	// DefaultPreSeedToSeedRate is the probability a pre-seed project raises a seed round.
	DefaultPreSeedToSeedRate = 0.20

	// DefaultSeedToSeriesARate is the probability a seed project raises a Series A.
	DefaultSeedToSeriesARate = 0.40

	// DefaultSeriesAToSeriesBRate is the probability a Series A project raises a Series B.
	DefaultSeriesAToSeriesBRate = 0.60

	// Per-project investment at each stage, in millions.
	DefaultPreSeedInvestment = 0.5
	DefaultSeedInvestment    = 1.0
	DefaultSeriesAInvestment = 7.5
	DefaultSeriesBInvestment = 35.0

	// DefaultCorrelation is the shared-fate coupling between projects.
	DefaultCorrelation = 0.05

	// DefaultTargetCount is the number of Series B projects the fund aims for.
	DefaultTargetCount = 40
)

// Simulation engine constants.
const (
	// DefaultTrialCount is the number of cohort simulations when none is given.
	DefaultTrialCount = 1000

	// DefaultCarryOver is the share of a stage's common factor carried into the
	// next stage transition. The remainder is fresh randomness.
	DefaultCarryOver = 0.3

	// ConfidenceZ is the two-sided 95% normal quantile.
	ConfidenceZ = 1.96

	// TrialChunkSize is the number of trials handed to one parallel worker task.
	// Chunk layout depends only on the trial count, so seeded parallel runs
	// are reproducible for any worker count.
	TrialChunkSize = 256
)

// Range is an inclusive numeric range offered by interactive controls.
type Range struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Documented control ranges. These are guidance for presentation layers and
// the "outside recommended range" CLI warning; the engine accepts any value
// satisfying its own preconditions.
var (
	PreSeedCountRange     = Range{Min: 100, Max: 2000, Step: 1}
	TargetCountRange      = Range{Min: 10, Max: 100, Step: 1}
	PreSeedToSeedRange    = Range{Min: 0.05, Max: 0.35, Step: 0.01}
	SeedToSeriesARange    = Range{Min: 0.20, Max: 0.60, Step: 0.01}
	SeriesAToSeriesBRange = Range{Min: 0.40, Max: 0.80, Step: 0.01}
	PreSeedAmountRange    = Range{Min: 0.1, Max: 2, Step: 0.1}
	SeedAmountRange       = Range{Min: 0.5, Max: 5, Step: 0.1}
	SeriesAAmountRange    = Range{Min: 2, Max: 15, Step: 0.5}
	SeriesBAmountRange    = Range{Min: 10, Max: 100, Step: 1}
	CorrelationRange      = Range{Min: 0, Max: 0.20, Step: 0.01}
)

// DefaultSweepCorrelations are the correlation values used by the sweep
// command when none are supplied.
var DefaultSweepCorrelations = []float64{0, 0.05, 0.10, 0.15, 0.20}
