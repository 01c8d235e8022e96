package mcp

import (
	"time"

	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/preset"
)

// SimulateInput defines the input for the portfolio_simulate tool.
type SimulateInput struct {
	Preset   string            `json:"preset,omitempty" jsonschema:"Preset to start from (default: baseline)"`
	Scenario preset.Overrides  `json:"scenario,omitempty" jsonschema:"Fields replacing the preset's values"`
	Trials   int               `json:"trials,omitempty" jsonschema:"Number of simulated cohorts (default from server config)"`
	Seed     *uint64           `json:"seed,omitempty" jsonschema:"Random seed; repeat a call with the returned seed to reproduce it"`
}

// SimulateOutput defines the output for the portfolio_simulate tool.
type SimulateOutput struct {
	Preset  string           `json:"preset" jsonschema:"Preset the scenario started from"`
	Config  portfolio.Config `json:"config" jsonschema:"Configuration that was simulated"`
	Seed    uint64           `json:"seed" jsonschema:"Seed used for this run"`
	Result  portfolio.Result `json:"result" jsonschema:"Aggregated statistics over all trials"`
	Summary string           `json:"summary" jsonschema:"Human-readable result message"`
}

// EstimateInput defines the input for the portfolio_estimate tool.
type EstimateInput struct {
	Preset   string           `json:"preset,omitempty" jsonschema:"Preset to start from (default: baseline)"`
	Scenario preset.Overrides `json:"scenario,omitempty" jsonschema:"Fields replacing the preset's values"`
}

// EstimateOutput defines the output for the portfolio_estimate tool.
type EstimateOutput struct {
	Preset   string             `json:"preset" jsonschema:"Preset the scenario started from"`
	Config   portfolio.Config   `json:"config" jsonschema:"Configuration that was estimated"`
	Estimate portfolio.Estimate `json:"estimate" jsonschema:"Expected values ignoring correlation"`
	Summary  string             `json:"summary" jsonschema:"Human-readable result message"`
}

// PresetsInput defines the input for the portfolio_presets tool.
type PresetsInput struct {
	Name string `json:"name,omitempty" jsonschema:"Return only this preset, with its full configuration"`
}

// PresetsOutput defines the output for the portfolio_presets tool.
type PresetsOutput struct {
	Presets []PresetListItem `json:"presets" jsonschema:"Available presets"`
	Count   int              `json:"count" jsonschema:"Number of presets"`
}

// PresetListItem provides a list view of a preset.
type PresetListItem struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	BuiltIn     bool              `json:"built_in"`
	Config      *portfolio.Config `json:"config,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

// SweepInput defines the input for the portfolio_sweep tool.
type SweepInput struct {
	Preset       string           `json:"preset,omitempty" jsonschema:"Preset to start from (default: baseline)"`
	Scenario     preset.Overrides `json:"scenario,omitempty" jsonschema:"Fields replacing the preset's values; correlation is ignored"`
	Correlations []float64        `json:"correlations,omitempty" jsonschema:"Correlation values to run (default: 0, 0.05, 0.10, 0.15, 0.20)"`
	Trials       int              `json:"trials,omitempty" jsonschema:"Number of simulated cohorts per correlation value"`
	Seed         *uint64          `json:"seed,omitempty" jsonschema:"Random seed; repeat a call with the returned seed to reproduce it"`
}

// SweepOutput defines the output for the portfolio_sweep tool.
type SweepOutput struct {
	Preset  string           `json:"preset" jsonschema:"Preset the scenario started from"`
	Seed    uint64           `json:"seed" jsonschema:"Seed used for this sweep"`
	Points  []SweepPointItem `json:"points" jsonschema:"One entry per correlation value, in request order"`
	Summary string           `json:"summary" jsonschema:"Human-readable result message"`
}

// SweepPointItem is the headline statistics of one sweep run. The full
// distribution is left out to keep responses small.
type SweepPointItem struct {
	Correlation          float64    `json:"correlation"`
	ExpectedSuccessCount float64    `json:"expected_success_count"`
	StandardDeviation    float64    `json:"standard_deviation"`
	ConfidenceInterval   [2]float64 `json:"confidence_interval"`
	ProbabilityOfTarget  float64    `json:"probability_of_target"`
	TotalInvestment      float64    `json:"total_investment"`
}
