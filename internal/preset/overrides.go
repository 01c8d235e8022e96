package preset

import "github.com/inventure/venturesim/internal/portfolio"

// Overrides holds optional replacements for individual Config fields.
// Nil fields leave the base configuration untouched.
type Overrides struct {
	PreSeedCount      *int     `json:"pre_seed_count,omitempty" jsonschema:"Number of projects entering the pre-seed stage"`
	PreSeedToSeed     *float64 `json:"pre_seed_to_seed,omitempty" jsonschema:"Probability a pre-seed project raises a seed round, in (0,1)"`
	SeedToSeriesA     *float64 `json:"seed_to_series_a,omitempty" jsonschema:"Probability a seed project raises a Series A, in (0,1)"`
	SeriesAToSeriesB  *float64 `json:"series_a_to_series_b,omitempty" jsonschema:"Probability a Series A project raises a Series B, in (0,1)"`
	PreSeedInvestment *float64 `json:"pre_seed_investment,omitempty" jsonschema:"Capital per pre-seed project in millions"`
	SeedInvestment    *float64 `json:"seed_investment,omitempty" jsonschema:"Capital per seed project in millions"`
	SeriesAInvestment *float64 `json:"series_a_investment,omitempty" jsonschema:"Capital per Series A project in millions"`
	SeriesBInvestment *float64 `json:"series_b_investment,omitempty" jsonschema:"Capital per Series B project in millions"`
	Correlation       *float64 `json:"correlation,omitempty" jsonschema:"Weight of the shared market factor in [0,1]"`
	TargetCount       *int     `json:"target_count,omitempty" jsonschema:"Series B count whose attainment probability is reported"`
	CarryOver         *float64 `json:"carry_over,omitempty" jsonschema:"Share of a stage's market factor carried into the next stage, in [0,1]"`
}

// Apply returns cfg with every set override written over it.
func (o Overrides) Apply(cfg portfolio.Config) portfolio.Config {
	setInt(&cfg.PreSeedCount, o.PreSeedCount)
	setFloat(&cfg.Rates.PreSeedToSeed, o.PreSeedToSeed)
	setFloat(&cfg.Rates.SeedToSeriesA, o.SeedToSeriesA)
	setFloat(&cfg.Rates.SeriesAToSeriesB, o.SeriesAToSeriesB)
	setFloat(&cfg.Investment.PreSeed, o.PreSeedInvestment)
	setFloat(&cfg.Investment.Seed, o.SeedInvestment)
	setFloat(&cfg.Investment.SeriesA, o.SeriesAInvestment)
	setFloat(&cfg.Investment.SeriesB, o.SeriesBInvestment)
	setFloat(&cfg.Correlation, o.Correlation)
	setInt(&cfg.TargetCount, o.TargetCount)
	if o.CarryOver != nil {
		v := *o.CarryOver
		cfg.CarryOver = &v
	}
	return cfg
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
