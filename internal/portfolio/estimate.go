package portfolio

// Estimate is the closed-form expected-value view of a Config. It ignores
// correlation and has no dispersion; use it as a quick reference next to a
// simulated Result, never in place of one.
type Estimate struct {
	ExpectedSuccessCount float64          `json:"expected_success_count"`
	TotalInvestment      float64          `json:"total_investment"`
	InvestmentBreakdown  []StageBreakdown `json:"investment_breakdown"`
}

// EstimateOf computes expected survivors per stage as the running product
// of advancement rates, and the matching expected capital.
func EstimateOf(cfg Config) (*Estimate, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rates := cfg.Rates.transitions()
	expected := float64(cfg.PreSeedCount)

	est := &Estimate{InvestmentBreakdown: make([]StageBreakdown, NumStages)}
	for _, s := range Stages {
		if s > PreSeed {
			expected *= rates[s-1]
		}
		inv := expected * cfg.Investment.At(s)
		est.InvestmentBreakdown[s] = StageBreakdown{
			Stage:           s.String(),
			MeanEntityCount: expected,
			MeanInvestment:  inv,
		}
		est.TotalInvestment += inv
	}
	est.ExpectedSuccessCount = expected
	return est, nil
}
