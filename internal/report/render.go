package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/store"
)

// WriteSummary writes the headline statistics of res.
func WriteSummary(w io.Writer, cfg portfolio.Config, res *portfolio.Result) error {
	cfg = cfg.WithDefaults()

	var b strings.Builder
	b.WriteString("Simulation Results\n")
	b.WriteString(rule(40) + "\n")
	fmt.Fprintf(&b, "Trials:                  %d\n", res.TrialCount)
	fmt.Fprintf(&b, "Pre-seed projects:       %d\n", cfg.PreSeedCount)
	fmt.Fprintf(&b, "Correlation:             %s\n", Percent(cfg.Correlation))
	fmt.Fprintf(&b, "Expected Series B:       %s\n", Count(res.ExpectedSuccessCount))
	fmt.Fprintf(&b, "Standard deviation:      %s\n", Count(res.StandardDeviation))
	fmt.Fprintf(&b, "95%% confidence interval: %.0f - %.0f projects\n",
		res.ConfidenceInterval[0], res.ConfidenceInterval[1])
	fmt.Fprintf(&b, "P(Series B >= %d):       %s\n", cfg.TargetCount, Percent(res.ProbabilityOfTarget))
	fmt.Fprintf(&b, "Total investment:        %s\n", Money(res.TotalInvestment))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteBreakdown writes the per-stage population and capital table.
func WriteBreakdown(w io.Writer, breakdown []portfolio.StageBreakdown, total float64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %10s %12s %8s\n", "Stage", "Projects", "Investment", "Share")
	b.WriteString(rule(43) + "\n")
	for _, s := range breakdown {
		fmt.Fprintf(&b, "%-10s %10s %12s %8s\n",
			s.Stage, Count(s.MeanEntityCount), Money(s.MeanInvestment), Share(s.MeanInvestment, total))
	}
	b.WriteString(rule(43) + "\n")
	fmt.Fprintf(&b, "%-10s %10s %12s\n\n", "Total", "", Money(total))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteEstimate writes the closed-form estimate of a configuration.
func WriteEstimate(w io.Writer, cfg portfolio.Config, est *portfolio.Estimate) error {
	var b strings.Builder
	b.WriteString("Expected-Value Estimate (correlation ignored)\n")
	b.WriteString(rule(40) + "\n")
	fmt.Fprintf(&b, "Pre-seed projects:       %d\n", cfg.PreSeedCount)
	fmt.Fprintf(&b, "Expected Series B:       %s\n", Count(est.ExpectedSuccessCount))
	fmt.Fprintf(&b, "Total investment:        %s\n\n", Money(est.TotalInvestment))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return WriteBreakdown(w, est.InvestmentBreakdown, est.TotalInvestment)
}

// WriteSweep writes one row per correlation value.
func WriteSweep(w io.Writer, target int, points []portfolio.SweepPoint) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %10s %8s %11s %10s %12s\n",
		"Correlation", "Expected", "Std Dev", "95% CI", fmt.Sprintf("P(>=%d)", target), "Investment")
	b.WriteString(rule(68) + "\n")
	for _, p := range points {
		r := p.Result
		ci := fmt.Sprintf("%.0f-%.0f", r.ConfidenceInterval[0], r.ConfidenceInterval[1])
		fmt.Fprintf(&b, "%-12s %10s %8s %11s %10s %12s\n",
			Percent(p.Correlation), Count(r.ExpectedSuccessCount), Count(r.StandardDeviation),
			ci, Percent(r.ProbabilityOfTarget), Money(r.TotalInvestment))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WritePresets writes a one-line listing per preset.
func WritePresets(w io.Writer, presets []store.Preset) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-8s %s\n", "Name", "Source", "Description")
	b.WriteString(rule(72) + "\n")
	for _, p := range presets {
		source := "user"
		if p.BuiltIn {
			source = "builtin"
		}
		fmt.Fprintf(&b, "%-20s %-8s %s\n", truncate(p.Name, 20), source, truncate(p.Description, 42))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
