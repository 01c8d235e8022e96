package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/logging"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/report"
)

// runOutput is the --json form of the run command.
type runOutput struct {
	Preset string            `json:"preset"`
	Seed   uint64            `json:"seed"`
	Config portfolio.Config  `json:"config"`
	Result *portfolio.Result `json:"result"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a portfolio and report Series B outcomes",
		Long: `Run a Monte Carlo simulation of a venture portfolio.

Each trial walks the whole cohort through Pre-Seed -> Seed -> Series A ->
Series B. Projects share a market factor per stage, weighted by
--correlation, so good and bad years move many projects together.

Start from a preset and override any field with flags. The seed is always
printed so a run can be replayed exactly.

Examples:
  venturesim run                                  # Baseline scenario
  venturesim run --correlation 0.15 --chart       # Correlated market, with histogram
  venturesim run --preset aggressive --trials 5000 --workers 4
  venturesim run --seed 42 --json                 # Reproducible, machine readable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			sc, err := resolveScenario(ctx, cmd, a)
			if err != nil {
				return err
			}
			seed, workers, err := runSettings(cmd, a)
			if err != nil {
				return err
			}

			opts := []portfolio.Option{
				portfolio.WithWorkers(workers),
				portfolio.WithLogger(a.logger),
			}
			if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
				opts = append(opts, portfolio.WithProgress(progressPrinter(cmd)))
			}

			start := time.Now()
			res, err := portfolio.Run(ctx, sc.config, portfolio.NewSource(seed), opts...)
			if err != nil {
				return err
			}

			runLog := logging.NewRunLog(a.dir, a.settings.Logging)
			defer runLog.Close()
			runLog.Log(map[string]any{
				"command":     "run",
				"preset":      sc.preset,
				"seed":        seed,
				"trials":      res.TrialCount,
				"workers":     workers,
				"correlation": sc.config.Correlation,
				"duration_ms": time.Since(start).Milliseconds(),
			})

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return report.WriteJSON(out, runOutput{
					Preset: sc.preset,
					Seed:   seed,
					Config: sc.config,
					Result: res,
				})
			}

			fmt.Fprintf(out, "Preset: %s   Seed: %d\n\n", sc.preset, seed)
			if err := report.WriteSummary(out, sc.config, res); err != nil {
				return err
			}
			if err := report.WriteBreakdown(out, res.InvestmentBreakdown, res.TotalInvestment); err != nil {
				return err
			}
			if chart, _ := cmd.Flags().GetBool("chart"); chart {
				width, _ := cmd.Flags().GetInt("chart-width")
				if err := report.WriteChart(out, res.Distribution, sc.config.TargetCount, width); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addScenarioFlags(cmd)
	addRunFlags(cmd)
	cmd.Flags().Bool("chart", false, "Print a histogram of Series B outcomes")
	cmd.Flags().Int("chart-width", report.DefaultChartWidth, "Width of the longest histogram bar")
	cmd.Flags().Bool("progress", false, "Report progress on stderr")

	return cmd
}

// progressPrinter writes "done/total" to stderr, overwriting one line.
func progressPrinter(cmd *cobra.Command) func(done, total int) {
	w := cmd.ErrOrStderr()
	return func(done, total int) {
		fmt.Fprintf(w, "\rSimulating... %d/%d trials", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
