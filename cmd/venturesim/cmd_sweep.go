package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/constants"
	"github.com/inventure/venturesim/internal/logging"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/report"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Compare Series B outcomes across correlation values",
		Long: `Run the same scenario once per correlation value. The expected count
barely moves while the standard deviation and confidence interval widen,
which is the point of the comparison.

Examples:
  venturesim sweep
  venturesim sweep --correlations 0,0.1,0.2,0.3 --trials 2000 --seed 7`,
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
			correlations, _ := cmd.Flags().GetFloat64Slice("correlations")

			start := time.Now()
			points, err := portfolio.Sweep(ctx, sc.config, correlations, portfolio.NewSource(seed),
				portfolio.WithWorkers(workers),
				portfolio.WithLogger(a.logger))
			if err != nil {
				return err
			}

			runLog := logging.NewRunLog(a.dir, a.settings.Logging)
			defer runLog.Close()
			runLog.Log(map[string]any{
				"command":      "sweep",
				"preset":       sc.preset,
				"seed":         seed,
				"trials":       sc.config.TrialCount,
				"workers":      workers,
				"correlations": correlations,
				"duration_ms":  time.Since(start).Milliseconds(),
			})

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return report.WriteJSON(out, map[string]any{
					"preset": sc.preset,
					"seed":   seed,
					"config": sc.config,
					"points": points,
				})
			}

			fmt.Fprintf(out, "Preset: %s   Seed: %d   Trials per value: %d\n\n",
				sc.preset, seed, sc.config.TrialCount)
			return report.WriteSweep(out, sc.config.TargetCount, points)
		},
	}

	addScenarioFlags(cmd)
	addRunFlags(cmd)
	cmd.Flags().Float64Slice("correlations", constants.DefaultSweepCorrelations, "Correlation values to compare")

	return cmd
}
