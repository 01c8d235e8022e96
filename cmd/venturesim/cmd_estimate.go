package main

import (
	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/report"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Show closed-form expected values, ignoring correlation",
		Long: `Compute expected project counts and capital per stage as the running
product of the advancement rates. The result is instant and exact for
independent projects but carries no dispersion; use 'venturesim run' to see
how correlation widens the outcomes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := resolveScenario(cmd.Context(), cmd, a)
			if err != nil {
				return err
			}

			est, err := portfolio.EstimateOf(sc.config)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return report.WriteJSON(out, map[string]any{
					"preset":   sc.preset,
					"config":   sc.config,
					"estimate": est,
				})
			}
			return report.WriteEstimate(out, sc.config, est)
		},
	}

	addScenarioFlags(cmd)
	return cmd
}
