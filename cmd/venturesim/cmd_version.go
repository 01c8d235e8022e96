package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/report"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "venturesim version %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
