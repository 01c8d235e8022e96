package main

import (
	"github.com/spf13/cobra"

	"github.com/inventure/venturesim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the portfolio tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout so AI assistants
can run simulations.

Tools: portfolio_simulate, portfolio_estimate, portfolio_presets,
portfolio_sweep. Calls are rate limited and, unless mcp.audit is false,
recorded in ~/.venturesim/audit.jsonl.

Logs go to stderr (and logging.file when set); stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "venturesim",
				Version:  version,
				Dir:      a.dir,
				Settings: a.settings,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			return server.Run(cmd.Context())
		},
	}
}
