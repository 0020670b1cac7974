package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	mcpserver "github.com/vadimtrunov/moviedeck/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It exposes the catalog as MCP tools over stdin/stdout, so logs go to stderr.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App, os.Stderr)
			cat, err := initCatalog(cfg, logger)
			if err != nil {
				return err
			}

			srv := mcpserver.NewServer(cat, version, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
