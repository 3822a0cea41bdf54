package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/mcpserver"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve an in-process registry as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := app.New(app.Options{Logger: logger})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if err := a.ApplySeed(cfg.Seed.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("seed applied with errors", "path", cfg.Seed.Path, "err", err)
		}
		return mcpserver.New(a, Version).ServeStdio()
	},
}
