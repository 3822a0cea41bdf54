package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/agentic-research/objtree/internal/config"
)

// Version is stamped at build time.
var Version = "dev"

var (
	configPath string
	socketPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "Path to the control socket")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:           "objtree",
	Short:         "objtree: a typed, introspectable object/attribute registry",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig merges the global flags into the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	overrides := map[string]any{}
	if socketPath != "" {
		overrides["socket_path"] = socketPath
	}
	if logLevel != "" {
		overrides["log.level"] = logLevel
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{ConfigFile: configPath, Overrides: overrides})
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// exitError carries a process exit code out of a command.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var e exitError
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
