package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/objtree/internal/ipc"
)

func init() {
	// flags after COMMAND belong to the command
	callCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(callCmd)
}

var callCmd = &cobra.Command{
	Use:   "call COMMAND [ARGS...]",
	Short: "Run a command on the daemon",
	Example: `  objtree call set settings.frame_gap 7
  objtree call attr theme.tiling.active
  objtree call sprintf X "gap is %s" settings.frame_gap echo X`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := ipc.Dial(cmd.Context(), cfg.SocketPath)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		res, err := client.Call(cmd.Context(), args...)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), res.Output); err != nil {
			return err
		}
		if res.Status != 0 {
			return exitError{code: res.Status}
		}
		return nil
	},
}
