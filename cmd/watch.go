package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/agentic-research/objtree/internal/ipc"
)

var watchSubtree bool

func init() {
	watchCmd.Flags().BoolVarP(&watchSubtree, "subtree", "r", false, "Also report changes below the object")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [PATH]",
	Short: "Print attribute changes of an object as they happen",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client, err := ipc.Dial(ctx, cfg.SocketPath)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		if _, err := client.Watch(ctx, path, watchSubtree); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-client.Done():
				return fmt.Errorf("daemon closed the connection")
			case ch := <-client.Changes():
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", ch.Path, ch.Old, ch.New); err != nil {
					return err
				}
			}
		}
	},
}
