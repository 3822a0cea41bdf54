package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/config"
	fusefs "github.com/agentic-research/objtree/internal/fs"
	"github.com/agentic-research/objtree/internal/ipc"
	"github.com/agentic-research/objtree/internal/journal"
	"github.com/agentic-research/objtree/internal/nfsmount"
	"github.com/agentic-research/objtree/internal/view"
)

var (
	nfsMountpoint  string
	fuseMountpoint string
	readOnlyMounts bool
)

func init() {
	serveCmd.Flags().StringVar(&nfsMountpoint, "nfs", "", "Mount the tree over NFS at this path")
	serveCmd.Flags().StringVar(&fuseMountpoint, "fuse", "", "Mount the tree over FUSE at this path")
	serveCmd.Flags().BoolVar(&readOnlyMounts, "read-only", false, "Mount the tree read-only")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if nfsMountpoint != "" {
			cfg.NFS.Mountpoint = nfsMountpoint
		}
		if fuseMountpoint != "" {
			cfg.FUSE.Mountpoint = fuseMountpoint
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	var j *journal.Journal
	if cfg.Journal.Enabled {
		var err error
		if j, err = journal.Open(cfg.Journal.Path, cfg.Journal.Retain); err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
	}

	a, err := app.New(app.Options{Logger: logger, Journal: j})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.ApplySeed(cfg.Seed.Path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("seed applied with errors", "path", cfg.Seed.Path, "err", err)
		}
	} else {
		logger.Info("seed applied", "path", cfg.Seed.Path)
	}

	ln, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		return err
	}
	logger.Info("listening", "socket", cfg.SocketPath)

	v := view.New(a)
	writable := !readOnlyMounts

	if mp := cfg.NFS.Mountpoint; mp != "" {
		srv, err := nfsmount.NewServer(nfsmount.NewTreeFS(v, writable))
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer func() { _ = srv.Close() }()
		if err := nfsmount.Mount(srv.Port(), mp, writable); err != nil {
			_ = ln.Close()
			return err
		}
		defer func() {
			if err := nfsmount.Unmount(mp); err != nil {
				logger.Warn("nfs unmount failed", "mountpoint", mp, "err", err)
			}
		}()
		logger.Info("nfs mounted", "mountpoint", mp, "port", srv.Port())
	}

	if mp := cfg.FUSE.Mountpoint; mp != "" {
		m := fusefs.Start(fusefs.NewTreeFS(v, writable), mp)
		defer func() {
			if err := m.Close(); err != nil {
				logger.Warn("fuse unmount failed", "mountpoint", mp, "err", err)
			}
		}()
		logger.Info("fuse mounted", "mountpoint", mp)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.NewServer(a, logger.WithPrefix("ipc")).Serve(ctx, ln)
	})
	if cfg.Seed.Watch {
		g.Go(func() error {
			err := config.WatchSeed(ctx, cfg.Seed.Path, func() {
				if err := a.ApplySeed(cfg.Seed.Path); err != nil {
					logger.Warn("seed reload failed", "err", err)
					return
				}
				logger.Info("seed reloaded", "path", cfg.Seed.Path)
			})
			if err != nil {
				// the daemon keeps serving without reloads
				logger.Warn("seed watch stopped", "err", err)
			}
			return nil
		})
	}
	err = g.Wait()
	logger.Info("shutting down")

	if cfg.Seed.Persist {
		if perr := a.SaveSeed(cfg.Seed.Path); perr != nil {
			err = multierror.Append(err, fmt.Errorf("persist seed: %w", perr)).ErrorOrNil()
		}
	}
	return err
}
