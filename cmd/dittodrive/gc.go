package main

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/spf13/cobra"
)

func newGCCmd() *cobra.Command {
	var (
		dryRun bool
		watch  bool
	)

	run := func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error {
		if !watch {
			stats, err := rt.Collector.RunNow(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
			return nil
		}

		server, err := config.CreateMetricsServer(cfg)
		if err != nil {
			return err
		}

		rt.Collector.Start()

		defer logger.Info("Stopping garbage collector")

		// Both block until SIGINT or SIGTERM
		if server != nil {
			return server.Start(ctx)
		}
		<-ctx.Done()
		return nil
	}

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete orphaned content and expired pack archives",
		Long: `Delete orphaned content and expired pack archives.

Without --watch a single collection runs. With --watch the collector runs
every gc.interval until interrupted, and /metrics is served on metrics.port
when metrics are enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				cfg.GC.DryRun = true
			}
			if watch {
				cfg.GC.Enabled = true
			}
			return withRuntime(run)(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would be deleted without deleting")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep collecting every gc.interval")
	return cmd
}
