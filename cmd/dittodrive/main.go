package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	logLevel    string
	username    string
	admin       bool
	dumpMetrics bool

	// cfg is loaded by the root command before any subcommand runs
	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dittodrive",
		Short: "DittoDrive - virtual drive with batch file jobs",
		Long: `DittoDrive stores folders and multi-parent files in drives and runs
batch jobs over them: move, copy, delete and pack.

Entities are addressed as drive:name. Job paths are drive:folder,
drive:folder/file or drive:/file.

QUICK START:

  dittodrive init
  dittodrive folder create docs:root "Documents"
  dittodrive file put docs:readme ./README.md --parent docs:root
  dittodrive ls docs:root
  dittodrive copy docs:root/readme --to docs:archive

For more help on any command, use: dittodrive <command> --help`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if dumpMetrics && metrics.IsEnabled() {
				return metrics.WriteText(cmd.OutOrStdout())
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (overrides logging.level)")
	rootCmd.PersistentFlags().StringVar(&username, "as", os.Getenv("USER"), "username the jobs run as")
	rootCmd.PersistentFlags().BoolVar(&admin, "admin", false, "bypass access rules")
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "print the collected metrics after the command")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newFolderCmd())
	rootCmd.AddCommand(newFileCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newAccessCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newCopyCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newPackCmd())
	rootCmd.AddCommand(newGCCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration and configures logging and metrics.
// The init command runs without a configuration.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "init" {
		return nil
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	if dumpMetrics {
		cfg.Metrics.Enabled = true
	}
	config.InitializeMetrics(cfg)
	return nil
}

// withRuntime opens the stores for the duration of fn. The context passed
// to fn is cancelled on SIGINT and SIGTERM.
func withRuntime(fn func(ctx context.Context, cmd *cobra.Command, rt *config.Runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := config.NewRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := rt.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		return fn(ctx, cmd, rt, args)
	}
}

// issuer is the identity selected by --as and --admin.
func issuer() *metadata.Identity {
	return &metadata.Identity{Username: username, Admin: admin}
}
