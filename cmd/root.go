// Package cmd defines and implements the CLI commands for the arxivbot executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hepwatch/arxivbot/internal/config"
	"github.com/hepwatch/arxivbot/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arxivbot",
		Short: "Posts new arXiv submissions to a Telegram chat",
		Long: `arxivbot scrapes the daily "new submissions" listing for an arXiv
category, drops everything it already posted, and sends one message per new
entry to a Telegram chat. Weekend runs are skipped because arXiv does not
publish new listings on weekends.`,
		// Execute reports errors itself; without SilenceErrors cobra would
		// print each failure a second time.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and environment variables are used when omitted)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// Execute is the main entry point. A failed command exits non-zero; clean
// no-op runs (weekend, nothing new) exit zero.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func syncLogger(logger *zap.Logger) {
	// Sync on stderr fails on some platforms; nothing actionable.
	_ = logger.Sync()
}
