package cmd

import (
	"github.com/spf13/cobra"
)

// newRunCmd creates the 'run' subcommand: one fetch/publish cycle, then exit.
func newRunCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape and post once, then exit",
		Long: `Fetches the listing once, posts everything not seen before, persists the
updated seen-set and exits. Intended for external schedulers (cron, CI
workflows). A weekend or an empty diff is a clean no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			p, _, err := buildPipeline(cfg, logger, force)
			if err != nil {
				return err
			}
			return p.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the weekend gate (duplicates are still suppressed)")
	return cmd
}
