package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCheckCmd creates the 'check' subcommand, which verifies the bot
// credential and destination chat without touching the listing or the state.
func newCheckCmd() *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the bot credential and destination chat",
		Long: `Authenticates the bot token and resolves the destination chat, printing
its numeric id. With --send-test, also posts a test message so permissions
can be verified end to end.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			tg, err := buildTelegram(cfg, logger)
			if err != nil {
				return err
			}

			info, err := tg.CheckChat(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("chat resolved",
				zap.Int64("chat_id", info.ID),
				zap.String("type", info.Type),
				zap.String("title", info.Title),
			)

			if sendTest {
				if err := tg.Send(cmd.Context(), "Test: arxivbot can send messages."); err != nil {
					return err
				}
				logger.Info("test message sent")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sendTest, "send-test", false, "post a test message to the chat")
	return cmd
}
