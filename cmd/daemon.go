package cmd

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hepwatch/arxivbot/internal/api"
	"github.com/hepwatch/arxivbot/internal/notify"
)

// newDaemonCmd creates the 'daemon' subcommand: a long-lived process that
// runs one cycle every day at the configured local time.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run continuously, posting daily at the configured time",
		Long: `Stays resident and triggers one fetch/publish cycle per day at
schedule.daily_at in schedule.timezone. Also serves /healthz, /readyz and
Prometheus /metrics on server.port. Stops on SIGINT/SIGTERM.`,
		RunE: runDaemonCommand,
	}
}

func runDaemonCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	p, tg, err := buildPipeline(cfg, logger, false)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	spec, err := cfg.CronSpec()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc(spec, func() {
		if runErr := p.Run(ctx); runErr != nil {
			logger.Error("scheduled run failed", zap.Error(runErr))
			reportRunFailure(ctx, tg, cfg.Telegram.Token, runErr, logger)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily run: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	scheduler.Start()
	logger.Info("daemon started",
		zap.String("daily_at", cfg.Schedule.DailyAt),
		zap.String("timezone", cfg.Schedule.Timezone),
		zap.Int("port", cfg.Server.Port),
	)

	select {
	case err := <-serveErr:
		stopScheduler(scheduler)
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	stopScheduler(scheduler)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown failed", zap.Error(err))
	}
	return nil
}

// stopScheduler stops cron and waits for an in-flight run to finish.
func stopScheduler(scheduler *cron.Cron) {
	<-scheduler.Stop().Done()
}

// reportRunFailure tells the chat that a scheduled run failed, so the owner
// does not have to watch the logs. Best effort; a chat that is unreachable is
// likely why the run failed in the first place.
func reportRunFailure(ctx context.Context, sender notify.Sender, token string, runErr error, logger *zap.Logger) {
	text := runErr.Error()
	if token != "" {
		text = strings.ReplaceAll(text, token, "[redacted]")
	}
	msg := "Bot error: " + html.EscapeString(text)
	if err := sender.Send(ctx, msg); err != nil {
		logger.Warn("could not report failure to chat", zap.Error(err))
	}
}
