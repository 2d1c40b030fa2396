package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hepwatch/arxivbot/internal/clock/system"
	"github.com/hepwatch/arxivbot/internal/config"
	"github.com/hepwatch/arxivbot/internal/feed"
	"github.com/hepwatch/arxivbot/internal/guard"
	"github.com/hepwatch/arxivbot/internal/id/uuid"
	"github.com/hepwatch/arxivbot/internal/notify"
	"github.com/hepwatch/arxivbot/internal/pipeline"
	"github.com/hepwatch/arxivbot/internal/state"
)

// buildTelegram authenticates the bot against the API.
func buildTelegram(cfg config.Config, logger *zap.Logger) (*notify.Telegram, error) {
	tg, err := notify.NewTelegram(notify.TelegramConfig{
		Token:       cfg.Telegram.Token,
		ChatID:      cfg.Telegram.ChatID,
		MaxRetry429: cfg.Telegram.MaxRetry429,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init telegram: %w", err)
	}
	return tg, nil
}

// buildPipeline wires all pipeline stages from configuration. The Telegram
// sender is returned alongside the pipeline so the daemon can report failures
// to the chat itself.
func buildPipeline(cfg config.Config, logger *zap.Logger, force bool) (*pipeline.Pipeline, *notify.Telegram, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	tg, err := buildTelegram(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	fetcher := feed.NewFetcher(feed.Config{
		BaseURL:   cfg.Source.BaseURL,
		Category:  cfg.Source.Category,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	deps := pipeline.Deps{
		Fetcher:   fetcher,
		Store:     state.NewStore(cfg.State.Path, cfg.State.MaxTrackedIDs, logger),
		Publisher: notify.NewPublisher(tg, cfg.Telegram.SendInterval, logger),
		Gate:      guard.NewWeekend(loc),
		Clock:     system.New(),
		IDs:       uuid.NewGenerator(),
		Logger:    logger,
	}
	return pipeline.New(deps, force || cfg.Schedule.Force), tg, nil
}
