// Package notify formats entries and delivers them to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender delivers one formatted message to the destination chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramConfig holds bot credentials and destination.
type TelegramConfig struct {
	// Token is the bot credential. It is never logged.
	Token string
	// ChatID is a numeric chat id or an @channel username.
	ChatID string
	// Endpoint overrides the API endpoint, for tests. Empty means api.telegram.org.
	Endpoint string
	// MaxRetry429 bounds how often a single send is retried after the API
	// asks us to back off. Other failures are not retried.
	MaxRetry429 int
}

// Telegram sends messages through the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	cfg    TelegramConfig
	logger *zap.Logger
}

// NewTelegram authenticates the bot token against the API and returns a
// Telegram sender.
func NewTelegram(cfg TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("authenticate bot: %w", err)
	}
	logger.Info("telegram bot authenticated", zap.String("username", bot.Self.UserName))
	return &Telegram{bot: bot, cfg: cfg, logger: logger}, nil
}

// Send posts one HTML message to the configured chat. A 429 response is
// honored by sleeping for the server-provided retry_after, a bounded number
// of times.
func (t *Telegram) Send(ctx context.Context, text string) error {
	msg := t.message(text)

	attempts := t.cfg.MaxRetry429 + 1
	for attempt := 0; attempt < attempts; attempt++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}

		retryAfter, ok := retryAfterOf(err)
		if !ok || attempt == attempts-1 {
			return fmt.Errorf("send message: %w", err)
		}

		t.logger.Warn("telegram rate limited, backing off",
			zap.Duration("retry_after", retryAfter),
			zap.Int("attempt", attempt+1),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("send canceled: %w", ctx.Err())
		case <-time.After(retryAfter):
		}
	}
	return nil
}

// ChatInfo reports the resolved chat, for credential checks.
type ChatInfo struct {
	ID    int64
	Type  string
	Title string
}

// CheckChat verifies the bot can see the destination chat.
func (t *Telegram) CheckChat(_ context.Context) (ChatInfo, error) {
	chat, err := t.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: t.chatConfig()})
	if err != nil {
		return ChatInfo{}, fmt.Errorf("get chat: %w", err)
	}
	return ChatInfo{ID: chat.ID, Type: chat.Type, Title: chat.Title}, nil
}

func (t *Telegram) message(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(t.cfg.ChatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(t.cfg.ChatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg
}

func (t *Telegram) chatConfig() tgbotapi.ChatConfig {
	if id, err := strconv.ParseInt(t.cfg.ChatID, 10, 64); err == nil {
		return tgbotapi.ChatConfig{ChatID: id}
	}
	return tgbotapi.ChatConfig{SuperGroupUsername: t.cfg.ChatID}
}

func retryAfterOf(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.RetryAfter <= 0 {
		return 0, false
	}
	return time.Duration(apiErr.RetryAfter) * time.Second, true
}
