package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hepwatch/arxivbot/internal/feed"
)

// PublishError reports a failed send and carries the offending entry id.
type PublishError struct {
	EntryID string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.EntryID, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Publisher sends entries one at a time, pacing sends to stay under the chat
// platform's per-chat rate limit.
type Publisher struct {
	sender  Sender
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewPublisher builds a Publisher that waits at least minInterval between
// consecutive sends.
func NewPublisher(sender Sender, minInterval time.Duration, logger *zap.Logger) *Publisher {
	if minInterval <= 0 {
		minInterval = 1200 * time.Millisecond
	}
	return &Publisher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		logger:  logger,
	}
}

// Publish sends the given entries in order and returns the ids confirmed
// sent. The first failure stops the loop; the returned ids cover everything
// sent before it, so the caller can persist exactly what went out.
func (p *Publisher) Publish(ctx context.Context, entries []feed.Entry) ([]string, error) {
	sent := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := p.limiter.Wait(ctx); err != nil {
			return sent, &PublishError{EntryID: entry.ID, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
		if err := p.sender.Send(ctx, FormatEntry(entry)); err != nil {
			return sent, &PublishError{EntryID: entry.ID, Err: err}
		}
		sent = append(sent, entry.ID)
		p.logger.Info("entry published",
			zap.String("id", entry.ID),
			zap.String("title", entry.Title),
		)
	}
	return sent, nil
}
