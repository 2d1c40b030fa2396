// Package pipeline composes the fetch, dedupe and publish stages of one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hepwatch/arxivbot/internal/clock"
	"github.com/hepwatch/arxivbot/internal/feed"
	"github.com/hepwatch/arxivbot/internal/guard"
	"github.com/hepwatch/arxivbot/internal/state"
	"github.com/hepwatch/arxivbot/internal/telemetry"
)

// Fetcher retrieves the current listing.
type Fetcher interface {
	Fetch(ctx context.Context) ([]feed.Entry, error)
}

// Store persists the seen-set between runs.
type Store interface {
	Load() (state.Seen, error)
	Save(seen state.Seen, lastRun time.Time) error
}

// Publisher sends new entries and reports which ids were confirmed sent.
type Publisher interface {
	Publish(ctx context.Context, entries []feed.Entry) ([]string, error)
}

// IDGenerator produces run ids for log correlation.
type IDGenerator interface {
	NewID() (string, error)
}

// Deps bundles the collaborators a Pipeline needs.
type Deps struct {
	Fetcher   Fetcher
	Store     Store
	Publisher Publisher
	Gate      guard.Weekend
	Clock     clock.Clock
	IDs       IDGenerator
	Logger    *zap.Logger
}

// Pipeline runs one fetch/dedupe/publish cycle at a time.
//
// State is saved with exactly the ids confirmed sent, including when a send
// fails partway through, so a retried run never re-publishes an entry.
type Pipeline struct {
	deps  Deps
	force bool
}

// New constructs a Pipeline. force bypasses the weekend gate.
func New(deps Deps, force bool) *Pipeline {
	return &Pipeline{deps: deps, force: force}
}

// Run executes one cycle. Gate halts and an empty diff are clean no-ops;
// fetch, storage and publish failures propagate.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.deps.Logger
	if runID, err := p.deps.IDs.NewID(); err == nil {
		logger = logger.With(zap.String("run_id", runID))
	}

	now := p.deps.Clock.Now()
	if p.gateBlocked(now, logger) {
		return nil
	}

	start := time.Now()
	entries, err := p.deps.Fetcher.Fetch(ctx)
	if err != nil {
		telemetry.ObserveRun(telemetry.OutcomeError)
		return fmt.Errorf("fetch listing: %w", err)
	}
	telemetry.ObserveFetch(len(entries), time.Since(start))

	seen, err := p.deps.Store.Load()
	if err != nil {
		telemetry.ObserveRun(telemetry.OutcomeError)
		return fmt.Errorf("load state: %w", err)
	}

	fresh := unseen(entries, seen)
	logger.Info("listing diffed",
		zap.Int("fetched", len(entries)),
		zap.Int("new", len(fresh)),
	)
	if len(fresh) == 0 {
		telemetry.ObserveRun(telemetry.OutcomeNoNew)
		logger.Info("no new submissions to post")
		return nil
	}

	sent, pubErr := p.deps.Publisher.Publish(ctx, fresh)
	if pubErr != nil {
		telemetry.ObservePublishError()
	}
	telemetry.ObservePublished(len(sent))

	var saveErr error
	if len(sent) > 0 {
		for _, id := range sent {
			seen.Add(id)
		}
		if saveErr = p.deps.Store.Save(seen, now); saveErr != nil {
			saveErr = fmt.Errorf("save state: %w", saveErr)
		}
	}

	if pubErr != nil || saveErr != nil {
		telemetry.ObserveRun(telemetry.OutcomeError)
		if pubErr != nil {
			pubErr = fmt.Errorf("publish: %w", pubErr)
		}
		return errors.Join(pubErr, saveErr)
	}

	telemetry.ObserveRun(telemetry.OutcomeOK)
	logger.Info("run finished", zap.Int("published", len(sent)))
	return nil
}

func (p *Pipeline) gateBlocked(now time.Time, logger *zap.Logger) bool {
	if !p.deps.Gate.Blocked(now) {
		return false
	}
	if p.force {
		logger.Info("weekend gate bypassed by force flag")
		return false
	}
	telemetry.ObserveRun(telemetry.OutcomeSkippedWeekend)
	logger.Info("weekend detected, skipping run")
	return true
}

// unseen filters entries already in the seen-set, preserving document order.
func unseen(entries []feed.Entry, seen state.Seen) []feed.Entry {
	fresh := make([]feed.Entry, 0, len(entries))
	for _, e := range entries {
		if !seen.Has(e.ID) {
			fresh = append(fresh, e)
		}
	}
	return fresh
}
