package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hepwatch/arxivbot/internal/feed"
	"github.com/hepwatch/arxivbot/internal/guard"
	"github.com/hepwatch/arxivbot/internal/notify"
	"github.com/hepwatch/arxivbot/internal/pipeline"
	"github.com/hepwatch/arxivbot/internal/state"
)

type fakeFetcher struct {
	entries []feed.Entry
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) ([]feed.Entry, error) {
	f.calls++
	return f.entries, f.err
}

type fakeStore struct {
	seen    state.Seen
	loadErr error
	saveErr error
	saved   *state.Seen
}

func (s *fakeStore) Load() (state.Seen, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.seen, nil
}

func (s *fakeStore) Save(seen state.Seen, _ time.Time) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := state.NewSeen(seen.Sorted()...)
	s.saved = &copied
	return nil
}

type fakePublisher struct {
	failID string
	sent   []string
	calls  int
}

func (p *fakePublisher) Publish(_ context.Context, entries []feed.Entry) ([]string, error) {
	p.calls++
	sent := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID == p.failID {
			return sent, &notify.PublishError{EntryID: e.ID, Err: errors.New("send failed")}
		}
		sent = append(sent, e.ID)
	}
	p.sent = sent
	return sent, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) {
	return "test-run", nil
}

var (
	monday   = time.Date(2021, 1, 4, 8, 0, 0, 0, time.UTC)
	saturday = time.Date(2021, 1, 2, 8, 0, 0, 0, time.UTC)
)

func newPipeline(t *testing.T, fetcher *fakeFetcher, store *fakeStore, pub *fakePublisher, now time.Time, force bool) *pipeline.Pipeline {
	t.Helper()
	return pipeline.New(pipeline.Deps{
		Fetcher:   fetcher,
		Store:     store,
		Publisher: pub,
		Gate:      guard.NewWeekend(time.UTC),
		Clock:     fixedClock{now: now},
		IDs:       fixedIDs{},
		Logger:    zap.NewNop(),
	}, force)
}

func TestRunPublishesOnlyUnseen(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001", "2101.00002")}
	store := &fakeStore{seen: state.NewSeen("2101.00001")}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"2101.00002"}, pub.sent)
	require.NotNil(t, store.saved)
	assert.True(t, store.saved.Has("2101.00001"))
	assert.True(t, store.saved.Has("2101.00002"))
}

func TestRunSecondCycleIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001", "2101.00002")}
	store := &fakeStore{seen: state.NewSeen("2101.00001", "2101.00002")}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	require.NoError(t, p.Run(context.Background()))

	assert.Zero(t, pub.calls)
	assert.Nil(t, store.saved)
}

func TestRunEmptyListing(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{seen: state.Seen{}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	require.NoError(t, p.Run(context.Background()))

	assert.Zero(t, pub.calls)
	assert.Nil(t, store.saved)
}

func TestRunWeekendSkips(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001")}
	store := &fakeStore{seen: state.Seen{}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, saturday, false)
	require.NoError(t, p.Run(context.Background()))

	assert.Zero(t, fetcher.calls)
	assert.Zero(t, pub.calls)
}

func TestRunForceBypassesWeekend(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001")}
	store := &fakeStore{seen: state.Seen{}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, saturday, true)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []string{"2101.00001"}, pub.sent)
}

func TestRunPublishFailureKeepsConfirmedOnly(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001", "2101.00002", "2101.00003")}
	store := &fakeStore{seen: state.Seen{}}
	pub := &fakePublisher{failID: "2101.00002"}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	err := p.Run(context.Background())
	require.Error(t, err)

	var pubErr *notify.PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "2101.00002", pubErr.EntryID)

	require.NotNil(t, store.saved)
	assert.True(t, store.saved.Has("2101.00001"))
	assert.False(t, store.saved.Has("2101.00002"))
	assert.False(t, store.saved.Has("2101.00003"))
}

func TestRunFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: &feed.FetchError{URL: "u", Err: errors.New("down")}}
	store := &fakeStore{seen: state.Seen{}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	err := p.Run(context.Background())
	require.Error(t, err)

	var fetchErr *feed.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, pub.calls)
}

func TestRunLoadFailure(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001")}
	store := &fakeStore{loadErr: &state.StorageError{Path: "p", Op: "read", Err: errors.New("io")}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, pub.calls)
}

func TestRunSaveFailureSurfaces(t *testing.T) {
	fetcher := &fakeFetcher{entries: entriesByID("2101.00001")}
	store := &fakeStore{seen: state.Seen{}, saveErr: &state.StorageError{Path: "p", Op: "write", Err: errors.New("io")}}
	pub := &fakePublisher{}

	p := newPipeline(t, fetcher, store, pub, monday, false)
	err := p.Run(context.Background())
	require.Error(t, err)

	var storageErr *state.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func entriesByID(ids ...string) []feed.Entry {
	entries := make([]feed.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, feed.Entry{ID: id, Title: "t-" + id})
	}
	return entries
}
