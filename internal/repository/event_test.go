package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
	"eventmeet/internal/testutil"
)

type eventFixture struct {
	repo   *EventRepository
	store  meet.Store
	remote *testutil.FakeRemote
	clock  *testutil.StubClock
}

func newEventFixture(t *testing.T) eventFixture {
	t.Helper()
	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)
	remote := testutil.NewFakeRemote()
	return eventFixture{
		repo:   NewEventRepository(store, remote, clock, meet.NopLogger{}, nil, time.Hour),
		store:  store,
		remote: remote,
		clock:  clock,
	}
}

func TestEventRepository_FetchEvents(t *testing.T) {
	ctx := context.Background()
	errDown := &model.RemoteError{Op: "UserEvents", StatusCode: 503, Err: errors.New("unavailable")}

	t.Run("network success writes through", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice",
			testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"),
			testutil.EventDTO(2, "two", "2025-07-02T19:00:00+09:00"),
		)

		events, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		assert.Len(t, events, 2)

		n, err := f.repo.CacheCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		stale, err := f.repo.IsStale(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, stale)
	})

	t.Run("fresh cache skips the network", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"))

		_, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		f.clock.Advance(30 * time.Minute)

		events, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, 1, f.remote.UserEventsCalls())
	})

	t.Run("stale cache and force refresh hit the network", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"))

		_, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)

		_, err = f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		assert.Equal(t, 2, f.remote.UserEventsCalls())

		f.clock.Advance(time.Hour)
		stale, err := f.repo.IsStale(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, stale)

		_, err = f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		assert.Equal(t, 3, f.remote.UserEventsCalls())
	})

	t.Run("upsert is idempotent and keeps latest counts", func(t *testing.T) {
		f := newEventFixture(t)
		e := testutil.EventDTO(100, "gophers", "2025-07-01T19:00:00+09:00")
		e.Accepted = 10
		f.remote.SetUserEvents("alice", e)
		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)

		e.Accepted = 12
		f.remote.SetUserEvents("alice", e)
		_, err = f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)

		n, err := f.repo.CacheCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		cached, err := f.store.GetEventByExternalID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, 12, cached.AcceptedCount)
	})

	t.Run("network and cache paths return stored rows", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice",
			testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"),
			testutil.EventDTO(2, "two", "2025-07-02T19:00:00+09:00"),
		)

		fetched, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		require.Len(t, fetched, 2)
		for _, e := range fetched {
			assert.NotZero(t, e.ID, "event %d has no local id", e.ExternalEventID)
		}

		cached, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		assert.Equal(t, fetched, cached)
		assert.Equal(t, 1, f.remote.UserEventsCalls())
	})

	t.Run("events cached by id lookup are not the participant's", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "mine", "2025-07-01T19:00:00+09:00"))
		f.remote.Events = append(f.remote.Events, testutil.EventDTO(999, "not mine", "2025-07-05T19:00:00+09:00"))

		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		_, err = f.repo.GetEventByID(ctx, 999)
		require.NoError(t, err)

		events, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(1), events[0].ExternalEventID)

		f.remote.SetErr(errDown)
		events, err = f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(1), events[0].ExternalEventID)
	})

	t.Run("participants do not share events", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "alice's", "2025-07-01T19:00:00+09:00"))
		f.remote.SetUserEvents("bob", testutil.EventDTO(2, "bob's", "2025-07-02T19:00:00+09:00"))

		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		_, err = f.repo.FetchEvents(ctx, "bob", true)
		require.NoError(t, err)

		events, err := f.repo.FetchEvents(ctx, "alice", false)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "alice's", events[0].Title)
	})

	t.Run("invalid remote events are skipped", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice",
			testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"),
			testutil.EventDTO(2, "", "2025-07-02T19:00:00+09:00"),
		)

		events, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(1), events[0].ExternalEventID)
	})

	t.Run("network failure falls back to cache", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"))
		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)

		f.remote.SetErr(errDown)
		events, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "one", events[0].Title)
	})

	t.Run("network failure with empty cache fails", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetErr(errDown)

		events, err := f.repo.FetchEvents(ctx, "alice", false)
		assert.Nil(t, events)
		assert.ErrorIs(t, err, model.ErrRemote)

		var remoteErr *model.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, 503, remoteErr.StatusCode)
	})

	t.Run("blank participant is a validation error", func(t *testing.T) {
		f := newEventFixture(t)

		_, err := f.repo.FetchEvents(ctx, "  ", true)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Zero(t, f.remote.Calls())
	})

	t.Run("cancelled context does not fall back", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(1, "one", "2025-07-01T19:00:00+09:00"))
		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		f.remote.SetErr(context.Canceled)

		_, err = f.repo.FetchEvents(cctx, "alice", true)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEventRepository_GetEventByID(t *testing.T) {
	ctx := context.Background()

	t.Run("cache first", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.SetUserEvents("alice", testutil.EventDTO(7, "seven", "2025-07-01T19:00:00+09:00"))
		_, err := f.repo.FetchEvents(ctx, "alice", true)
		require.NoError(t, err)

		e, err := f.repo.GetEventByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "seven", e.Title)
		assert.Zero(t, f.remote.SearchEventsCalls())
	})

	t.Run("falls through to the api and caches", func(t *testing.T) {
		f := newEventFixture(t)
		f.remote.Events = append(f.remote.Events, testutil.EventDTO(8, "eight", "2025-07-01T19:00:00+09:00"))

		e, err := f.repo.GetEventByID(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, "eight", e.Title)

		queries := f.remote.EventQueries()
		require.Len(t, queries, 1)
		assert.Equal(t, []int64{8}, queries[0].EventIDs)

		n, _ := f.repo.CacheCount(ctx)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unknown everywhere", func(t *testing.T) {
		f := newEventFixture(t)

		_, err := f.repo.GetEventByID(ctx, 9)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestEventRepository_ClearCacheAndStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newEventFixture(t)
	updates := f.repo.EventsFromCache().Subscribe(ctx)

	first := <-updates
	require.NoError(t, first.Err)
	assert.Empty(t, first.Value)

	f.remote.SetUserEvents("alice",
		testutil.EventDTO(1, "early", "2025-07-01T19:00:00+09:00"),
		testutil.EventDTO(2, "late", "2025-08-01T19:00:00+09:00"),
	)
	_, err := f.repo.FetchEvents(ctx, "alice", true)
	require.NoError(t, err)

	second := nextSnapshot(t, updates)
	require.Len(t, second.Value, 2)
	assert.Equal(t, "late", second.Value[0].Title)

	require.NoError(t, f.repo.ClearCache(ctx))
	stale, err := f.repo.IsStale(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, stale)

	third := nextSnapshot(t, updates)
	assert.Empty(t, third.Value)
}

func TestEventRepository_EventsBetween(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture(t)
	f.remote.SetUserEvents("alice",
		testutil.EventDTO(1, "june", "2025-06-20T19:00:00Z"),
		testutil.EventDTO(2, "july", "2025-07-20T19:00:00Z"),
	)
	_, err := f.repo.FetchEvents(ctx, "alice", true)
	require.NoError(t, err)

	events, err := f.repo.EventsBetween(ctx,
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "july", events[0].Title)

	_, err = f.repo.EventsBetween(ctx, time.Now(), time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, model.ErrValidation)
}
