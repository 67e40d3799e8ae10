package connpass

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmeet/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewClient(server.Client(), logger, server.URL+"/api/v2", "test-key"), &calls
}

const eventsBody = `{
  "results_start": 1,
  "results_returned": 1,
  "results_available": 1,
  "some_future_field": {"nested": true},
  "events": [{
    "id": 364,
    "title": "BPStudy#56",
    "catch": "Practical Go",
    "description": "<p>hello</p>",
    "url": "https://bpstudy.connpass.com/event/364/",
    "started_at": "2012-04-17T18:30:00+09:00",
    "ended_at": "2012-04-17T20:30:00+09:00",
    "limit": 80,
    "address": "Tokyo",
    "place": "Hall",
    "accepted": 80,
    "waiting": 15,
    "unknown": "ignored"
  }]
}`

func TestClient_SearchEvents(t *testing.T) {
	t.Run("sends path, parameters and api key", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v2/events/", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

			q := r.URL.Query()
			assert.Equal(t, "go,rust", q.Get("keyword"))
			assert.Equal(t, "alice,bob", q.Get("nickname"))
			assert.Equal(t, "1,2", q.Get("event_id"))
			assert.Equal(t, "11", q.Get("start"))
			assert.Equal(t, "10", q.Get("count"))
			assert.Equal(t, "2", q.Get("order"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(eventsBody))
		})

		resp, err := c.SearchEvents(context.Background(), EventQuery{
			EventIDs:  []int64{1, 2},
			Keywords:  []string{"go", " ", "rust"},
			Nicknames: []string{"alice", "bob"},
			Start:     11,
			Count:     10,
			Order:     OrderStartDate,
		})
		require.NoError(t, err)
		require.Len(t, resp.Events, 1)

		ev := resp.Events[0]
		assert.Equal(t, int64(364), ev.ID)
		assert.Equal(t, "BPStudy#56", ev.Title)
		require.NotNil(t, ev.Limit)
		assert.Equal(t, 80, *ev.Limit)
		assert.Equal(t, 15, ev.Waiting)
		assert.Equal(t, 1, resp.ResultsAvailable)
	})

	t.Run("rejects out of range count without calling the api", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := c.SearchEvents(context.Background(), EventQuery{Count: 101})
		require.ErrorIs(t, err, model.ErrValidation)

		_, err = c.SearchEvents(context.Background(), EventQuery{Start: -1})
		require.ErrorIs(t, err, model.ErrValidation)

		_, err = c.SearchEvents(context.Background(), EventQuery{Order: 4})
		require.ErrorIs(t, err, model.ErrValidation)

		assert.Zero(t, calls.Load())
	})

	t.Run("wraps error status in RemoteError", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		_, err := c.SearchEvents(context.Background(), EventQuery{})
		require.ErrorIs(t, err, model.ErrRemote)

		var remoteErr *model.RemoteError
		require.True(t, errors.As(err, &remoteErr))
		assert.Equal(t, http.StatusTooManyRequests, remoteErr.StatusCode)
		assert.Equal(t, "SearchEvents", remoteErr.Op)
	})

	t.Run("wraps malformed json in RemoteError", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"events": [`))
		})

		_, err := c.SearchEvents(context.Background(), EventQuery{})
		require.ErrorIs(t, err, model.ErrRemote)
	})

	t.Run("wraps transport failure in RemoteError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		c := NewClient(http.DefaultClient, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), server.URL, "k")
		_, err := c.SearchEvents(context.Background(), EventQuery{})
		require.ErrorIs(t, err, model.ErrRemote)
	})

	t.Run("requires an api key", func(t *testing.T) {
		c := NewClient(http.DefaultClient, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), "", "")
		_, err := c.SearchEvents(context.Background(), EventQuery{})
		require.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestClient_SearchUsers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/users/", r.URL.Path)
		assert.Equal(t, "haru", r.URL.Query().Get("nickname"))
		_, _ = w.Write([]byte(`{
			"results_start": 1, "results_returned": 1, "results_available": 1,
			"users": [{"id": 8, "nickname": "haru860", "display_name": "Haru", "url": "https://connpass.com/user/haru860/", "image_url": null}]
		}`))
	})

	resp, err := c.SearchUsers(context.Background(), UserQuery{Nicknames: []string{"haru"}})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "haru860", resp.Users[0].Nickname)
	assert.Nil(t, resp.Users[0].ImageURL)
}

func TestClient_UserEvents(t *testing.T) {
	t.Run("searches events by nickname ordered by start date", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "alice", r.URL.Query().Get("nickname"))
			assert.Equal(t, "2", r.URL.Query().Get("order"))
			_, _ = w.Write([]byte(eventsBody))
		})

		resp, err := c.UserEvents(context.Background(), "alice", 1, 100)
		require.NoError(t, err)
		assert.Len(t, resp.Events, 1)
	})

	t.Run("rejects blank nickname", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := c.UserEvents(context.Background(), "  ", 1, 10)
		require.ErrorIs(t, err, model.ErrValidation)
		assert.Zero(t, calls.Load())
	})
}
