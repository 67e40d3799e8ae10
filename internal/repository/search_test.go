package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/model"
	"eventmeet/internal/testutil"
)

func TestUserSearchRepository_SearchUsers(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewFakeRemote()
	remote.Users = []connpass.UserDTO{
		{ID: 1, Nickname: "gopher_alice", URL: "https://connpass.com/user/gopher_alice/"},
		{ID: 2, Nickname: "bob"},
		{ID: 0, Nickname: "gopher_broken"},
	}
	repo := NewUserSearchRepository(remote, testutil.FixedClock(), meet.NopLogger{}, nil)

	users, err := repo.SearchUsers(ctx, "gopher", 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ExternalID)

	_, err = repo.SearchUsers(ctx, " ", 1, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 1, remote.SearchUsersCalls())
}

func TestUserSearchRepository_UserEvents(t *testing.T) {
	ctx := context.Background()
	remote := testutil.NewFakeRemote()
	remote.SetUserEvents("alice", testutil.EventDTO(10, "ten", "2025-07-01T19:00:00+09:00"))
	repo := NewUserSearchRepository(remote, testutil.FixedClock(), meet.NopLogger{}, nil)

	events, err := repo.UserEvents(ctx, "alice", 1, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(10), events[0].ExternalEventID)

	remote.UserEventsErr["bob"] = &model.RemoteError{Op: "UserEvents", Err: errors.New("reset")}
	_, err = repo.UserEvents(ctx, "bob", 1, 100)
	assert.ErrorIs(t, err, model.ErrRemote)
}
