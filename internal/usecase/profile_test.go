package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmeet/internal/model"
)

func TestProfileService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps timestamps", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.profiles.Register(ctx, " 42 ", " alice ")
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
		assert.Equal(t, "42", p.ExternalID)
		assert.Equal(t, "alice", p.Nickname)
		assert.Equal(t, f.clock.Now(), p.CreatedAt)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	})

	t.Run("rejects blank fields", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.profiles.Register(ctx, "", "alice")
		assert.ErrorIs(t, err, model.ErrValidation)
		_, err = f.profiles.Register(ctx, "42", "   ")
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("rejects duplicate external id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.profiles.Register(ctx, "42", "alice")
		require.NoError(t, err)
		_, err = f.profiles.Register(ctx, "42", "alice again")
		assert.ErrorIs(t, err, model.ErrDuplicate)
	})
}

func TestProfileService_PrimaryFollowsLatestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.profiles.Primary(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	first, err := f.profiles.Register(ctx, "1", "first")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.profiles.Register(ctx, "2", "second")
	require.NoError(t, err)

	primary, err := f.profiles.Primary(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	f.clock.Advance(time.Minute)
	renamed, err := f.profiles.Rename(ctx, first.ID, "first-renamed")
	require.NoError(t, err)
	assert.True(t, renamed.UpdatedAt.After(renamed.CreatedAt))

	primary, err = f.profiles.Primary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)
	assert.Equal(t, "first-renamed", primary.Nickname)

	all, err := f.profiles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.profiles.Delete(ctx, first.ID))
	primary, err = f.profiles.Primary(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)
}

func TestProfileService_RenameMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.Rename(context.Background(), 999, "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.profiles.Rename(context.Background(), 999, " ")
	assert.ErrorIs(t, err, model.ErrValidation)
}
