package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmeet/internal/model"
	"eventmeet/internal/testutil"
)

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	repo := NewProfileRepository(testutil.NewTestStore(t, clock))

	primary, err := repo.GetPrimary(ctx)
	require.NoError(t, err)
	assert.Nil(t, primary)

	now := clock.Now()
	id, err := repo.Save(ctx, &model.UserProfile{ExternalID: "alice", Nickname: "alice", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	later := now.Add(time.Minute)
	bobID, err := repo.Save(ctx, &model.UserProfile{ExternalID: "bob", Nickname: "bob", CreatedAt: later, UpdatedAt: later})
	require.NoError(t, err)

	primary, err = repo.GetPrimary(ctx)
	require.NoError(t, err)
	assert.Equal(t, bobID, primary.ID)

	alice, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	alice.Nickname = "alice2"
	alice.UpdatedAt = later.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, alice))

	primary, err = repo.GetPrimary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice2", primary.Nickname)

	byExt, err := repo.GetByExternalID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bobID, byExt.ID)

	require.NoError(t, repo.Delete(ctx, bobID))
	all, err := repo.All().Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
}
