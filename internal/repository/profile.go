package repository

import (
	"context"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
	"eventmeet/internal/watch"
)

// ProfileRepository stores the user's own profiles. It never touches the network.
type ProfileRepository struct {
	store meet.Store
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(store meet.Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*model.UserProfile, error) {
	return r.store.GetProfileByID(ctx, id)
}

func (r *ProfileRepository) GetByExternalID(ctx context.Context, externalID string) (*model.UserProfile, error) {
	return r.store.GetProfileByExternalID(ctx, externalID)
}

// GetPrimary returns the most recently updated profile, or nil when none exists.
func (r *ProfileRepository) GetPrimary(ctx context.Context) (*model.UserProfile, error) {
	return r.store.GetPrimaryProfile(ctx)
}

// All streams every profile, most recently updated first.
func (r *ProfileRepository) All() *watch.Stream[[]model.UserProfile] {
	return watch.NewStream(r.store.Changes(), r.store.ListProfiles, meet.TableUserProfiles)
}

// Save inserts p, replacing any profile with the same external id, and returns
// the new local id.
func (r *ProfileRepository) Save(ctx context.Context, p *model.UserProfile) (int64, error) {
	return r.store.InsertProfile(ctx, p, meet.ConflictReplace)
}

func (r *ProfileRepository) Update(ctx context.Context, p *model.UserProfile) error {
	return r.store.UpdateProfile(ctx, p)
}

func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteProfile(ctx, id)
}
