package usecase

import (
	"context"
	"fmt"
	"strings"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// ProfileService manages the user's own profile.
type ProfileService struct {
	profiles ProfileRepository
	clock    meet.Clock
	logger   meet.Logger
}

func NewProfileService(profiles ProfileRepository, clock meet.Clock, logger meet.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, clock: clock, logger: logger.With("service", "profile")}
}

// Register creates a profile for externalID. It fails with model.ErrDuplicate
// when a profile with that external id already exists.
func (s *ProfileService) Register(ctx context.Context, externalID, nickname string) (*Profile, error) {
	externalID = strings.TrimSpace(externalID)
	nickname = strings.TrimSpace(nickname)
	if externalID == "" {
		return nil, model.NewValidationError("external_id", "must not be blank")
	}
	if nickname == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}

	existing, err := s.profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("profile %q: %w", externalID, model.ErrDuplicate)
	}

	now := s.clock.Now()
	p := &model.UserProfile{
		ExternalID: externalID,
		Nickname:   nickname,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := s.profiles.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("registering profile: %w", err)
	}
	p.ID = id

	s.logger.Info("registered profile", "profile_id", id, "external_id", externalID)
	return profileFromModel(p), nil
}

// Rename changes the nickname of profile id, which also makes it primary.
func (s *ProfileService) Rename(ctx context.Context, id int64, nickname string) (*Profile, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}

	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", id, model.ErrNotFound)
	}

	p.Nickname = nickname
	p.UpdatedAt = s.clock.Now()
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("renaming profile: %w", err)
	}
	return profileFromModel(p), nil
}

// Primary returns the profile the app acts as: the most recently updated one.
func (s *ProfileService) Primary(ctx context.Context) (*Profile, error) {
	p, err := s.profiles.GetPrimary(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile registered: %w", model.ErrNotFound)
	}
	return profileFromModel(p), nil
}

// List returns every profile, most recently updated first.
func (s *ProfileService) List(ctx context.Context) ([]Profile, error) {
	all, err := s.profiles.All().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, len(all))
	for i := range all {
		out[i] = *profileFromModel(&all[i])
	}
	return out, nil
}

func (s *ProfileService) Delete(ctx context.Context, id int64) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted profile", "profile_id", id)
	return nil
}
