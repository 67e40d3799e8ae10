package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// DiscoveryService finds other people and the events shared with them.
type DiscoveryService struct {
	search   SearchRepository
	profiles ProfileRepository
	logger   meet.Logger
}

func NewDiscoveryService(search SearchRepository, profiles ProfileRepository, logger meet.Logger) *DiscoveryService {
	return &DiscoveryService{search: search, profiles: profiles, logger: logger.With("service", "discovery")}
}

// UserDetail is a person with their events and the events they share with the
// primary profile.
type UserDetail struct {
	User         User
	Events       []Event
	CommonEvents []Event
}

// SearchUsers finds users by partial nickname. A blank query returns no users
// without calling the API.
func (s *DiscoveryService) SearchUsers(ctx context.Context, query string) ([]User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []User{}, nil
	}

	users, err := s.search.SearchUsers(ctx, query, 1, connpass.MaxCount)
	if err != nil {
		return nil, err
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = userFromModel(u)
	}
	return out, nil
}

// UserEvents returns the events nickname participated in.
func (s *DiscoveryService) UserEvents(ctx context.Context, nickname string) ([]Event, error) {
	events, err := s.search.UserEvents(ctx, nickname, 1, connpass.MaxCount)
	if err != nil {
		return nil, err
	}
	return eventsFromModels(events), nil
}

// CommonEvents returns the events both a and b participated in, in a's order and
// with a's copy of each event. Both lists are fetched concurrently; if either
// fetch fails the whole call fails.
func (s *DiscoveryService) CommonEvents(ctx context.Context, a, b string) ([]Event, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" {
		return nil, model.NewValidationError("nickname", "first user must not be blank")
	}
	if b == "" {
		return nil, model.NewValidationError("nickname", "second user must not be blank")
	}

	var eventsA, eventsB []model.CachedEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eventsA, err = s.search.UserEvents(gctx, a, 1, connpass.MaxCount)
		return err
	})
	g.Go(func() error {
		var err error
		eventsB, err = s.search.UserEvents(gctx, b, 1, connpass.MaxCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("common events of %q and %q: %w", a, b, err)
	}

	return eventsFromModels(intersectEvents(eventsA, eventsB)), nil
}

// intersectEvents keeps the events of a whose external id also appears in b.
func intersectEvents(a, b []model.CachedEvent) []model.CachedEvent {
	inB := make(map[int64]struct{}, len(b))
	for _, e := range b {
		inB[e.ExternalEventID] = struct{}{}
	}

	out := make([]model.CachedEvent, 0)
	seen := make(map[int64]struct{})
	for _, e := range a {
		if _, ok := inB[e.ExternalEventID]; !ok {
			continue
		}
		if _, dup := seen[e.ExternalEventID]; dup {
			continue
		}
		seen[e.ExternalEventID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// UserDetail looks up nickname and their events. The events shared with the
// primary profile are best effort: any failure there leaves CommonEvents empty.
func (s *DiscoveryService) UserDetail(ctx context.Context, nickname string) (*UserDetail, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}

	var (
		user   *model.SearchedUser
		events []model.CachedEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.search.SearchUsers(gctx, nickname, 1, connpass.MaxCount)
		if err != nil {
			return err
		}
		for i := range users {
			if strings.EqualFold(users[i].Nickname, nickname) {
				user = &users[i]
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", nickname, model.ErrNotFound)
	})
	g.Go(func() error {
		var err error
		events, err = s.search.UserEvents(gctx, nickname, 1, connpass.MaxCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &UserDetail{
		User:         userFromModel(*user),
		Events:       eventsFromModels(events),
		CommonEvents: []Event{},
	}

	me, err := s.profiles.GetPrimary(ctx)
	if err != nil {
		s.logger.Warn("common events skipped: primary profile unavailable", "error", err)
		return detail, nil
	}
	if me == nil || strings.EqualFold(me.Nickname, nickname) {
		return detail, nil
	}

	mine, err := s.search.UserEvents(ctx, me.Nickname, 1, connpass.MaxCount)
	if err != nil {
		s.logger.Warn("common events unavailable", "nickname", nickname, "error", err)
		return detail, nil
	}
	detail.CommonEvents = eventsFromModels(intersectEvents(mine, events))
	return detail, nil
}
