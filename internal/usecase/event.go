package usecase

import (
	"context"
	"fmt"
	"time"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// EventService serves the primary user's events.
type EventService struct {
	events   EventRepository
	profiles ProfileRepository
	logger   meet.Logger
}

func NewEventService(events EventRepository, profiles ProfileRepository, logger meet.Logger) *EventService {
	return &EventService{events: events, profiles: profiles, logger: logger.With("service", "event")}
}

// MyEvents returns the events the primary profile takes part in. The cache is
// refreshed when forceRefresh is set or the cached copy is stale.
func (s *EventService) MyEvents(ctx context.Context, forceRefresh bool) ([]Event, error) {
	p, err := s.profiles.GetPrimary(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile registered: %w", model.ErrNotFound)
	}

	refresh := forceRefresh
	if !refresh {
		stale, err := s.events.IsStale(ctx, p.Nickname)
		if err != nil {
			return nil, err
		}
		refresh = stale
	}

	events, err := s.events.FetchEvents(ctx, p.Nickname, refresh)
	if err != nil {
		return nil, err
	}
	return eventsFromModels(events), nil
}

// Event returns one event by its external id.
func (s *EventService) Event(ctx context.Context, id int64) (*Event, error) {
	e, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := eventFromModel(*e)
	return &v, nil
}

// EventsBetween returns cached events starting in [from, to).
func (s *EventService) EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	events, err := s.events.EventsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return eventsFromModels(events), nil
}

func (s *EventService) ClearCache(ctx context.Context) error {
	return s.events.ClearCache(ctx)
}

func (s *EventService) CacheCount(ctx context.Context) (int64, error) {
	return s.events.CacheCount(ctx)
}
