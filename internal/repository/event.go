package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/metrics"
	"eventmeet/internal/model"
	"eventmeet/internal/watch"
)

// DefaultStaleAfter is how long a participant's cached events count as fresh.
const DefaultStaleAfter = time.Hour

// EventRepository serves events network first, writes them through to the
// store and falls back to the cache when the network fails.
type EventRepository struct {
	store      meet.Store
	remote     meet.RemoteClient
	clock      meet.Clock
	logger     meet.Logger
	metrics    metrics.Collector
	sanitizer  *Sanitizer
	staleAfter time.Duration
}

// NewEventRepository creates an EventRepository. A zero staleAfter selects
// DefaultStaleAfter.
func NewEventRepository(store meet.Store, remote meet.RemoteClient, clock meet.Clock, logger meet.Logger, collector metrics.Collector, staleAfter time.Duration) *EventRepository {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &EventRepository{
		store:      store,
		remote:     remote,
		clock:      clock,
		logger:     logger.With("component", "events"),
		metrics:    collector,
		sanitizer:  NewSanitizer(),
		staleAfter: staleAfter,
	}
}

func participantKey(participant string) string {
	return "events:participant=" + participant
}

// FetchEvents returns the events participant takes part in.
//
// Unless forceRefresh is set, a fresh non-empty cache is returned without network.
// Otherwise the API is queried, the result upserted and linked to participant; if
// that fails, the events linked by the last successful fetch are returned instead
// and the error surfaces only when there are none. Events cached by GetEventByID
// alone never appear here.
func (r *EventRepository) FetchEvents(ctx context.Context, participant string, forceRefresh bool) ([]model.CachedEvent, error) {
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return nil, model.NewValidationError("participant", "must not be blank")
	}

	if !forceRefresh {
		stale, err := r.IsStale(ctx, participant)
		if err != nil {
			return nil, err
		}
		if !stale {
			cached, err := r.store.ListParticipantEvents(ctx, participant)
			if err != nil {
				return nil, fmt.Errorf("reading event cache: %w", err)
			}
			if len(cached) > 0 {
				r.metrics.RecordEventCache(metrics.CacheHit)
				r.logger.Debug("serving fresh event cache", "participant", participant, "count", len(cached))
				return cached, nil
			}
		}
	}

	start := time.Now()
	resp, err := r.remote.UserEvents(ctx, participant, 1, connpass.MaxCount)
	r.metrics.RecordRemoteCall("UserEvents", err, time.Since(start))
	if err != nil {
		return r.fallback(ctx, participant, err)
	}

	now := r.clock.Now()
	events, skipped := EventsFromDTOs(resp.Events, now, r.sanitizer, r.logger)
	if skipped > 0 {
		r.metrics.RecordEventsSkipped(skipped)
	}

	if err := r.store.InsertEvents(ctx, events, meet.ConflictReplace); err != nil {
		return nil, fmt.Errorf("caching events: %w", err)
	}
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ExternalEventID
	}
	if err := r.store.ReplaceParticipantEvents(ctx, participant, ids); err != nil {
		return nil, fmt.Errorf("linking events: %w", err)
	}
	if err := r.store.SetCacheTimestamp(ctx, participantKey(participant), now); err != nil {
		return nil, fmt.Errorf("stamping event cache: %w", err)
	}

	r.metrics.RecordEventsUpserted(len(events))
	r.metrics.RecordEventCache(metrics.CacheRefresh)
	r.logger.Info("refreshed events", "participant", participant, "count", len(events), "skipped", skipped)

	stored, err := r.store.ListParticipantEvents(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("reading event cache: %w", err)
	}
	return stored, nil
}

// fallback serves the cache after a failed fetch. Validation failures and
// cancellation are returned as they are.
func (r *EventRepository) fallback(ctx context.Context, participant string, fetchErr error) ([]model.CachedEvent, error) {
	if errors.Is(fetchErr, model.ErrValidation) {
		return nil, fetchErr
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("fetching events: %w", ctx.Err())
	}

	cached, err := r.store.ListParticipantEvents(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w (cache unreadable: %v)", fetchErr, err)
	}
	if len(cached) == 0 {
		r.metrics.RecordEventCache(metrics.CacheMiss)
		return nil, fmt.Errorf("fetching events: %w", fetchErr)
	}

	r.metrics.RecordEventCache(metrics.CacheFallback)
	r.logger.Warn("events api unavailable, serving cached events",
		"participant", participant,
		"count", len(cached),
		"error", fetchErr,
	)
	return cached, nil
}

// IsStale reports whether participant's events were never fetched or were
// fetched longer ago than the staleness window.
func (r *EventRepository) IsStale(ctx context.Context, participant string) (bool, error) {
	fetchedAt, ok, err := r.store.GetCacheTimestamp(ctx, participantKey(strings.TrimSpace(participant)))
	if err != nil {
		return false, fmt.Errorf("checking event cache age: %w", err)
	}
	if !ok {
		return true, nil
	}
	return r.clock.Now().Sub(fetchedAt) >= r.staleAfter, nil
}

// EventsFromCache streams the cached events, latest start first.
func (r *EventRepository) EventsFromCache() *watch.Stream[[]model.CachedEvent] {
	return watch.NewStream(r.store.Changes(), r.store.ListEvents, meet.TableCachedEvents)
}

// EventsBetween returns cached events starting in [from, to), earliest first.
func (r *EventRepository) EventsBetween(ctx context.Context, from, to time.Time) ([]model.CachedEvent, error) {
	if !from.Before(to) {
		return nil, model.NewValidationError("to", "must be after from")
	}
	return r.store.ListEventsBetween(ctx, from, to)
}

// GetEventByID looks the event up in the cache, then asks the API and caches
// the answer. model.ErrNotFound means neither knows the event.
func (r *EventRepository) GetEventByID(ctx context.Context, externalID int64) (*model.CachedEvent, error) {
	if externalID <= 0 {
		return nil, model.NewValidationError("event_id", "must be positive")
	}

	cached, err := r.store.GetEventByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("reading event cache: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	start := time.Now()
	resp, err := r.remote.SearchEvents(ctx, connpass.EventQuery{EventIDs: []int64{externalID}, Count: 1})
	r.metrics.RecordRemoteCall("SearchEvents", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetching event %d: %w", externalID, err)
	}

	for _, dto := range resp.Events {
		if dto.ID != externalID {
			continue
		}
		e, err := EventFromDTO(dto, r.clock.Now(), r.sanitizer)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", externalID, err)
		}
		if err := r.store.InsertEvents(ctx, []model.CachedEvent{e}, meet.ConflictReplace); err != nil {
			return nil, fmt.Errorf("caching event %d: %w", externalID, err)
		}
		r.metrics.RecordEventsUpserted(1)
		return r.store.GetEventByExternalID(ctx, externalID)
	}

	return nil, fmt.Errorf("event %d: %w", externalID, model.ErrNotFound)
}

// ClearCache deletes every cached event and cache timestamp.
func (r *EventRepository) ClearCache(ctx context.Context) error {
	if err := r.store.DeleteAllEvents(ctx); err != nil {
		return err
	}
	r.logger.Info("cleared event cache")
	return nil
}

// CacheCount returns the number of cached events.
func (r *EventRepository) CacheCount(ctx context.Context) (int64, error) {
	return r.store.CountEvents(ctx)
}
