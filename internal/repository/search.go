package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/metrics"
	"eventmeet/internal/model"
)

// UserSearchRepository looks up other people and their events. Results are
// never persisted.
type UserSearchRepository struct {
	remote    meet.RemoteClient
	clock     meet.Clock
	logger    meet.Logger
	metrics   metrics.Collector
	sanitizer *Sanitizer
}

// NewUserSearchRepository creates a UserSearchRepository.
func NewUserSearchRepository(remote meet.RemoteClient, clock meet.Clock, logger meet.Logger, collector metrics.Collector) *UserSearchRepository {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &UserSearchRepository{
		remote:    remote,
		clock:     clock,
		logger:    logger.With("component", "search"),
		metrics:   collector,
		sanitizer: NewSanitizer(),
	}
}

// SearchUsers finds users whose nickname contains nickname.
func (r *UserSearchRepository) SearchUsers(ctx context.Context, nickname string, start, count int) ([]model.SearchedUser, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}

	begin := time.Now()
	resp, err := r.remote.SearchUsers(ctx, connpass.UserQuery{Nicknames: []string{nickname}, Start: start, Count: count})
	r.metrics.RecordRemoteCall("SearchUsers", err, time.Since(begin))
	if err != nil {
		return nil, fmt.Errorf("searching users %q: %w", nickname, err)
	}

	users := make([]model.SearchedUser, 0, len(resp.Users))
	for _, dto := range resp.Users {
		u, err := UserFromDTO(dto)
		if err != nil {
			r.logger.Warn("skipping invalid remote user", "user_id", dto.ID, "error", err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// UserEvents returns the events nickname participated in, newest first.
func (r *UserSearchRepository) UserEvents(ctx context.Context, nickname string, start, count int) ([]model.CachedEvent, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}

	begin := time.Now()
	resp, err := r.remote.UserEvents(ctx, nickname, start, count)
	r.metrics.RecordRemoteCall("UserEvents", err, time.Since(begin))
	if err != nil {
		return nil, fmt.Errorf("fetching events of %q: %w", nickname, err)
	}

	events, skipped := EventsFromDTOs(resp.Events, r.clock.Now(), r.sanitizer, r.logger)
	if skipped > 0 {
		r.metrics.RecordEventsSkipped(skipped)
	}
	return events, nil
}
