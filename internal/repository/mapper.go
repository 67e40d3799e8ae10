// Package repository reconciles the local store with the events API and exposes
// the read models the use cases consume.
package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// Sanitizer cleans remote HTML before it reaches the cache.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer allowing the markup common in event pages
// (paragraphs, lists, links, images, tables) and dropping scripts and handlers.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned HTML. A nil input stays nil.
func (s *Sanitizer) Sanitize(html *string) *string {
	if html == nil {
		return nil
	}
	clean := strings.TrimSpace(s.policy.Sanitize(*html))
	return &clean
}

// EventFromDTO maps an API event to a cache row stamped with cachedAt. The result
// is validated; an invalid event is returned with a model.ErrValidation error.
func EventFromDTO(dto connpass.EventDTO, cachedAt time.Time, sanitizer *Sanitizer) (model.CachedEvent, error) {
	startedAt, err := time.Parse(time.RFC3339, dto.StartedAt)
	if err != nil {
		return model.CachedEvent{}, model.NewValidationError("started_at", fmt.Sprintf("unparseable %q", dto.StartedAt))
	}

	e := model.CachedEvent{
		ExternalEventID:  dto.ID,
		Title:            strings.TrimSpace(dto.Title),
		Description:      dto.Description,
		StartedAt:        startedAt,
		URL:              dto.URL,
		Address:          dto.Address,
		Place:            dto.Place,
		ParticipantLimit: dto.Limit,
		AcceptedCount:    dto.Accepted,
		WaitingCount:     dto.Waiting,
		CachedAt:         cachedAt,
	}
	if sanitizer != nil {
		e.Description = sanitizer.Sanitize(dto.Description)
	}

	if dto.EndedAt != nil && *dto.EndedAt != "" {
		endedAt, err := time.Parse(time.RFC3339, *dto.EndedAt)
		if err != nil {
			return model.CachedEvent{}, model.NewValidationError("ended_at", fmt.Sprintf("unparseable %q", *dto.EndedAt))
		}
		e.EndedAt = &endedAt
	}

	if err := e.Validate(); err != nil {
		return model.CachedEvent{}, err
	}
	return e, nil
}

// EventsFromDTOs maps a page of API events, dropping and logging the invalid ones.
// It returns the kept events in input order and the number skipped.
func EventsFromDTOs(dtos []connpass.EventDTO, cachedAt time.Time, sanitizer *Sanitizer, logger meet.Logger) ([]model.CachedEvent, int) {
	events := make([]model.CachedEvent, 0, len(dtos))
	skipped := 0
	for _, dto := range dtos {
		e, err := EventFromDTO(dto, cachedAt, sanitizer)
		if err != nil {
			logger.Warn("skipping invalid remote event", "event_id", dto.ID, "error", err)
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

// UserFromDTO maps an API user to a SearchedUser.
func UserFromDTO(dto connpass.UserDTO) (model.SearchedUser, error) {
	if dto.ID <= 0 {
		return model.SearchedUser{}, model.NewValidationError("id", "must be positive")
	}
	if strings.TrimSpace(dto.Nickname) == "" {
		return model.SearchedUser{}, model.NewValidationError("nickname", "must not be blank")
	}
	return model.SearchedUser{
		ExternalID:  dto.ID,
		Nickname:    dto.Nickname,
		DisplayName: dto.DisplayName,
		Description: dto.Description,
		ImageURL:    dto.ImageURL,
		ProfileURL:  dto.URL,
	}, nil
}
