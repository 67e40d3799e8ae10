// Package usecase holds the application services the CLI drives: input
// validation, duplicate checks, aggregation and mapping to presentation values.
package usecase

import (
	"context"
	"time"

	"eventmeet/internal/model"
	"eventmeet/internal/repository"
	"eventmeet/internal/watch"
)

// ProfileRepository is the profile storage the services need.
type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*model.UserProfile, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.UserProfile, error)
	GetPrimary(ctx context.Context) (*model.UserProfile, error)
	All() *watch.Stream[[]model.UserProfile]
	Save(ctx context.Context, p *model.UserProfile) (int64, error)
	Update(ctx context.Context, p *model.UserProfile) error
	Delete(ctx context.Context, id int64) error
}

// EventRepository is the cached event source the services need.
type EventRepository interface {
	FetchEvents(ctx context.Context, participant string, forceRefresh bool) ([]model.CachedEvent, error)
	IsStale(ctx context.Context, participant string) (bool, error)
	EventsBetween(ctx context.Context, from, to time.Time) ([]model.CachedEvent, error)
	GetEventByID(ctx context.Context, externalID int64) (*model.CachedEvent, error)
	ClearCache(ctx context.Context) error
	CacheCount(ctx context.Context) (int64, error)
}

// MeetingRepository is the meeting record storage the services need.
type MeetingRepository interface {
	SaveMeetingRecord(ctx context.Context, eventID, metUserID int64, nickname string) (int64, error)
	UpdateMeetingRecord(ctx context.Context, id int64, notes *string, tagNames []string) error
	AllMeetingRecords() *watch.Stream[[]model.MeetingRecord]
	AllMeetingRecordsWithTags() *watch.Stream[[]model.MeetingRecordWithTags]
	MeetingRecordsWithTagsByEvent(eventID int64) *watch.Stream[[]model.MeetingRecordWithTags]
	AllTags() *watch.Stream[[]model.Tag]
	DeleteMeetingRecordByID(ctx context.Context, id int64) error
	MeetingRecordExists(ctx context.Context, eventID, metUserID int64) (bool, error)
	DeleteTag(ctx context.Context, name string) error
	PruneUnusedTags(ctx context.Context) (int64, error)
}

// SearchRepository is the remote user lookup the services need.
type SearchRepository interface {
	SearchUsers(ctx context.Context, nickname string, start, count int) ([]model.SearchedUser, error)
	UserEvents(ctx context.Context, nickname string, start, count int) ([]model.CachedEvent, error)
}

var (
	_ ProfileRepository = (*repository.ProfileRepository)(nil)
	_ EventRepository   = (*repository.EventRepository)(nil)
	_ MeetingRepository = (*repository.MeetingRecordRepository)(nil)
	_ SearchRepository  = (*repository.UserSearchRepository)(nil)
)
