// Package meet holds the contracts shared by EventMeet's layers: the local store,
// the remote client, and the clock and logger the repositories run with.
package meet

import (
	"context"
	"time"

	"eventmeet/internal/model"
	"eventmeet/internal/watch"
)

// ConflictPolicy decides what an insert does when it hits a unique key.
type ConflictPolicy int

const (
	// ConflictAbort fails the insert with model.ErrDuplicate.
	ConflictAbort ConflictPolicy = iota
	// ConflictReplace deletes the conflicting row and inserts the new one.
	ConflictReplace
	// ConflictIgnore keeps the existing row and reports no insert.
	ConflictIgnore
)

func (p ConflictPolicy) String() string {
	switch p {
	case ConflictAbort:
		return "abort"
	case ConflictReplace:
		return "replace"
	case ConflictIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Table names reported to the change hub.
const (
	TableUserProfiles      = "user_profiles"
	TableCachedEvents      = "cached_events"
	TableMeetingRecords    = "meeting_records"
	TableTags              = "tags"
	TableMeetingRecordTags = "meeting_record_tags"
	TableCacheTimestamps   = "cache_timestamps"
	TableParticipantEvents = "participant_events"
)

// MeetingRecordFilter narrows a meeting record listing. Nil fields match all rows.
type MeetingRecordFilter struct {
	EventID   *int64
	MetUserID *int64
}

// Store is the local relational cache. Single-row lookups return (nil, nil)
// when nothing matches. Every committed write notifies Changes() with the
// tables it touched.
type Store interface {
	// Profiles

	// InsertProfile inserts a profile and returns its local id.
	InsertProfile(ctx context.Context, p *model.UserProfile, policy ConflictPolicy) (int64, error)

	// UpdateProfile overwrites nickname and timestamps of the row with p.ID.
	UpdateProfile(ctx context.Context, p *model.UserProfile) error

	DeleteProfile(ctx context.Context, id int64) error
	GetProfileByID(ctx context.Context, id int64) (*model.UserProfile, error)
	GetProfileByExternalID(ctx context.Context, externalID string) (*model.UserProfile, error)

	// GetPrimaryProfile returns the most recently updated profile.
	GetPrimaryProfile(ctx context.Context) (*model.UserProfile, error)

	ListProfiles(ctx context.Context) ([]model.UserProfile, error)

	// Events

	// InsertEvents inserts all events in one transaction.
	InsertEvents(ctx context.Context, events []model.CachedEvent, policy ConflictPolicy) error

	GetEventByID(ctx context.Context, id int64) (*model.CachedEvent, error)
	GetEventByExternalID(ctx context.Context, externalID int64) (*model.CachedEvent, error)

	// ListEvents returns every cached event, latest start first.
	ListEvents(ctx context.Context) ([]model.CachedEvent, error)

	// ListEventsBetween returns events starting in [from, to), earliest first.
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]model.CachedEvent, error)

	DeleteEvent(ctx context.Context, externalID int64) error

	// ReplaceParticipantEvents records externalIDs as the complete event set of
	// participant, dropping earlier links.
	ReplaceParticipantEvents(ctx context.Context, participant string, externalIDs []int64) error

	// ListParticipantEvents returns the cached events linked to participant,
	// latest start first.
	ListParticipantEvents(ctx context.Context, participant string) ([]model.CachedEvent, error)

	// DeleteAllEvents purges the event cache, participant links and cache timestamps.
	DeleteAllEvents(ctx context.Context) error

	CountEvents(ctx context.Context) (int64, error)

	// Cache timestamps

	SetCacheTimestamp(ctx context.Context, key string, fetchedAt time.Time) error

	// GetCacheTimestamp returns ok=false when key was never stamped.
	GetCacheTimestamp(ctx context.Context, key string) (fetchedAt time.Time, ok bool, err error)

	// Meeting records

	// InsertMeetingRecord inserts a record and returns its local id. With
	// ConflictIgnore a duplicate yields id 0 and no error.
	InsertMeetingRecord(ctx context.Context, r *model.MeetingRecord, policy ConflictPolicy) (int64, error)

	// UpdateMeetingRecord sets notes and replaces the whole tag set in one
	// transaction. Unknown tag names are inserted with ConflictIgnore.
	UpdateMeetingRecord(ctx context.Context, id int64, notes *string, tagNames []string) error

	DeleteMeetingRecord(ctx context.Context, id int64) error
	GetMeetingRecordByID(ctx context.Context, id int64) (*model.MeetingRecord, error)
	GetMeetingRecordByPair(ctx context.Context, eventID, metUserID int64) (*model.MeetingRecord, error)
	MeetingRecordExists(ctx context.Context, eventID, metUserID int64) (bool, error)

	// ListMeetingRecords returns matching records, newest first.
	ListMeetingRecords(ctx context.Context, filter MeetingRecordFilter) ([]model.MeetingRecord, error)

	// ListMeetingRecordsWithTags is ListMeetingRecords joined with tags.
	ListMeetingRecordsWithTags(ctx context.Context, filter MeetingRecordFilter) ([]model.MeetingRecordWithTags, error)

	// Tags

	// ListTags returns all tags alphabetically.
	ListTags(ctx context.Context) ([]model.Tag, error)

	// ListTagsForRecord returns the tags of one record alphabetically.
	ListTagsForRecord(ctx context.Context, recordID int64) ([]model.Tag, error)

	// DeleteTag removes the tag and its associations.
	DeleteTag(ctx context.Context, name string) error

	// DeleteUnusedTags removes tags no record references and returns how many.
	DeleteUnusedTags(ctx context.Context) (int64, error)

	// Maintenance

	// Changes returns the hub notified after each committed write.
	Changes() *watch.Hub

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	Close() error
}
