package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventmeet/internal/meet"
	"eventmeet/internal/metrics"
	"eventmeet/internal/model"
	"eventmeet/internal/watch"
)

var recordTables = []string{meet.TableMeetingRecords}

var recordWithTagTables = []string{meet.TableMeetingRecords, meet.TableTags, meet.TableMeetingRecordTags}

// MeetingRecordRepository owns meeting records and their tags. It is local only.
type MeetingRecordRepository struct {
	store   meet.Store
	clock   meet.Clock
	logger  meet.Logger
	metrics metrics.Collector
}

// NewMeetingRecordRepository creates a MeetingRecordRepository.
func NewMeetingRecordRepository(store meet.Store, clock meet.Clock, logger meet.Logger, collector metrics.Collector) *MeetingRecordRepository {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &MeetingRecordRepository{
		store:   store,
		clock:   clock,
		logger:  logger.With("component", "meetings"),
		metrics: collector,
	}
}

// SaveMeetingRecord records that the user met metUserID at eventID and returns
// the new record id. A second record for the same pair fails with
// *model.DuplicateMeetingError, whether caught by the pre-check or by the
// store's unique index.
func (r *MeetingRecordRepository) SaveMeetingRecord(ctx context.Context, eventID, metUserID int64, nickname string) (int64, error) {
	exists, err := r.store.MeetingRecordExists(ctx, eventID, metUserID)
	if err != nil {
		return 0, err
	}
	if exists {
		r.metrics.RecordDuplicateRejected()
		return 0, &model.DuplicateMeetingError{EventID: eventID, MetUserID: metUserID}
	}

	id, err := r.store.InsertMeetingRecord(ctx, &model.MeetingRecord{
		EventID:   eventID,
		MetUserID: metUserID,
		Nickname:  strings.TrimSpace(nickname),
		CreatedAt: r.clock.Now(),
	}, meet.ConflictAbort)
	if err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			r.metrics.RecordDuplicateRejected()
		}
		return 0, err
	}

	r.metrics.RecordMeetingRecorded()
	r.logger.Info("recorded meeting", "record_id", id, "event_id", eventID, "met_user_id", metUserID)
	return id, nil
}

// UpdateMeetingRecord sets the notes and replaces the whole tag set of record id.
func (r *MeetingRecordRepository) UpdateMeetingRecord(ctx context.Context, id int64, notes *string, tagNames []string) error {
	if err := r.store.UpdateMeetingRecord(ctx, id, notes, tagNames); err != nil {
		return err
	}
	r.logger.Debug("updated meeting record", "record_id", id, "tags", len(tagNames))
	return nil
}

// AllMeetingRecords streams every record, newest first.
func (r *MeetingRecordRepository) AllMeetingRecords() *watch.Stream[[]model.MeetingRecord] {
	return r.recordStream(meet.MeetingRecordFilter{})
}

// MeetingRecordsByEvent streams the records of one event, newest first.
func (r *MeetingRecordRepository) MeetingRecordsByEvent(eventID int64) *watch.Stream[[]model.MeetingRecord] {
	return r.recordStream(meet.MeetingRecordFilter{EventID: &eventID})
}

// MeetingRecordsByUser streams the records of one met person, newest first.
func (r *MeetingRecordRepository) MeetingRecordsByUser(metUserID int64) *watch.Stream[[]model.MeetingRecord] {
	return r.recordStream(meet.MeetingRecordFilter{MetUserID: &metUserID})
}

func (r *MeetingRecordRepository) recordStream(filter meet.MeetingRecordFilter) *watch.Stream[[]model.MeetingRecord] {
	return watch.NewStream(r.store.Changes(), func(ctx context.Context) ([]model.MeetingRecord, error) {
		return r.store.ListMeetingRecords(ctx, filter)
	}, recordTables...)
}

// MeetingRecordWithTags streams one record with its tags; the value is nil once
// the record is gone.
func (r *MeetingRecordRepository) MeetingRecordWithTags(id int64) *watch.Stream[*model.MeetingRecordWithTags] {
	return watch.NewStream(r.store.Changes(), func(ctx context.Context) (*model.MeetingRecordWithTags, error) {
		record, err := r.store.GetMeetingRecordByID(ctx, id)
		if err != nil || record == nil {
			return nil, err
		}
		tags, err := r.store.ListTagsForRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.MeetingRecordWithTags{Record: *record, Tags: tags}, nil
	}, recordWithTagTables...)
}

// AllMeetingRecordsWithTags streams every record with its tags, newest first.
func (r *MeetingRecordRepository) AllMeetingRecordsWithTags() *watch.Stream[[]model.MeetingRecordWithTags] {
	return r.recordWithTagsStream(meet.MeetingRecordFilter{})
}

// MeetingRecordsWithTagsByEvent streams the records of one event with their tags.
func (r *MeetingRecordRepository) MeetingRecordsWithTagsByEvent(eventID int64) *watch.Stream[[]model.MeetingRecordWithTags] {
	return r.recordWithTagsStream(meet.MeetingRecordFilter{EventID: &eventID})
}

func (r *MeetingRecordRepository) recordWithTagsStream(filter meet.MeetingRecordFilter) *watch.Stream[[]model.MeetingRecordWithTags] {
	return watch.NewStream(r.store.Changes(), func(ctx context.Context) ([]model.MeetingRecordWithTags, error) {
		return r.store.ListMeetingRecordsWithTags(ctx, filter)
	}, recordWithTagTables...)
}

// AllTags streams every tag alphabetically.
func (r *MeetingRecordRepository) AllTags() *watch.Stream[[]model.Tag] {
	return watch.NewStream(r.store.Changes(), r.store.ListTags, meet.TableTags)
}

// DeleteMeetingRecordByID deletes a record; its tag associations go with it.
func (r *MeetingRecordRepository) DeleteMeetingRecordByID(ctx context.Context, id int64) error {
	if err := r.store.DeleteMeetingRecord(ctx, id); err != nil {
		return err
	}
	r.logger.Info("deleted meeting record", "record_id", id)
	return nil
}

// MeetingRecordExists reports whether the pair is already recorded.
func (r *MeetingRecordRepository) MeetingRecordExists(ctx context.Context, eventID, metUserID int64) (bool, error) {
	return r.store.MeetingRecordExists(ctx, eventID, metUserID)
}

// DeleteTag removes a tag from the catalogue and from every record.
func (r *MeetingRecordRepository) DeleteTag(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NewValidationError("tag", "must not be blank")
	}
	return r.store.DeleteTag(ctx, name)
}

// PruneUnusedTags deletes tags no record uses and returns how many went.
func (r *MeetingRecordRepository) PruneUnusedTags(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteUnusedTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning tags: %w", err)
	}
	if n > 0 {
		r.logger.Info("pruned unused tags", "count", n)
	}
	return n, nil
}
