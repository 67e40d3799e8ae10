package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// MeetingService records who the user met and aggregates those records.
type MeetingService struct {
	meetings MeetingRepository
	logger   meet.Logger
}

func NewMeetingService(meetings MeetingRepository, logger meet.Logger) *MeetingService {
	return &MeetingService{meetings: meetings, logger: logger.With("service", "meeting")}
}

// Record notes that the user met metUserID at eventID and returns the record id.
// Recording the same pair twice fails with model.ErrDuplicate.
func (s *MeetingService) Record(ctx context.Context, eventID, metUserID int64, nickname string) (int64, error) {
	nickname = strings.TrimSpace(nickname)
	switch {
	case eventID <= 0:
		return 0, model.NewValidationError("event_id", "must be positive")
	case metUserID <= 0:
		return 0, model.NewValidationError("met_user_id", "must be positive")
	case nickname == "":
		return 0, model.NewValidationError("nickname", "must not be blank")
	}

	exists, err := s.meetings.MeetingRecordExists(ctx, eventID, metUserID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, &model.DuplicateMeetingError{EventID: eventID, MetUserID: metUserID}
	}

	return s.meetings.SaveMeetingRecord(ctx, eventID, metUserID, nickname)
}

// Update replaces the notes and tags of record id. Blank notes are cleared.
func (s *MeetingService) Update(ctx context.Context, id int64, notes string, tags []string) error {
	var n *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		n = &trimmed
	}
	if err := s.meetings.UpdateMeetingRecord(ctx, id, n, tags); err != nil {
		return fmt.Errorf("updating meeting record %d: %w", id, err)
	}
	return nil
}

func (s *MeetingService) Delete(ctx context.Context, id int64) error {
	return s.meetings.DeleteMeetingRecordByID(ctx, id)
}

// AllTags returns every tag name alphabetically.
func (s *MeetingService) AllTags(ctx context.Context) ([]string, error) {
	tags, err := s.meetings.AllTags().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}

// DeleteTag removes a tag from every record.
func (s *MeetingService) DeleteTag(ctx context.Context, name string) error {
	return s.meetings.DeleteTag(ctx, name)
}

// PruneTags deletes tags no record uses.
func (s *MeetingService) PruneTags(ctx context.Context) (int64, error) {
	return s.meetings.PruneUnusedTags(ctx)
}

// Notes returns every meeting record with its tags, newest first.
func (s *MeetingService) Notes(ctx context.Context) ([]Note, error) {
	records, err := s.meetings.AllMeetingRecordsWithTags().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return notesFromModels(records), nil
}

// NotesForEvent returns the records of one event with their tags, newest first.
func (s *MeetingService) NotesForEvent(ctx context.Context, eventID int64) ([]Note, error) {
	records, err := s.meetings.MeetingRecordsWithTagsByEvent(eventID).Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return notesFromModels(records), nil
}

func notesFromModels(records []model.MeetingRecordWithTags) []Note {
	out := make([]Note, len(records))
	for i, r := range records {
		out[i] = noteFromModel(r)
	}
	return out
}

// PeopleMet aggregates every meeting record by person.
func (s *MeetingService) PeopleMet(ctx context.Context) ([]PersonMet, error) {
	records, err := s.meetings.AllMeetingRecords().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return AggregatePeopleMet(records), nil
}

// AggregatePeopleMet groups records by MetUserID. Each entry counts the records,
// keeps the latest CreatedAt and the nickname of that latest record. Entries are
// ordered most recently met first, ties by user id.
func AggregatePeopleMet(records []model.MeetingRecord) []PersonMet {
	byUser := make(map[int64]*PersonMet)
	latestID := make(map[int64]int64)

	for _, r := range records {
		p, ok := byUser[r.MetUserID]
		if !ok {
			byUser[r.MetUserID] = &PersonMet{
				MetUserID: r.MetUserID,
				Nickname:  r.Nickname,
				MeetCount: 1,
				LastMetAt: r.CreatedAt,
			}
			latestID[r.MetUserID] = r.ID
			continue
		}

		p.MeetCount++
		if r.CreatedAt.After(p.LastMetAt) || (r.CreatedAt.Equal(p.LastMetAt) && r.ID > latestID[r.MetUserID]) {
			p.LastMetAt = r.CreatedAt
			p.Nickname = r.Nickname
			latestID[r.MetUserID] = r.ID
		}
	}

	out := make([]PersonMet, 0, len(byUser))
	for _, p := range byUser {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b PersonMet) int {
		if c := b.LastMetAt.Compare(a.LastMetAt); c != 0 {
			return c
		}
		switch {
		case a.MetUserID < b.MetUserID:
			return -1
		case a.MetUserID > b.MetUserID:
			return 1
		}
		return 0
	})
	return out
}
