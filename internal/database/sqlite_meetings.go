package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

var recordColumns = []string{"id", "event_id", "met_user_id", "nickname", "notes", "created_at"}

func (s *SQLiteStore) InsertMeetingRecord(ctx context.Context, r *model.MeetingRecord, policy meet.ConflictPolicy) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	res, err := execBuilder(ctx, s.db, insertInto(meet.TableMeetingRecords, policy).
		Columns("event_id", "met_user_id", "nickname", "notes", "created_at").
		Values(r.EventID, r.MetUserID, r.Nickname, nullString(r.Notes), toMillis(createdAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &model.DuplicateMeetingError{EventID: r.EventID, MetUserID: r.MetUserID}
		}
		return 0, fmt.Errorf("inserting meeting record: %w", err)
	}

	id, err := insertedID(res)
	if err != nil {
		return 0, fmt.Errorf("inserting meeting record: %w", err)
	}
	if id != 0 {
		s.hub.Notify(meet.TableMeetingRecords)
	}
	return id, nil
}

func (s *SQLiteStore) UpdateMeetingRecord(ctx context.Context, id int64, notes *string, tagNames []string) error {
	names := model.NormalizeTagNames(tagNames)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := execBuilder(ctx, tx, sq.Update(meet.TableMeetingRecords).
			Set("notes", nullString(notes)).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("updating meeting record notes: %w", err)
		}
		if err := requireAffected(res, "meeting record", id); err != nil {
			return err
		}

		_, err = execBuilder(ctx, tx, sq.Delete(meet.TableMeetingRecordTags).Where(sq.Eq{"meeting_record_id": id}))
		if err != nil {
			return fmt.Errorf("clearing tags of meeting record %d: %w", id, err)
		}

		for _, name := range names {
			tagID, err := ensureTag(ctx, tx, name)
			if err != nil {
				return err
			}
			_, err = execBuilder(ctx, tx, sq.Insert(meet.TableMeetingRecordTags).
				Columns("meeting_record_id", "tag_id").
				Values(id, tagID))
			if err != nil {
				return fmt.Errorf("tagging meeting record %d with %q: %w", id, name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(meet.TableMeetingRecords, meet.TableTags, meet.TableMeetingRecordTags)
	return nil
}

// ensureTag returns the id of the tag called name, inserting it when missing.
func ensureTag(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	_, err := execBuilder(ctx, tx, insertInto(meet.TableTags, meet.ConflictIgnore).
		Columns("name").
		Values(name))
	if err != nil {
		return 0, fmt.Errorf("inserting tag %q: %w", name, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM "+meet.TableTags+" WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("finding tag %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteStore) DeleteMeetingRecord(ctx context.Context, id int64) error {
	res, err := execBuilder(ctx, s.db, sq.Delete(meet.TableMeetingRecords).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("deleting meeting record: %w", err)
	}
	if err := requireAffected(res, "meeting record", id); err != nil {
		return err
	}

	s.hub.Notify(meet.TableMeetingRecords, meet.TableMeetingRecordTags)
	return nil
}

func (s *SQLiteStore) GetMeetingRecordByID(ctx context.Context, id int64) (*model.MeetingRecord, error) {
	return s.getMeetingRecord(ctx, sq.Eq{"id": id})
}

func (s *SQLiteStore) GetMeetingRecordByPair(ctx context.Context, eventID, metUserID int64) (*model.MeetingRecord, error) {
	return s.getMeetingRecord(ctx, sq.Eq{"event_id": eventID, "met_user_id": metUserID})
}

func (s *SQLiteStore) getMeetingRecord(ctx context.Context, where sq.Sqlizer) (*model.MeetingRecord, error) {
	query, args, err := sq.Select(recordColumns...).From(meet.TableMeetingRecords).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building meeting record query: %w", err)
	}

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding meeting record: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) MeetingRecordExists(ctx context.Context, eventID, metUserID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+meet.TableMeetingRecords+" WHERE event_id = ? AND met_user_id = ?)",
		eventID, metUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking meeting record: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) ListMeetingRecords(ctx context.Context, filter meet.MeetingRecordFilter) ([]model.MeetingRecord, error) {
	b := sq.Select(recordColumns...).From(meet.TableMeetingRecords).
		OrderBy("created_at DESC", "id DESC")
	if filter.EventID != nil {
		b = b.Where(sq.Eq{"event_id": *filter.EventID})
	}
	if filter.MetUserID != nil {
		b = b.Where(sq.Eq{"met_user_id": *filter.MetUserID})
	}

	rows, err := queryBuilder(ctx, s.db, b)
	if err != nil {
		return nil, fmt.Errorf("listing meeting records: %w", err)
	}
	return collect(rows, scanRecord)
}

func (s *SQLiteStore) ListMeetingRecordsWithTags(ctx context.Context, filter meet.MeetingRecordFilter) ([]model.MeetingRecordWithTags, error) {
	records, err := s.ListMeetingRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	rows, err := queryBuilder(ctx, s.db, sq.Select("mrt.meeting_record_id", "t.id", "t.name").
		From(meet.TableMeetingRecordTags+" mrt").
		Join(meet.TableTags+" t ON t.id = mrt.tag_id").
		Where(sq.Eq{"mrt.meeting_record_id": ids}).
		OrderBy("t.name ASC"))
	if err != nil {
		return nil, fmt.Errorf("listing tags of meeting records: %w", err)
	}

	type recordTag struct {
		recordID int64
		tag      model.Tag
	}
	assoc, err := collect(rows, func(row rowScanner) (recordTag, error) {
		var rt recordTag
		err := row.Scan(&rt.recordID, &rt.tag.ID, &rt.tag.Name)
		return rt, err
	})
	if err != nil {
		return nil, err
	}

	byRecord := make(map[int64][]model.Tag, len(records))
	for _, rt := range assoc {
		byRecord[rt.recordID] = append(byRecord[rt.recordID], rt.tag)
	}

	out := make([]model.MeetingRecordWithTags, len(records))
	for i, r := range records {
		out[i] = model.MeetingRecordWithTags{Record: r, Tags: byRecord[r.ID]}
	}
	return out, nil
}

func scanRecord(row rowScanner) (model.MeetingRecord, error) {
	var r model.MeetingRecord
	var notes sql.NullString
	var created int64
	if err := row.Scan(&r.ID, &r.EventID, &r.MetUserID, &r.Nickname, &notes, &created); err != nil {
		return r, err
	}
	r.Notes = stringPtr(notes)
	r.CreatedAt = fromMillis(created)
	return r, nil
}

// Tags

func (s *SQLiteStore) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := queryBuilder(ctx, s.db, sq.Select("id", "name").From(meet.TableTags).OrderBy("name ASC"))
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return collect(rows, scanTag)
}

func (s *SQLiteStore) ListTagsForRecord(ctx context.Context, recordID int64) ([]model.Tag, error) {
	rows, err := queryBuilder(ctx, s.db, sq.Select("t.id", "t.name").
		From(meet.TableTags+" t").
		Join(meet.TableMeetingRecordTags+" mrt ON mrt.tag_id = t.id").
		Where(sq.Eq{"mrt.meeting_record_id": recordID}).
		OrderBy("t.name ASC"))
	if err != nil {
		return nil, fmt.Errorf("listing tags of meeting record %d: %w", recordID, err)
	}
	return collect(rows, scanTag)
}

func (s *SQLiteStore) DeleteTag(ctx context.Context, name string) error {
	res, err := execBuilder(ctx, s.db, sq.Delete(meet.TableTags).Where(sq.Eq{"name": name}))
	if err != nil {
		return fmt.Errorf("deleting tag %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tag %q: %w", name, model.ErrNotFound)
	}

	s.hub.Notify(meet.TableTags, meet.TableMeetingRecordTags)
	return nil
}

func (s *SQLiteStore) DeleteUnusedTags(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+meet.TableTags+" WHERE id NOT IN (SELECT tag_id FROM "+meet.TableMeetingRecordTags+")")
	if err != nil {
		return 0, fmt.Errorf("pruning unused tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	if n > 0 {
		s.hub.Notify(meet.TableTags)
	}
	return n, nil
}

func scanTag(row rowScanner) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name)
	return t, err
}
