package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"eventmeet/internal/database/migrations"
	"eventmeet/internal/meet"
	"eventmeet/internal/model"
	"eventmeet/internal/watch"
)

// SQLiteStore implements meet.Store on a single SQLite connection.
type SQLiteStore struct {
	db    *sql.DB
	hub   *watch.Hub
	clock meet.Clock
	path  string
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// NewSQLiteStore opens the database at path (":memory:" for a throwaway
// database) and applies pending migrations.
func NewSQLiteStore(path string, clock meet.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return NewSQLiteStoreFromDB(db, path, clock), nil
}

// NewSQLiteStoreFromDB wraps an already migrated connection.
func NewSQLiteStoreFromDB(db *sql.DB, path string, clock meet.Clock) *SQLiteStore {
	if clock == nil {
		clock = meet.SystemClock{}
	}
	return &SQLiteStore{
		db:    db,
		hub:   watch.NewHub(),
		clock: clock,
		path:  path,
	}
}

// OpenConnection opens a SQLite connection with foreign keys enforced.
// The pool is limited to one connection: the app has a single writer, and an
// in-memory database exists only on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys (got %d): %v", fk, err)
	}

	return db, nil
}

func dsn(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Profile operations

var profileColumns = []string{"id", "external_id", "nickname", "created_at", "updated_at"}

func (s *SQLiteStore) InsertProfile(ctx context.Context, p *model.UserProfile, policy meet.ConflictPolicy) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	res, err := execBuilder(ctx, s.db, insertInto(meet.TableUserProfiles, policy).
		Columns("external_id", "nickname", "created_at", "updated_at").
		Values(p.ExternalID, p.Nickname, toMillis(p.CreatedAt), toMillis(p.UpdatedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("profile %q: %w", p.ExternalID, model.ErrDuplicate)
		}
		return 0, fmt.Errorf("inserting profile: %w", err)
	}

	id, err := insertedID(res)
	if err != nil {
		return 0, fmt.Errorf("inserting profile: %w", err)
	}
	if id != 0 {
		s.hub.Notify(meet.TableUserProfiles)
	}
	return id, nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, p *model.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	res, err := execBuilder(ctx, s.db, sq.Update(meet.TableUserProfiles).
		Set("external_id", p.ExternalID).
		Set("nickname", p.Nickname).
		Set("updated_at", toMillis(p.UpdatedAt)).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %q: %w", p.ExternalID, model.ErrDuplicate)
		}
		return fmt.Errorf("updating profile: %w", err)
	}
	if err := requireAffected(res, "profile", p.ID); err != nil {
		return err
	}

	s.hub.Notify(meet.TableUserProfiles)
	return nil
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, id int64) error {
	res, err := execBuilder(ctx, s.db, sq.Delete(meet.TableUserProfiles).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if err := requireAffected(res, "profile", id); err != nil {
		return err
	}

	s.hub.Notify(meet.TableUserProfiles)
	return nil
}

func (s *SQLiteStore) GetProfileByID(ctx context.Context, id int64) (*model.UserProfile, error) {
	return s.getProfile(ctx, sq.Eq{"id": id})
}

func (s *SQLiteStore) GetProfileByExternalID(ctx context.Context, externalID string) (*model.UserProfile, error) {
	return s.getProfile(ctx, sq.Eq{"external_id": externalID})
}

func (s *SQLiteStore) GetPrimaryProfile(ctx context.Context) (*model.UserProfile, error) {
	return s.getProfile(ctx, nil)
}

func (s *SQLiteStore) getProfile(ctx context.Context, where sq.Sqlizer) (*model.UserProfile, error) {
	b := sq.Select(profileColumns...).From(meet.TableUserProfiles).
		OrderBy("updated_at DESC", "id DESC").
		Limit(1)
	if where != nil {
		b = b.Where(where)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building profile query: %w", err)
	}

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.UserProfile, error) {
	rows, err := queryBuilder(ctx, s.db, sq.Select(profileColumns...).From(meet.TableUserProfiles).
		OrderBy("updated_at DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return collect(rows, scanProfile)
}

func scanProfile(row rowScanner) (model.UserProfile, error) {
	var p model.UserProfile
	var created, updated int64
	if err := row.Scan(&p.ID, &p.ExternalID, &p.Nickname, &created, &updated); err != nil {
		return p, err
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

// Event operations

var eventColumns = []string{
	"id", "external_event_id", "title", "description", "started_at", "ended_at", "url",
	"address", "place", "participant_limit", "accepted_count", "waiting_count", "cached_at",
}

func (s *SQLiteStore) InsertEvents(ctx context.Context, events []model.CachedEvent, policy meet.ConflictPolicy) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("event %d: %w", events[i].ExternalEventID, err)
		}
	}

	now := s.clock.Now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range events {
			cachedAt := e.CachedAt
			if cachedAt.IsZero() {
				cachedAt = now
			}
			_, err := execBuilder(ctx, tx, insertInto(meet.TableCachedEvents, policy).
				Columns(eventColumns[1:]...).
				Values(
					e.ExternalEventID, e.Title, nullString(e.Description), toMillis(e.StartedAt),
					nullMillis(e.EndedAt), e.URL, nullString(e.Address), nullString(e.Place),
					nullInt(e.ParticipantLimit), e.AcceptedCount, e.WaitingCount, toMillis(cachedAt),
				))
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("event %d: %w", e.ExternalEventID, model.ErrDuplicate)
				}
				return fmt.Errorf("inserting event %d: %w", e.ExternalEventID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(meet.TableCachedEvents)
	return nil
}

func (s *SQLiteStore) GetEventByID(ctx context.Context, id int64) (*model.CachedEvent, error) {
	return s.getEvent(ctx, sq.Eq{"id": id})
}

func (s *SQLiteStore) GetEventByExternalID(ctx context.Context, externalID int64) (*model.CachedEvent, error) {
	return s.getEvent(ctx, sq.Eq{"external_event_id": externalID})
}

func (s *SQLiteStore) getEvent(ctx context.Context, where sq.Sqlizer) (*model.CachedEvent, error) {
	query, args, err := sq.Select(eventColumns...).From(meet.TableCachedEvents).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building event query: %w", err)
	}

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding event: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]model.CachedEvent, error) {
	rows, err := queryBuilder(ctx, s.db, sq.Select(eventColumns...).From(meet.TableCachedEvents).
		OrderBy("started_at DESC", "external_event_id DESC"))
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return collect(rows, scanEvent)
}

func (s *SQLiteStore) ListEventsBetween(ctx context.Context, from, to time.Time) ([]model.CachedEvent, error) {
	rows, err := queryBuilder(ctx, s.db, sq.Select(eventColumns...).From(meet.TableCachedEvents).
		Where(sq.GtOrEq{"started_at": toMillis(from)}).
		Where(sq.Lt{"started_at": toMillis(to)}).
		OrderBy("started_at ASC", "external_event_id ASC"))
	if err != nil {
		return nil, fmt.Errorf("listing events between %s and %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	return collect(rows, scanEvent)
}

func (s *SQLiteStore) ReplaceParticipantEvents(ctx context.Context, participant string, externalIDs []int64) error {
	if strings.TrimSpace(participant) == "" {
		return model.NewValidationError("participant", "must not be blank")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := execBuilder(ctx, tx, sq.Delete(meet.TableParticipantEvents).
			Where(sq.Eq{"participant": participant})); err != nil {
			return fmt.Errorf("unlinking events of %q: %w", participant, err)
		}
		if len(externalIDs) == 0 {
			return nil
		}
		insert := insertInto(meet.TableParticipantEvents, meet.ConflictIgnore).
			Columns("participant", "external_event_id")
		for _, id := range externalIDs {
			insert = insert.Values(participant, id)
		}
		if _, err := execBuilder(ctx, tx, insert); err != nil {
			return fmt.Errorf("linking events of %q: %w", participant, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(meet.TableParticipantEvents)
	return nil
}

func (s *SQLiteStore) ListParticipantEvents(ctx context.Context, participant string) ([]model.CachedEvent, error) {
	columns := make([]string, len(eventColumns))
	for i, c := range eventColumns {
		columns[i] = "e." + c
	}
	rows, err := queryBuilder(ctx, s.db, sq.Select(columns...).
		From(meet.TableCachedEvents+" e").
		Join(meet.TableParticipantEvents+" p ON p.external_event_id = e.external_event_id").
		Where(sq.Eq{"p.participant": participant}).
		OrderBy("e.started_at DESC", "e.external_event_id DESC"))
	if err != nil {
		return nil, fmt.Errorf("listing events of %q: %w", participant, err)
	}
	return collect(rows, scanEvent)
}

func (s *SQLiteStore) DeleteEvent(ctx context.Context, externalID int64) error {
	res, err := execBuilder(ctx, s.db, sq.Delete(meet.TableCachedEvents).Where(sq.Eq{"external_event_id": externalID}))
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if err := requireAffected(res, "event", externalID); err != nil {
		return err
	}

	s.hub.Notify(meet.TableCachedEvents)
	return nil
}

func (s *SQLiteStore) DeleteAllEvents(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+meet.TableCachedEvents); err != nil {
			return fmt.Errorf("clearing events: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+meet.TableParticipantEvents); err != nil {
			return fmt.Errorf("clearing participant links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+meet.TableCacheTimestamps); err != nil {
			return fmt.Errorf("clearing cache timestamps: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(meet.TableCachedEvents, meet.TableParticipantEvents, meet.TableCacheTimestamps)
	return nil
}

func (s *SQLiteStore) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+meet.TableCachedEvents).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func scanEvent(row rowScanner) (model.CachedEvent, error) {
	var e model.CachedEvent
	var description, address, place sql.NullString
	var endedAt, limit sql.NullInt64
	var startedAt, cachedAt int64

	err := row.Scan(&e.ID, &e.ExternalEventID, &e.Title, &description, &startedAt, &endedAt, &e.URL,
		&address, &place, &limit, &e.AcceptedCount, &e.WaitingCount, &cachedAt)
	if err != nil {
		return e, err
	}

	e.Description = stringPtr(description)
	e.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		e.EndedAt = &t
	}
	e.Address = stringPtr(address)
	e.Place = stringPtr(place)
	if limit.Valid {
		l := int(limit.Int64)
		e.ParticipantLimit = &l
	}
	e.CachedAt = fromMillis(cachedAt)
	return e, nil
}

// Cache timestamps

func (s *SQLiteStore) SetCacheTimestamp(ctx context.Context, key string, fetchedAt time.Time) error {
	_, err := execBuilder(ctx, s.db, insertInto(meet.TableCacheTimestamps, meet.ConflictReplace).
		Columns("query_key", "fetched_at").
		Values(key, toMillis(fetchedAt)))
	if err != nil {
		return fmt.Errorf("stamping cache key %q: %w", key, err)
	}

	s.hub.Notify(meet.TableCacheTimestamps)
	return nil
}

func (s *SQLiteStore) GetCacheTimestamp(ctx context.Context, key string) (time.Time, bool, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM "+meet.TableCacheTimestamps+" WHERE query_key = ?", key).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading cache key %q: %w", key, err)
	}
	return fromMillis(ms), true, nil
}

// Maintenance

// Changes returns the hub notified after every committed write.
func (s *SQLiteStore) Changes() *watch.Hub {
	return s.hub
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Helpers

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertInto starts an INSERT whose conflict clause follows policy.
func insertInto(table string, policy meet.ConflictPolicy) sq.InsertBuilder {
	b := sq.Insert(table)
	switch policy {
	case meet.ConflictReplace:
		b = b.Options("OR REPLACE")
	case meet.ConflictIgnore:
		b = b.Options("OR IGNORE")
	}
	return b
}

func execBuilder(ctx context.Context, q querier, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building statement: %w", err)
	}
	return q.ExecContext(ctx, query, args...)
}

func queryBuilder(ctx context.Context, q querier, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return q.QueryContext(ctx, query, args...)
}

// collect scans and closes rows. Rows must be drained before the next statement
// because the pool holds a single connection.
func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// insertedID returns the new row id, or 0 when an OR IGNORE insert was skipped.
func insertedID(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return res.LastInsertId()
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Compile-time check that SQLiteStore implements meet.Store.
var _ meet.Store = (*SQLiteStore)(nil)
