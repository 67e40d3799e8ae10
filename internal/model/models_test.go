package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestCachedEvent_Capacity(t *testing.T) {
	tests := []struct {
		name      string
		limit     *int
		accepted  int
		unlimited bool
		full      bool
		slots     int
		slotsOK   bool
	}{
		{name: "no limit", limit: nil, accepted: 50, unlimited: true},
		{name: "zero limit", limit: intPtr(0), accepted: 50, unlimited: true},
		{name: "seats left", limit: intPtr(30), accepted: 12, slots: 18, slotsOK: true},
		{name: "exactly full", limit: intPtr(30), accepted: 30, full: true, slots: 0, slotsOK: true},
		{name: "oversubscribed", limit: intPtr(30), accepted: 35, full: true, slots: 0, slotsOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &CachedEvent{ParticipantLimit: tt.limit, AcceptedCount: tt.accepted}
			assert.Equal(t, tt.unlimited, e.IsUnlimited())
			assert.Equal(t, tt.full, e.IsFull())
			slots, ok := e.AvailableSlots()
			assert.Equal(t, tt.slotsOK, ok)
			assert.Equal(t, tt.slots, slots)
		})
	}
}

func TestCachedEvent_IsOnline(t *testing.T) {
	assert.True(t, (&CachedEvent{}).IsOnline())
	assert.True(t, (&CachedEvent{Address: strPtr("   ")}).IsOnline())
	assert.False(t, (&CachedEvent{Address: strPtr("Shibuya, Tokyo")}).IsOnline())
}

func TestCachedEvent_Validate(t *testing.T) {
	start := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	valid := func() *CachedEvent {
		return &CachedEvent{ExternalEventID: 1, Title: "Go meetup", URL: "https://example.com/event/1", StartedAt: start}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(e *CachedEvent){
		"external_event_id": func(e *CachedEvent) { e.ExternalEventID = 0 },
		"title":             func(e *CachedEvent) { e.Title = " " },
		"url":               func(e *CachedEvent) { e.URL = "" },
		"ended_at":          func(e *CachedEvent) { e.EndedAt = timePtr(start.Add(-time.Hour)) },
		"accepted_count":    func(e *CachedEvent) { e.WaitingCount = -1 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			e := valid()
			mutate(e)
			err := e.Validate()
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestUserProfile_Validate(t *testing.T) {
	now := time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC)

	assert.NoError(t, (&UserProfile{ExternalID: "ext", Nickname: "alice", CreatedAt: now, UpdatedAt: now}).Validate())
	assert.ErrorIs(t, (&UserProfile{Nickname: "alice"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&UserProfile{ExternalID: "ext"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&UserProfile{ExternalID: "ext", Nickname: "alice", CreatedAt: now, UpdatedAt: now.Add(-time.Second)}).Validate(), ErrValidation)
}

func TestMeetingRecord_Validate(t *testing.T) {
	assert.NoError(t, (&MeetingRecord{EventID: 1, MetUserID: 2, Nickname: "bob"}).Validate())
	assert.ErrorIs(t, (&MeetingRecord{EventID: 0, MetUserID: 2, Nickname: "bob"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&MeetingRecord{EventID: 1, MetUserID: -2, Nickname: "bob"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&MeetingRecord{EventID: 1, MetUserID: 2, Nickname: "\t"}).Validate(), ErrValidation)
}

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{" go ", "", "db", "go", "  ", "db", "infra"})
	assert.Equal(t, []string{"go", "db", "infra"}, got)
	assert.Empty(t, NormalizeTagNames(nil))
}

func TestMeetingRecordWithTags_TagNames(t *testing.T) {
	r := MeetingRecordWithTags{Tags: []Tag{{ID: 2, Name: "go"}, {ID: 1, Name: "db"}}}
	assert.Equal(t, []string{"go", "db"}, r.TagNames())
}

func TestTag_EqualByName(t *testing.T) {
	tests := []struct {
		name string
		a, b Tag
		want bool
	}{
		{name: "same name different ids", a: Tag{ID: 1, Name: "go"}, b: Tag{ID: 9, Name: "go"}, want: true},
		{name: "unsaved tag matches saved one", a: Tag{Name: "go"}, b: Tag{ID: 3, Name: "go"}, want: true},
		{name: "same id different names", a: Tag{ID: 1, Name: "go"}, b: Tag{ID: 1, Name: "rust"}, want: false},
		{name: "names are case sensitive", a: Tag{Name: "Go"}, b: Tag{Name: "go"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestErrors_Taxonomy(t *testing.T) {
	dup := &DuplicateMeetingError{EventID: 10, MetUserID: 7}
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.Contains(t, dup.Error(), "user 7 at event 10")

	remote := &RemoteError{Op: "search users", StatusCode: 503, Err: errors.New("unavailable")}
	assert.ErrorIs(t, remote, ErrRemote)
	assert.Equal(t, "search users: status 503: unavailable", remote.Error())
	assert.Equal(t, "search users: boom", (&RemoteError{Op: "search users", Err: errors.New("boom")}).Error())
}
