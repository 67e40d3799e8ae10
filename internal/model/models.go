package model

import (
	"strings"
	"time"
)

// UserProfile is the app's own user. Only one profile is treated as primary at a
// time: the most recently updated row.
type UserProfile struct {
	ID         int64  // local surrogate key
	ExternalID string // platform identity, unique
	Nickname   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the invariants of a profile row.
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.ExternalID) == "" {
		return NewValidationError("external_id", "must not be blank")
	}
	if strings.TrimSpace(p.Nickname) == "" {
		return NewValidationError("nickname", "must not be blank")
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		return NewValidationError("updated_at", "must not be before created_at")
	}
	return nil
}

// CachedEvent is a local copy of an event fetched from the events API.
// ExternalEventID is the source of truth identity.
type CachedEvent struct {
	ID               int64
	ExternalEventID  int64
	Title            string
	Description      *string
	StartedAt        time.Time
	EndedAt          *time.Time
	URL              string
	Address          *string // nil or blank means online-only
	Place            *string
	ParticipantLimit *int // nil or 0 means unlimited
	AcceptedCount    int
	WaitingCount     int
	CachedAt         time.Time
}

// Validate checks the invariants of a cached event.
func (e *CachedEvent) Validate() error {
	if e.ExternalEventID <= 0 {
		return NewValidationError("external_event_id", "must be positive")
	}
	if strings.TrimSpace(e.Title) == "" {
		return NewValidationError("title", "must not be blank")
	}
	if strings.TrimSpace(e.URL) == "" {
		return NewValidationError("url", "must not be blank")
	}
	if e.EndedAt != nil && e.EndedAt.Before(e.StartedAt) {
		return NewValidationError("ended_at", "must not be before started_at")
	}
	if e.AcceptedCount < 0 || e.WaitingCount < 0 {
		return NewValidationError("accepted_count", "participant counts must not be negative")
	}
	return nil
}

// IsUnlimited reports whether the event has no participant limit.
func (e *CachedEvent) IsUnlimited() bool {
	return e.ParticipantLimit == nil || *e.ParticipantLimit == 0
}

// IsFull reports whether the participant limit has been reached.
func (e *CachedEvent) IsFull() bool {
	if e.IsUnlimited() {
		return false
	}
	return e.AcceptedCount >= *e.ParticipantLimit
}

// AvailableSlots returns the number of free seats, never negative.
// ok is false for unlimited events.
func (e *CachedEvent) AvailableSlots() (slots int, ok bool) {
	if e.IsUnlimited() {
		return 0, false
	}
	return max(*e.ParticipantLimit-e.AcceptedCount, 0), true
}

// IsOnline reports whether the event has no physical address.
func (e *CachedEvent) IsOnline() bool {
	return e.Address == nil || strings.TrimSpace(*e.Address) == ""
}

// MeetingRecord notes that the user met MetUserID at EventID.
// At most one record exists per (EventID, MetUserID).
type MeetingRecord struct {
	ID        int64
	EventID   int64 // external event id
	MetUserID int64 // external user id
	Nickname  string
	Notes     *string
	CreatedAt time.Time
}

// Validate checks the invariants of a meeting record.
func (r *MeetingRecord) Validate() error {
	if r.EventID <= 0 {
		return NewValidationError("event_id", "must be positive")
	}
	if r.MetUserID <= 0 {
		return NewValidationError("met_user_id", "must be positive")
	}
	if strings.TrimSpace(r.Nickname) == "" {
		return NewValidationError("nickname", "must not be blank")
	}
	return nil
}

// Tag is a reusable label. Two tags are the same tag when their names match.
type Tag struct {
	ID   int64
	Name string
}

// Equal compares tags by name.
func (t Tag) Equal(other Tag) bool {
	return t.Name == other.Name
}

// MeetingRecordWithTags is a meeting record joined with its associated tags.
type MeetingRecordWithTags struct {
	Record MeetingRecord
	Tags   []Tag
}

// TagNames returns the names of the associated tags in order.
func (r *MeetingRecordWithTags) TagNames() []string {
	names := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		names[i] = t.Name
	}
	return names
}

// SearchedUser is another person found through the search API. Never persisted.
type SearchedUser struct {
	ExternalID  int64
	Nickname    string
	DisplayName string
	Description *string
	ImageURL    *string
	ProfileURL  string
}

// NormalizeTagNames trims names, drops blanks and removes duplicates, keeping
// first-seen order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
