package usecase

import (
	"time"

	"eventmeet/internal/model"
)

// Profile is the presentation form of a UserProfile.
type Profile struct {
	ID         int64
	ExternalID string
	Nickname   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func profileFromModel(p *model.UserProfile) *Profile {
	return &Profile{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Nickname:   p.Nickname,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// Event is the presentation form of a CachedEvent with its derived facts.
type Event struct {
	ID             int64 // external event id
	Title          string
	Description    string
	StartedAt      time.Time
	EndedAt        *time.Time
	URL            string
	Address        string
	Place          string
	Limit          int // 0 when unlimited
	Accepted       int
	Waiting        int
	Unlimited      bool
	Full           bool
	Online         bool
	AvailableSlots int // meaningless when Unlimited
}

func eventFromModel(e model.CachedEvent) Event {
	slots, _ := e.AvailableSlots()
	v := Event{
		ID:             e.ExternalEventID,
		Title:          e.Title,
		Description:    deref(e.Description),
		StartedAt:      e.StartedAt,
		EndedAt:        e.EndedAt,
		URL:            e.URL,
		Address:        deref(e.Address),
		Place:          deref(e.Place),
		Accepted:       e.AcceptedCount,
		Waiting:        e.WaitingCount,
		Unlimited:      e.IsUnlimited(),
		Full:           e.IsFull(),
		Online:         e.IsOnline(),
		AvailableSlots: slots,
	}
	if e.ParticipantLimit != nil {
		v.Limit = *e.ParticipantLimit
	}
	return v
}

func eventsFromModels(events []model.CachedEvent) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = eventFromModel(e)
	}
	return out
}

// User is the presentation form of a SearchedUser.
type User struct {
	ID          int64
	Nickname    string
	DisplayName string
	Description string
	ImageURL    string
	ProfileURL  string
}

func userFromModel(u model.SearchedUser) User {
	return User{
		ID:          u.ExternalID,
		Nickname:    u.Nickname,
		DisplayName: u.DisplayName,
		Description: deref(u.Description),
		ImageURL:    deref(u.ImageURL),
		ProfileURL:  u.ProfileURL,
	}
}

// Note is a meeting record with its tags, ready for display.
type Note struct {
	ID        int64
	EventID   int64
	MetUserID int64
	Nickname  string
	Notes     string
	Tags      []string
	CreatedAt time.Time
}

func noteFromModel(r model.MeetingRecordWithTags) Note {
	return Note{
		ID:        r.Record.ID,
		EventID:   r.Record.EventID,
		MetUserID: r.Record.MetUserID,
		Nickname:  r.Record.Nickname,
		Notes:     deref(r.Record.Notes),
		Tags:      r.TagNames(),
		CreatedAt: r.Record.CreatedAt,
	}
}

// PersonMet summarizes every meeting with one person.
type PersonMet struct {
	MetUserID int64
	Nickname  string // from the most recent record
	MeetCount int
	LastMetAt time.Time
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
