package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

// FakeRemote is a scripted meet.RemoteClient. It counts calls and is safe for
// concurrent use.
type FakeRemote struct {
	mu sync.Mutex

	// Events answers SearchEvents, filtered by EventIDs when the query has any.
	Events []connpass.EventDTO
	// Users answers SearchUsers, filtered by case-insensitive nickname substring.
	Users []connpass.UserDTO
	// UserEventsByNickname answers UserEvents.
	UserEventsByNickname map[string][]connpass.EventDTO

	// Err fails every call when set.
	Err error
	// UserEventsErr fails UserEvents for specific nicknames.
	UserEventsErr map[string]error

	searchEventsCalls int
	searchUsersCalls  int
	userEventsCalls   int
	eventQueries      []connpass.EventQuery
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		UserEventsByNickname: make(map[string][]connpass.EventDTO),
		UserEventsErr:        make(map[string]error),
	}
}

// SetErr makes every subsequent call fail with err (nil clears it).
func (f *FakeRemote) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// SetUserEvents scripts the events returned for nickname.
func (f *FakeRemote) SetUserEvents(nickname string, events ...connpass.EventDTO) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserEventsByNickname[nickname] = events
}

func (f *FakeRemote) SearchEvents(ctx context.Context, q connpass.EventQuery) (*connpass.EventsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchEventsCalls++
	f.eventQueries = append(f.eventQueries, q)

	if f.Err != nil {
		return nil, f.Err
	}

	var out []connpass.EventDTO
	for _, e := range f.Events {
		if len(q.EventIDs) == 0 || slices.Contains(q.EventIDs, e.ID) {
			out = append(out, e)
		}
	}
	return eventsResponse(out), nil
}

func (f *FakeRemote) SearchUsers(ctx context.Context, q connpass.UserQuery) (*connpass.UsersResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchUsersCalls++

	if f.Err != nil {
		return nil, f.Err
	}

	var out []connpass.UserDTO
	for _, u := range f.Users {
		for _, n := range q.Nicknames {
			if strings.Contains(strings.ToLower(u.Nickname), strings.ToLower(n)) {
				out = append(out, u)
				break
			}
		}
	}
	return &connpass.UsersResponse{
		ResultsStart:     1,
		ResultsReturned:  len(out),
		ResultsAvailable: len(out),
		Users:            out,
	}, nil
}

func (f *FakeRemote) UserEvents(ctx context.Context, nickname string, start, count int) (*connpass.EventsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEventsCalls++

	if strings.TrimSpace(nickname) == "" {
		return nil, model.NewValidationError("nickname", "must not be blank")
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if err := f.UserEventsErr[nickname]; err != nil {
		return nil, err
	}
	return eventsResponse(f.UserEventsByNickname[nickname]), nil
}

// SearchEventsCalls returns how many times SearchEvents was called.
func (f *FakeRemote) SearchEventsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchEventsCalls
}

// SearchUsersCalls returns how many times SearchUsers was called.
func (f *FakeRemote) SearchUsersCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchUsersCalls
}

// UserEventsCalls returns how many times UserEvents was called.
func (f *FakeRemote) UserEventsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userEventsCalls
}

// Calls returns the total number of calls across all methods.
func (f *FakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchEventsCalls + f.searchUsersCalls + f.userEventsCalls
}

// EventQueries returns the queries SearchEvents received, in order.
func (f *FakeRemote) EventQueries() []connpass.EventQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.eventQueries)
}

func eventsResponse(events []connpass.EventDTO) *connpass.EventsResponse {
	return &connpass.EventsResponse{
		ResultsStart:     1,
		ResultsReturned:  len(events),
		ResultsAvailable: len(events),
		Events:           events,
	}
}

// EventDTO builds a valid event DTO starting at startedAt (RFC 3339).
func EventDTO(id int64, title, startedAt string) connpass.EventDTO {
	return connpass.EventDTO{
		ID:        id,
		Title:     title,
		URL:       "https://example.connpass.com/event/" + title + "/",
		StartedAt: startedAt,
		Accepted:  1,
	}
}

var _ meet.RemoteClient = (*FakeRemote)(nil)
