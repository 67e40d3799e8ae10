package usecase

import (
	"testing"

	"eventmeet/internal/meet"
	"eventmeet/internal/repository"
	"eventmeet/internal/testutil"
)

type fixture struct {
	clock     *testutil.StubClock
	remote    *testutil.FakeRemote
	profiles  *ProfileService
	meetings  *MeetingService
	events    *EventService
	discovery *DiscoveryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)
	remote := testutil.NewFakeRemote()
	logger := meet.NopLogger{}

	profileRepo := repository.NewProfileRepository(store)
	eventRepo := repository.NewEventRepository(store, remote, clock, logger, nil, 0)
	meetingRepo := repository.NewMeetingRecordRepository(store, clock, logger, nil)
	searchRepo := repository.NewUserSearchRepository(remote, clock, logger, nil)

	return &fixture{
		clock:     clock,
		remote:    remote,
		profiles:  NewProfileService(profileRepo, clock, logger),
		meetings:  NewMeetingService(meetingRepo, logger),
		events:    NewEventService(eventRepo, profileRepo, logger),
		discovery: NewDiscoveryService(searchRepo, profileRepo, logger),
	}
}
