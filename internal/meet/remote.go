package meet

import (
	"context"

	"eventmeet/internal/connpass"
)

// RemoteClient is the events API as the repositories see it.
// Implementations perform one request per call and never retry.
type RemoteClient interface {
	SearchEvents(ctx context.Context, q connpass.EventQuery) (*connpass.EventsResponse, error)
	SearchUsers(ctx context.Context, q connpass.UserQuery) (*connpass.UsersResponse, error)
	UserEvents(ctx context.Context, nickname string, start, count int) (*connpass.EventsResponse, error)
}

var _ RemoteClient = (*connpass.Client)(nil)
