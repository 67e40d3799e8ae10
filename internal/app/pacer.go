package app

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"eventmeet/internal/connpass"
	"eventmeet/internal/meet"
)

// pacedRemote spaces requests to the events API at least interval apart.
// The API allows roughly one request per second per key.
type pacedRemote struct {
	next    meet.RemoteClient
	limiter *rate.Limiter
}

// newPacedRemote wraps next; an interval of zero or less returns next unchanged.
func newPacedRemote(next meet.RemoteClient, interval time.Duration) meet.RemoteClient {
	if interval <= 0 {
		return next
	}
	return &pacedRemote{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *pacedRemote) SearchEvents(ctx context.Context, q connpass.EventQuery) (*connpass.EventsResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.SearchEvents(ctx, q)
}

func (p *pacedRemote) SearchUsers(ctx context.Context, q connpass.UserQuery) (*connpass.UsersResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.SearchUsers(ctx, q)
}

func (p *pacedRemote) UserEvents(ctx context.Context, nickname string, start, count int) (*connpass.EventsResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.UserEvents(ctx, nickname, start, count)
}

var _ meet.RemoteClient = (*pacedRemote)(nil)
