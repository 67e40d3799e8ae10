package watch

import "context"

// Query loads the current result set of a stream.
type Query[T any] func(ctx context.Context) (T, error)

// Snapshot is one delivery of a stream. Err is set when the query failed; the
// subscription stays open and retries on the next change.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Stream is a reactive read model: a query plus the tables it depends on.
type Stream[T any] struct {
	hub    *Hub
	query  Query[T]
	tables []string
}

// NewStream creates a stream that re-runs query whenever any of tables changes.
func NewStream[T any](hub *Hub, query Query[T], tables ...string) *Stream[T] {
	return &Stream[T]{hub: hub, query: query, tables: tables}
}

// Snapshot runs the query once.
func (s *Stream[T]) Snapshot(ctx context.Context) (T, error) {
	return s.query(ctx)
}

// Subscribe delivers the current result immediately, then a fresh result after
// every change to the stream's tables. Changes that happen while the subscriber
// is busy are coalesced into one re-query. The channel is closed once ctx is done.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	signal, cancel := s.hub.watch(s.tables)

	go func() {
		defer close(out)
		defer cancel()

		for {
			value, err := s.query(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Snapshot[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
