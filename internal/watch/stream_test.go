package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func receive[T any](t *testing.T, ch <-chan Snapshot[T]) Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("stream closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot[T]{}
}

func TestStream_Subscribe(t *testing.T) {
	t.Run("delivers current value on subscribe", func(t *testing.T) {
		hub := NewHub()
		s := NewStream(hub, func(context.Context) (int, error) { return 7, nil }, "events")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snap := receive(t, s.Subscribe(ctx))
		if snap.Err != nil {
			t.Fatalf("Err = %v", snap.Err)
		}
		if snap.Value != 7 {
			t.Errorf("Value = %d, want 7", snap.Value)
		}
	})

	t.Run("re-emits after a change to a dependent table", func(t *testing.T) {
		hub := NewHub()
		var n atomic.Int64
		s := NewStream(hub, func(context.Context) (int64, error) { return n.Load(), nil }, "meeting_records", "tags")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := s.Subscribe(ctx)

		if got := receive(t, ch).Value; got != 0 {
			t.Fatalf("first Value = %d, want 0", got)
		}

		n.Store(1)
		hub.Notify("tags")

		if got := receive(t, ch).Value; got != 1 {
			t.Errorf("second Value = %d, want 1", got)
		}
	})

	t.Run("ignores unrelated tables", func(t *testing.T) {
		hub := NewHub()
		var calls atomic.Int64
		s := NewStream(hub, func(context.Context) (int64, error) { return calls.Add(1), nil }, "events")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := s.Subscribe(ctx)
		receive(t, ch)

		hub.Notify("user_profiles")

		select {
		case snap := <-ch:
			t.Errorf("unexpected snapshot %v", snap.Value)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("supports multiple subscribers", func(t *testing.T) {
		hub := NewHub()
		s := NewStream(hub, func(context.Context) (string, error) { return "x", nil }, "tags")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a := s.Subscribe(ctx)
		b := s.Subscribe(ctx)
		receive(t, a)
		receive(t, b)

		hub.Notify("tags")
		receive(t, a)
		receive(t, b)
	})

	t.Run("carries query errors without closing", func(t *testing.T) {
		hub := NewHub()
		var fail atomic.Bool
		fail.Store(true)
		boom := errors.New("boom")
		s := NewStream(hub, func(context.Context) (int, error) {
			if fail.Load() {
				return 0, boom
			}
			return 1, nil
		}, "events")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := s.Subscribe(ctx)

		if snap := receive(t, ch); !errors.Is(snap.Err, boom) {
			t.Fatalf("Err = %v, want boom", snap.Err)
		}

		fail.Store(false)
		hub.Notify("events")
		if snap := receive(t, ch); snap.Err != nil || snap.Value != 1 {
			t.Errorf("snapshot = %+v, want value 1", snap)
		}
	})

	t.Run("closes and unregisters on cancel", func(t *testing.T) {
		hub := NewHub()
		s := NewStream(hub, func(context.Context) (int, error) { return 1, nil }, "events")

		ctx, cancel := context.WithCancel(context.Background())
		ch := s.Subscribe(ctx)
		receive(t, ch)
		cancel()

		deadline := time.After(2 * time.Second)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					// the goroutine unregisters on its way out
					for hub.Subscribers() != 0 {
						time.Sleep(time.Millisecond)
					}
					return
				}
			case <-deadline:
				t.Fatal("stream not closed after cancel")
			}
		}
	})
}

func TestHub_NotifyDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.watch([]string{"events"})
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range 100 {
			hub.Notify("events")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on an unconsumed subscriber")
	}
}
