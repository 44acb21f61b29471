package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScope_DeliversWhileOpen(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	var got int
	ok := Run(s, func(context.Context) (int, error) { return 7, nil }, func(v int, err error) { got = v })
	if !ok || got != 7 {
		t.Fatalf("Run = %v, got %d; want delivered 7", ok, got)
	}
}

func TestScope_DropsAfterClose(t *testing.T) {
	s := NewScope(context.Background())
	release := make(chan struct{})
	delivered := false

	done := Go(s, func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	}, func(string, error) { delivered = true })

	s.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Go did not finish")
	}
	if delivered {
		t.Fatalf("result delivered after Close")
	}
	if !s.Closed() {
		t.Fatalf("Closed = false after Close")
	}
}

func TestScope_CloseCancelsContext(t *testing.T) {
	s := NewScope(context.Background())
	s.Close()
	s.Close()
	if !errors.Is(s.Context().Err(), context.Canceled) {
		t.Fatalf("ctx err = %v, want canceled", s.Context().Err())
	}
}

func TestScope_NilIsClosed(t *testing.T) {
	var s *Scope
	if !s.Closed() || s.Deliver(func() {}) {
		t.Fatalf("nil scope should be closed and drop deliveries")
	}
	if s.Context() == nil {
		t.Fatalf("nil scope context should not be nil")
	}
}
