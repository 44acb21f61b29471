// Package task ties asynchronous API results to the lifetime of the screen
// that asked for them.
package task

import (
	"context"
	"sync"
)

// Scope owns a context that is canceled when the owning view model goes
// away. Results delivered through Deliver after Close are dropped.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewScope derives a scope from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the scope's context for outgoing calls.
func (s *Scope) Context() context.Context {
	if s == nil {
		return context.Background()
	}
	return s.ctx
}

// Close cancels in-flight calls. It is safe to call more than once.
func (s *Scope) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Deliver runs apply unless the scope has been closed, and reports whether it
// ran. apply runs under the scope lock so Close cannot interleave with it.
func (s *Scope) Deliver(apply func()) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	apply()
	return true
}

// Run calls fn with the scope context and hands its result to deliver on the
// calling goroutine. Nothing is delivered once the scope is closed.
func Run[T any](s *Scope, fn func(context.Context) (T, error), deliver func(T, error)) bool {
	v, err := fn(s.Context())
	return s.Deliver(func() { deliver(v, err) })
}

// Go is Run on a new goroutine. The returned channel closes once fn has
// returned and any delivery has happened.
func Go[T any](s *Scope, fn func(context.Context) (T, error), deliver func(T, error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(s, fn, deliver)
	}()
	return done
}
