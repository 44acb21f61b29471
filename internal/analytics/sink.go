// Package analytics records product events to a local store. Recording is
// fire and forget: callers never wait on disk and never see an error.
package analytics

import (
	"context"
	"sync"
	"time"
)

// Sink accepts events.
type Sink interface {
	Record(ctx context.Context, event Event, fields map[string]any)
}

// Entry is one stored event.
type Entry struct {
	ID     string         `json:"id"`
	Name   Event          `json:"name"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event, map[string]any) {}

// Memory keeps events in memory. Tests use it to assert what was recorded.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(_ context.Context, event Event, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Name: event, At: time.Now(), Fields: copyFields(fields)})
}

// Events returns the recorded names in order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Name)
	}
	return out
}

// Entries returns a copy of everything recorded.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Has reports whether event was recorded at least once.
func (m *Memory) Has(event Event) bool {
	for _, e := range m.Events() {
		if e == event {
			return true
		}
	}
	return false
}

func copyFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
