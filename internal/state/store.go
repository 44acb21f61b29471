package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/addressable/internal/addressable"
)

// Dashboard is one complete poll of the account.
type Dashboard struct {
	Mailings []addressable.Mailing
	Leads    []addressable.IncomingLead
	Threads  []addressable.IncomingLead

	// IncomingMessages counts the inbound messages of each thread, keyed by
	// lead id.
	IncomingMessages map[int]int
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Dashboard
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored dashboard. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(d Dashboard, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Dashboard = d.clone()
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// ReplaceLead swaps in an updated lead, e.g. after tagging, so the screens
// reflect it before the next poll.
func (s *Store) ReplaceLead(lead addressable.IncomingLead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot.Leads {
		if s.snapshot.Leads[i].ID == lead.ID {
			s.snapshot.Leads[i] = lead
		}
	}
	for i := range s.snapshot.Threads {
		if s.snapshot.Threads[i].ID == lead.ID {
			s.snapshot.Threads[i] = lead
		}
	}
}

// ReplaceMailing swaps in an updated mailing.
func (s *Store) ReplaceMailing(m addressable.Mailing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot.Mailings {
		if s.snapshot.Mailings[i].ID == m.ID {
			s.snapshot.Mailings[i] = m
			return
		}
	}
}

// Reset forgets everything, e.g. when the user signs out.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Dashboard = s.snapshot.Dashboard.clone()
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (d Dashboard) clone() Dashboard {
	out := Dashboard{
		Mailings: cloneSlice(d.Mailings),
		Leads:    cloneSlice(d.Leads),
		Threads:  cloneSlice(d.Threads),
	}
	if d.IncomingMessages != nil {
		out.IncomingMessages = make(map[int]int, len(d.IncomingMessages))
		for k, v := range d.IncomingMessages {
			out.IncomingMessages[k] = v
		}
	}
	return out
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
