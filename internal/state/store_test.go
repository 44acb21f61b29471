package state

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/addressable/internal/addressable"
)

func parent(id int) *addressable.RelatedMailing {
	return &addressable.RelatedMailing{ID: id + 1, ParentMailingID: &id}
}

func sampleDashboard() Dashboard {
	return Dashboard{
		Mailings: []addressable.Mailing{
			{ID: 1, MailingStatus: addressable.StateMailed, ActiveRecipientCount: 240},
			{ID: 2, MailingStatus: addressable.StateMailed, ActiveRecipientCount: 10, RelatedMailing: parent(2)},
			{ID: 3, MailingStatus: addressable.StateScheduled, ActiveRecipientCount: 99, RelatedMailing: &addressable.RelatedMailing{ID: 2}},
			{ID: 4, MailingStatus: addressable.StateDraft},
		},
		Leads: []addressable.IncomingLead{
			{ID: 1, Status: addressable.LeadUnknown},
			{ID: 2, Status: addressable.LeadTagged},
			{ID: 3, Status: addressable.LeadUnknown},
		},
		Threads:          []addressable.IncomingLead{{ID: 1}},
		IncomingMessages: map[int]int{1: 2, 7: 3},
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(sampleDashboard(), nil)

	snap := s.Snapshot()
	if !snap.HasData || len(snap.Mailings) != 4 {
		t.Fatalf("snapshot = %#v, want 4 mailings HasData=true", snap)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Mailings[0].ID = 999
	snap.IncomingMessages[1] = 100
	snap2 := s.Snapshot()
	if snap2.Mailings[0].ID != 1 || snap2.IncomingMessages[1] != 2 {
		t.Fatalf("Snapshot should clone; got id %d messages %d", snap2.Mailings[0].ID, snap2.IncomingMessages[1])
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store
	s.Update(sampleDashboard(), nil)

	origErr := errors.New("boom")
	s.Update(Dashboard{}, origErr)
	s.Update(Dashboard{}, origErr)

	snap := s.Snapshot()
	if len(snap.Mailings) != 4 {
		t.Fatalf("mailings changed on error: got %d want 4", len(snap.Mailings))
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError = %v, want wrapping %v", snap.LastError, origErr)
	}
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("failures = %d offline = %v, want 2 and true", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(sampleDashboard(), nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("success should reset failures, got %d", snap.ConsecutiveFailures)
	}
}

func TestStore_OneFailureIsNotOffline(t *testing.T) {
	var s Store
	s.Update(Dashboard{}, errors.New("timeout"))
	if s.Snapshot().IsOffline() {
		t.Fatalf("a single failure should not mark the store offline")
	}
}

func TestDashboardCounts(t *testing.T) {
	got := sampleDashboard().Counts()
	want := Counts{Campaigns: 3, Cards: 250, Calls: 3, TextMessages: 5, Untagged: 2}
	if got != want {
		t.Fatalf("Counts = %+v, want %+v", got, want)
	}
	if (Dashboard{}).Counts() != (Counts{}) {
		t.Fatalf("empty dashboard should count zero")
	}
}

func TestDashboardFilters(t *testing.T) {
	d := sampleDashboard()
	if got := len(d.MailingsIn("")); got != 4 {
		t.Fatalf("MailingsIn(all) = %d, want 4", got)
	}
	if got := d.MailingsIn(addressable.StatusMailed); len(got) != 2 {
		t.Fatalf("MailingsIn(mailed) = %d, want 2", len(got))
	}
	if got := d.UntaggedLeads(); len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("UntaggedLeads = %#v", got)
	}
	if m, ok := d.Mailing(3); !ok || m.ID != 3 {
		t.Fatalf("Mailing(3) = %v, %v", m.ID, ok)
	}
	if _, ok := d.Mailing(42); ok {
		t.Fatalf("Mailing(42) found")
	}
}

func TestStore_ReplaceLeadAndMailing(t *testing.T) {
	var s Store
	s.Update(sampleDashboard(), nil)

	s.ReplaceLead(addressable.IncomingLead{ID: 1, Status: addressable.LeadSpam})
	s.ReplaceMailing(addressable.Mailing{ID: 4, MailingStatus: addressable.StateCanceled})

	snap := s.Snapshot()
	if snap.Leads[0].Status != addressable.LeadSpam || snap.Threads[0].Status != addressable.LeadSpam {
		t.Fatalf("lead not replaced: %q / %q", snap.Leads[0].Status, snap.Threads[0].Status)
	}
	if snap.Counts().Untagged != 1 {
		t.Fatalf("untagged = %d, want 1", snap.Counts().Untagged)
	}
	if snap.Mailings[3].MailingStatus != addressable.StateCanceled {
		t.Fatalf("mailing not replaced: %q", snap.Mailings[3].MailingStatus)
	}
}

func TestStore_Reset(t *testing.T) {
	var s Store
	s.Update(sampleDashboard(), nil)
	s.Update(Dashboard{}, errors.New("boom"))
	s.Reset()

	snap := s.Snapshot()
	if snap.HasData || snap.LastError != nil || snap.ConsecutiveFailures != 0 || len(snap.Mailings) != 0 {
		t.Fatalf("snapshot after reset = %+v, want zero", snap)
	}
}
