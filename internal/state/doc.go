// Package state holds the latest dashboard poll for the Addressable client.
//
// # Overview
//
// The poller writes a Dashboard (mailings, incoming leads, message threads
// and per-thread inbound message counts) into a Store; screens read copies
// of it with Snapshot. The Store is the only point where the background
// poller and the UI meet.
//
//	Poller:                          UI:
//	┌──────────────────────┐        ┌──────────────────┐
//	│ Campaigns()          │        │                  │
//	│ IncomingLeads()      │        │                  │
//	│ LeadMessages(id)...  │        │                  │
//	│        ↓             │        │                  │
//	│ store.Update(d, err) │──────→ │ store.Snapshot() │
//	└──────────────────────┘ (mutex)└──────────────────┘
//
// # Update Semantics
//
//	// Success: replace the dashboard and reset the failure count.
//	store.Update(d, nil)
//
//	// Failure: keep the previous dashboard, record the error.
//	store.Update(state.Dashboard{}, err)
//
// Two consecutive failures mark the snapshot offline (IsOffline). The
// leads and mailing screens call ReplaceLead and ReplaceMailing after a
// successful write so the change shows before the next poll.
//
// # Dashboard Tiles
//
// Counts derives the dashboard numbers:
//
//   - Campaigns: mailings without a related mailing, or whose related
//     mailing has a parent (second touches are not counted twice)
//   - Cards: active recipients summed over mailed mailings
//   - Calls: incoming leads
//   - TextMessages: inbound messages summed over every thread
//   - Untagged: leads still in the unknown status
//
// The zero Store is ready to use and Snapshot on a never-updated store
// returns the zero Snapshot.
package state
