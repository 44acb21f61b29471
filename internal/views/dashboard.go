// Package views holds the state behind the dashboard, mailing detail and
// leads screens. Each view owns a task.Scope; results that arrive after the
// view is closed are dropped.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/task"
)

// ErrDiscarded is returned when a result arrives after its view was closed.
var ErrDiscarded = errors.New("views: view discarded")

// scopedContext derives a context that is also canceled when scope closes.
func scopedContext(ctx context.Context, scope *task.Scope) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(scope.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// FetchDashboard polls everything the dashboard shows. Threads are fetched
// concurrently; any failure fails the whole poll so the store keeps its last
// good snapshot.
func FetchDashboard(ctx context.Context, api addressable.API) (state.Dashboard, error) {
	mailings, err := api.Campaigns(ctx)
	if err != nil {
		return state.Dashboard{}, fmt.Errorf("fetch campaigns: %w", err)
	}
	leads, err := api.IncomingLeads(ctx)
	if err != nil {
		return state.Dashboard{}, fmt.Errorf("fetch incoming leads: %w", err)
	}
	threads, err := api.IncomingLeadsWithMessages(ctx)
	if err != nil {
		return state.Dashboard{}, fmt.Errorf("fetch message threads: %w", err)
	}

	counts := make(map[int]int, len(threads))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, lead := range threads {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			resp, err := api.LeadMessages(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("fetch messages for lead %d: %w", id, err))
				return
			}
			counts[id] = resp.IncomingCount()
		}(lead.ID)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return state.Dashboard{}, err
	}

	return state.Dashboard{
		Mailings:         mailings,
		Leads:            leads,
		Threads:          threads,
		IncomingMessages: counts,
	}, nil
}

// Tile is one of the dashboard count tiles.
type Tile int

const (
	TileCampaigns Tile = iota
	TileCards
	TileCalls
	TileTextMessages
)

func (t Tile) String() string {
	switch t {
	case TileCampaigns:
		return "Campaigns"
	case TileCards:
		return "Cards"
	case TileCalls:
		return "Calls"
	case TileTextMessages:
		return "Texts"
	default:
		return "unknown"
	}
}

func (t Tile) event() analytics.Event {
	switch t {
	case TileCards:
		return analytics.DashboardTapCards
	case TileCalls:
		return analytics.DashboardTapCalls
	case TileTextMessages:
		return analytics.DashboardTapSms
	default:
		return analytics.DashboardTapCampaigns
	}
}

// Value picks the tile's number out of c.
func (t Tile) Value(c state.Counts) int {
	switch t {
	case TileCards:
		return c.Cards
	case TileCalls:
		return c.Calls
	case TileTextMessages:
		return c.TextMessages
	default:
		return c.Campaigns
	}
}

// Tiles lists the tiles in display order.
func Tiles() []Tile {
	return []Tile{TileCampaigns, TileCards, TileCalls, TileTextMessages}
}

// DashboardView is what the dashboard screen renders.
type DashboardView struct {
	Counts      state.Counts
	Filter      addressable.MailingStatus
	Mailings    []addressable.Mailing
	Untagged    []addressable.IncomingLead
	Loading     bool
	Offline     bool
	LastError   error
	LastUpdated time.Time
}

// Dashboard reads the poller's store and keeps the status filter.
type Dashboard struct {
	store *state.Store
	sink  analytics.Sink

	mu     sync.Mutex
	filter addressable.MailingStatus
}

// NewDashboard returns a dashboard over store filtered to bucket (empty for
// every mailing).
func NewDashboard(store *state.Store, sink analytics.Sink, bucket addressable.MailingStatus) *Dashboard {
	if sink == nil {
		sink = analytics.Nop{}
	}
	return &Dashboard{store: store, sink: sink, filter: bucket}
}

// SetFilter changes the mailing status filter.
func (d *Dashboard) SetFilter(ctx context.Context, bucket addressable.MailingStatus) {
	d.mu.Lock()
	d.filter = bucket
	d.mu.Unlock()
	d.sink.Record(ctx, analytics.FilterMenuTapped, map[string]any{"status": string(bucket)})
}

// Filter returns the current filter.
func (d *Dashboard) Filter() addressable.MailingStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Tap records a tile press.
func (d *Dashboard) Tap(ctx context.Context, t Tile) {
	d.sink.Record(ctx, t.event(), nil)
}

// View builds the screen state from the latest snapshot.
func (d *Dashboard) View() DashboardView {
	snap := d.store.Snapshot()
	filter := d.Filter()
	return DashboardView{
		Counts:      snap.Counts(),
		Filter:      filter,
		Mailings:    snap.MailingsIn(filter),
		Untagged:    snap.UntaggedLeads(),
		Loading:     !snap.HasData && snap.LastError == nil,
		Offline:     snap.IsOffline(),
		LastError:   snap.LastError,
		LastUpdated: snap.LastUpdated,
	}
}
