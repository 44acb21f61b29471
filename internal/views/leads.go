package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/task"
)

// LeadsOptions wire a Leads view.
type LeadsOptions struct {
	API       addressable.API
	Scope     *task.Scope
	Store     *state.Store
	Analytics analytics.Sink
	Logger    logging.Logger
}

// LeadsView is what the leads screen renders.
type LeadsView struct {
	Leads    []addressable.IncomingLead
	Untagged int
	Thread   []addressable.LeadMessage
	ThreadID int
	Busy     bool
	Err      error
}

// Leads backs the incoming leads screen: tagging and the text thread.
type Leads struct {
	api   addressable.API
	scope *task.Scope
	store *state.Store
	sink  analytics.Sink
	log   logging.Logger

	mu       sync.Mutex
	thread   []addressable.LeadMessage
	threadID int
	sid      *string
	busy     bool
	err      error
}

// NewLeads returns a leads view over the poller's store.
func NewLeads(opts LeadsOptions) (*Leads, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("views: api is required")
	}
	if opts.Store == nil {
		opts.Store = &state.Store{}
	}
	l := &Leads{
		api:   opts.API,
		scope: opts.Scope,
		store: opts.Store,
		sink:  opts.Analytics,
		log:   opts.Logger,
	}
	if l.scope == nil {
		l.scope = task.NewScope(context.Background())
	}
	if l.sink == nil {
		l.sink = analytics.Nop{}
	}
	if l.log == nil {
		l.log = logging.Nop()
	}
	return l, nil
}

// Close discards the view.
func (l *Leads) Close() { l.scope.Close() }

func (l *Leads) apply(fn func()) bool {
	return l.scope.Deliver(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		fn()
	})
}

func (l *Leads) setBusy(v bool) {
	l.mu.Lock()
	l.busy = v
	l.mu.Unlock()
}

// View returns the leads from the latest poll plus the open thread.
func (l *Leads) View() LeadsView {
	snap := l.store.Snapshot()
	l.mu.Lock()
	defer l.mu.Unlock()
	return LeadsView{
		Leads:    snap.Leads,
		Untagged: snap.Counts().Untagged,
		Thread:   append([]addressable.LeadMessage(nil), l.thread...),
		ThreadID: l.threadID,
		Busy:     l.busy,
		Err:      l.err,
	}
}

// Tag saves tag for lead and swaps the updated lead into the store.
func (l *Leads) Tag(ctx context.Context, lead addressable.IncomingLead, tag addressable.LeadTag) (*addressable.IncomingLead, error) {
	ctx, cancel := scopedContext(ctx, l.scope)
	defer cancel()
	l.setBusy(true)
	defer l.setBusy(false)

	updated, err := l.api.TagIncomingLead(ctx, lead.ID, tag)
	if err == nil && updated == nil {
		err = fmt.Errorf("server returned no lead")
	}
	if !l.apply(func() { l.err = err }) {
		return nil, ErrDiscarded
	}
	if err != nil {
		return nil, fmt.Errorf("tag lead %d: %w", lead.ID, err)
	}

	l.store.ReplaceLead(*updated)
	for _, event := range tagEvents(tag) {
		l.sink.Record(ctx, event, map[string]any{"lead_id": lead.ID})
	}
	l.log.Info(ctx, "lead tagged", "lead_id", lead.ID, "status", string(updated.Status))
	return updated, nil
}

func tagEvents(tag addressable.LeadTag) []analytics.Event {
	events := []analytics.Event{analytics.LeadTagged}
	if tag.Spam {
		events = append(events, analytics.LeadTaggedSpam)
	} else {
		events = append(events, analytics.LeadTaggedPerson)
	}
	switch tag.Interest {
	case addressable.InterestLow:
		events = append(events, analytics.LeadTaggedLowInterest)
	case addressable.InterestFair:
		events = append(events, analytics.LeadTaggedFair)
	case addressable.InterestLead:
		events = append(events, analytics.LeadTaggedLead)
	}
	if tag.Removal {
		events = append(events, analytics.LeadTaggedRemoval)
	} else {
		events = append(events, analytics.LeadTaggedNotRemoval)
	}
	return events
}

// OpenThread loads the text conversation with lead id.
func (l *Leads) OpenThread(ctx context.Context, id int) ([]addressable.LeadMessage, error) {
	ctx, cancel := scopedContext(ctx, l.scope)
	defer cancel()
	resp, err := l.api.LeadMessages(ctx, id)
	return l.setThread(id, resp, err, "load messages")
}

// Reply sends body to the lead whose thread is open.
func (l *Leads) Reply(ctx context.Context, body string) ([]addressable.LeadMessage, error) {
	ctx, cancel := scopedContext(ctx, l.scope)
	defer cancel()
	body = strings.TrimSpace(body)
	l.mu.Lock()
	id, sid := l.threadID, l.sid
	l.mu.Unlock()
	if id == 0 {
		return nil, fmt.Errorf("views: no thread open")
	}
	if body == "" {
		return nil, fmt.Errorf("views: message is empty")
	}

	l.setBusy(true)
	defer l.setBusy(false)
	resp, err := l.api.SendLeadMessage(ctx, addressable.OutgoingMessage{IncomingLeadID: id, Body: body, MessageSID: sid})
	msgs, err := l.setThread(id, resp, err, "send message")
	if err == nil {
		l.sink.Record(ctx, analytics.LeadMessageSent, map[string]any{"lead_id": id})
	}
	return msgs, err
}

func (l *Leads) setThread(id int, resp *addressable.LeadMessagesResponse, err error, op string) ([]addressable.LeadMessage, error) {
	if err == nil && resp == nil {
		err = fmt.Errorf("server returned no messages")
	}
	var msgs []addressable.LeadMessage
	if err == nil {
		msgs = resp.Messages()
	}
	if !l.apply(func() {
		l.err = err
		if err == nil {
			l.thread = msgs
			l.threadID = id
			l.sid = resp.MessageSID
		}
	}) {
		return nil, ErrDiscarded
	}
	if err != nil {
		return nil, fmt.Errorf("%s for lead %d: %w", op, id, err)
	}
	return msgs, nil
}
