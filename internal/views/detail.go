package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/task"
)

var (
	ErrNotLoaded          = errors.New("views: mailing not loaded")
	ErrActionUnavailable  = errors.New("views: action not available for this mailing")
	ErrUnknownRecipient   = errors.New("views: unknown recipient")
	ErrNoAccount          = errors.New("views: mailing has no account")
	ErrNoSubjectAddress   = errors.New("views: mailing has no subject address")
	ErrNotReady           = errors.New("views: mailing is not ready to send")
	errMissingMailingBody = errors.New("server returned no mailing")
)

// Effect tells the screen what to do after a settings action.
type Effect int

const (
	// EffectUpdated means the mailing changed in place.
	EffectUpdated Effect = iota
	// EffectOpenCompose means the compose wizard should open MailingID.
	EffectOpenCompose
	// EffectOpenURL means URL should be opened in a browser.
	EffectOpenURL
)

// ActionResult is the outcome of Perform.
type ActionResult struct {
	Effect    Effect
	MailingID int
	URL       string
}

// ActionLabel is the settings menu text for a.
func ActionLabel(a addressable.SettingsAction) string {
	switch a {
	case addressable.ActionSend:
		return "Send Mailing"
	case addressable.ActionAddTokens:
		return "Add Tokens"
	case addressable.ActionRevert:
		return "Revert to Draft"
	case addressable.ActionSendAgain:
		return "Send Again"
	case addressable.ActionClone:
		return "Clone"
	case addressable.ActionCancel:
		return "Cancel Mailing"
	default:
		return ""
	}
}

// TouchLabel names the touch of a multi-touch mailing, empty for a single
// mailing.
func TouchLabel(m addressable.Mailing) string {
	switch {
	case m.RelatedMailing == nil:
		return ""
	case m.IsTouchTwo():
		return "Touch 2"
	default:
		return "Touch 1"
	}
}

// DetailOptions wire a MailingDetail.
type DetailOptions struct {
	API       addressable.API
	Scope     *task.Scope
	Store     *state.Store
	Analytics analytics.Sink
	Logger    logging.Logger
	// TokenOrdersURL builds the token purchase page of an account.
	TokenOrdersURL func(accountID int) string
}

// DetailView is what the mailing detail screen renders.
type DetailView struct {
	Mailing       *addressable.Mailing
	Tab           addressable.RecipientTab
	Recipients    []addressable.Recipient
	TabCounts     map[addressable.RecipientTab]int
	ReturnAddress *addressable.ReturnAddress
	Action        addressable.SettingsAction
	ActionLabel   string
	TouchLabel    string
	Loading       bool
	Busy          bool
	Err           error
}

// MailingDetail backs the mailing detail screen.
type MailingDetail struct {
	api       addressable.API
	scope     *task.Scope
	store     *state.Store
	sink      analytics.Sink
	log       logging.Logger
	ordersURL func(int) string

	mu            sync.Mutex
	mailing       *addressable.Mailing
	recipients    []addressable.Recipient
	returnAddress *addressable.ReturnAddress
	tab           addressable.RecipientTab
	loading       bool
	busy          bool
	err           error
}

// NewMailingDetail returns an empty detail view.
func NewMailingDetail(opts DetailOptions) (*MailingDetail, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("views: api is required")
	}
	d := &MailingDetail{
		api:       opts.API,
		scope:     opts.Scope,
		store:     opts.Store,
		sink:      opts.Analytics,
		log:       opts.Logger,
		ordersURL: opts.TokenOrdersURL,
	}
	if d.scope == nil {
		d.scope = task.NewScope(context.Background())
	}
	if d.sink == nil {
		d.sink = analytics.Nop{}
	}
	if d.log == nil {
		d.log = logging.Nop()
	}
	if d.ordersURL == nil {
		d.ordersURL = func(id int) string { return fmt.Sprintf("/accounts/%d/token_orders", id) }
	}
	return d, nil
}

// Close discards the view.
func (d *MailingDetail) Close() { d.scope.Close() }

func (d *MailingDetail) apply(fn func()) bool {
	return d.scope.Deliver(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		fn()
	})
}

func (d *MailingDetail) setBusy(v bool) {
	d.mu.Lock()
	d.busy = v
	d.mu.Unlock()
}

// Load fetches mailing id, its recipients and the default return address.
// The return address is optional; its failure is logged only.
func (d *MailingDetail) Load(ctx context.Context, id int) error {
	ctx, cancel := scopedContext(ctx, d.scope)
	defer cancel()
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.loading = false
		d.mu.Unlock()
	}()
	d.sink.Record(ctx, analytics.MailingDetailOpened, map[string]any{"mailing_id": id})

	var (
		wg         sync.WaitGroup
		mailing    *addressable.Mailing
		recipients []addressable.Recipient
		ret        *addressable.ReturnAddress
		mErr, rErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		mailing, mErr = d.api.RadiusMailing(ctx, id)
	}()
	go func() {
		defer wg.Done()
		recipients, rErr = d.api.Recipients(ctx, id)
	}()
	go func() {
		defer wg.Done()
		var err error
		if ret, err = d.api.ReturnAddress(ctx); err != nil {
			d.log.Warn(ctx, "return address unavailable", "error", err)
		}
	}()
	wg.Wait()

	err := errors.Join(mErr, rErr)
	if err != nil {
		err = fmt.Errorf("load mailing %d: %w", id, err)
	}
	if !d.apply(func() {
		d.err = err
		if mErr == nil {
			d.mailing = mailing
		}
		if rErr == nil {
			d.recipients = recipients
		}
		d.returnAddress = ret
	}) {
		return ErrDiscarded
	}
	return err
}

// SetTab switches the recipient filter.
func (d *MailingDetail) SetTab(ctx context.Context, tab addressable.RecipientTab) {
	d.mu.Lock()
	d.tab = tab
	d.mu.Unlock()
	d.sink.Record(ctx, tabEvent(tab), nil)
}

func tabEvent(tab addressable.RecipientTab) analytics.Event {
	switch tab {
	case addressable.TabMailingList:
		return analytics.RecipientMailingListTab
	case addressable.TabRemoved:
		return analytics.RecipientRemovedTab
	case addressable.TabUnavailable:
		return analytics.RecipientUnavailableTab
	default:
		return analytics.RecipientAllTab
	}
}

// View returns a copy of the screen state.
func (d *MailingDetail) View() DetailView {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := DetailView{
		Tab:        d.tab,
		Recipients: addressable.FilterRecipients(d.recipients, d.tab),
		TabCounts:  make(map[addressable.RecipientTab]int, 4),
		Loading:    d.loading,
		Busy:       d.busy,
		Err:        d.err,
	}
	for _, tab := range addressable.RecipientTabs() {
		v.TabCounts[tab] = len(addressable.FilterRecipients(d.recipients, tab))
	}
	if d.returnAddress != nil {
		ret := *d.returnAddress
		v.ReturnAddress = &ret
	}
	if d.mailing != nil {
		m := *d.mailing
		v.Mailing = &m
		v.Action = m.MailingStatus.SettingsAction()
		v.ActionLabel = ActionLabel(v.Action)
		v.TouchLabel = TouchLabel(m)
		if m.FromAddress != nil {
			ret := *m.FromAddress
			v.ReturnAddress = &ret
		}
	}
	return v
}

func (d *MailingDetail) current() (addressable.Mailing, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mailing == nil {
		return addressable.Mailing{}, ErrNotLoaded
	}
	return *d.mailing, nil
}

// Perform runs a settings menu action. The action must be the one the
// mailing's state offers.
func (d *MailingDetail) Perform(ctx context.Context, action addressable.SettingsAction) (ActionResult, error) {
	ctx, cancel := scopedContext(ctx, d.scope)
	defer cancel()
	m, err := d.current()
	if err != nil {
		return ActionResult{}, err
	}
	if action == addressable.ActionNone || action != m.MailingStatus.SettingsAction() {
		return ActionResult{}, fmt.Errorf("%w: %q in state %q", ErrActionUnavailable, action, m.MailingStatus)
	}

	switch action {
	case addressable.ActionSend:
		d.sink.Record(ctx, analytics.SendFromSettings, map[string]any{"mailing_id": m.ID})
		// Once cover and topic are saved the wizard only confirms, so
		// whatever is still missing has to be fixed elsewhere.
		if pastTopic(m) && !m.Ready() {
			return ActionResult{}, fmt.Errorf("%w: needs %s", ErrNotReady, strings.Join(m.Unready(), ", "))
		}
		return ActionResult{Effect: EffectOpenCompose, MailingID: m.ID}, nil

	case addressable.ActionAddTokens:
		d.sink.Record(ctx, analytics.AddTokensFromSettings, map[string]any{"mailing_id": m.ID})
		if m.AccountID() == 0 {
			return ActionResult{}, ErrNoAccount
		}
		return ActionResult{Effect: EffectOpenURL, URL: d.ordersURL(m.AccountID())}, nil

	case addressable.ActionRevert, addressable.ActionCancel:
		d.sink.Record(ctx, analytics.CancelOrRevertFromSettings, map[string]any{"mailing_id": m.ID, "action": string(action)})
		target := addressable.StateDraft
		if action == addressable.ActionCancel {
			target = addressable.StateCanceled
		}
		return d.changeStatus(ctx, m.ID, target)

	default: // clone, send again
		d.sink.Record(ctx, analytics.CloneFromSettings, map[string]any{"mailing_id": m.ID})
		return d.clone(ctx, m)
	}
}

func pastTopic(m addressable.Mailing) bool {
	return m.List() == addressable.ListComplete && m.HasLayout() && m.HasTopic()
}

func (d *MailingDetail) changeStatus(ctx context.Context, id int, target addressable.MailingState) (ActionResult, error) {
	d.setBusy(true)
	defer d.setBusy(false)

	updated, err := d.api.UpdateMailingStatus(ctx, id, target)
	if err == nil && updated == nil {
		err = errMissingMailingBody
	}
	if !d.apply(func() {
		d.err = err
		if err == nil {
			d.mailing = updated
		}
	}) {
		return ActionResult{}, ErrDiscarded
	}
	if err != nil {
		return ActionResult{}, fmt.Errorf("update mailing %d status: %w", id, err)
	}
	if d.store != nil {
		d.store.ReplaceMailing(*updated)
	}
	d.log.Info(ctx, "mailing status changed", "mailing_id", id, "status", string(updated.MailingStatus))
	return ActionResult{Effect: EffectUpdated, MailingID: id}, nil
}

// clone starts a new radius mailing at the same subject address; the
// compose wizard takes it from there.
func (d *MailingDetail) clone(ctx context.Context, m addressable.Mailing) (ActionResult, error) {
	loc := m.SubjectLocation()
	if loc.IsEmpty() {
		return ActionResult{}, ErrNoSubjectAddress
	}
	d.setBusy(true)
	defer d.setBusy(false)

	criteria, err := d.api.DefaultSearchCriteria(ctx)
	if err != nil {
		return ActionResult{}, fmt.Errorf("load search criteria: %w", err)
	}
	created, err := d.api.CreateRadiusMailing(ctx, addressable.NewSiteRequest(loc, criteria))
	if err == nil && created == nil {
		err = errMissingMailingBody
	}
	if err != nil {
		d.apply(func() { d.err = err })
		return ActionResult{}, fmt.Errorf("clone mailing %d: %w", m.ID, err)
	}
	d.log.Info(ctx, "mailing cloned", "mailing_id", m.ID, "clone_id", created.ID)
	return ActionResult{Effect: EffectOpenCompose, MailingID: created.ID}, nil
}

// SetMembership adds a recipient back to the mailing list or takes it off.
func (d *MailingDetail) SetMembership(ctx context.Context, recipientID int, membership addressable.Membership) error {
	ctx, cancel := scopedContext(ctx, d.scope)
	defer cancel()
	if !d.hasRecipient(recipientID) {
		return ErrUnknownRecipient
	}
	d.setBusy(true)
	defer d.setBusy(false)

	entry, err := d.api.UpdateListEntry(ctx, recipientID, membership)
	if err != nil {
		d.apply(func() { d.err = err })
		return fmt.Errorf("update recipient %d: %w", recipientID, err)
	}
	got := membership
	if entry != nil && entry.ListMembership != "" {
		got = entry.ListMembership
	}
	event := analytics.RecipientRemoved
	if got == addressable.MembershipMember {
		event = analytics.RecipientAdded
	}
	d.sink.Record(ctx, event, map[string]any{"recipient_id": recipientID})
	if !d.apply(func() { d.setMembershipLocked(recipientID, got) }) {
		return ErrDiscarded
	}
	return nil
}

// RemovePermanently adds the recipient's address to the account's removal
// list, which also takes it off this mailing.
func (d *MailingDetail) RemovePermanently(ctx context.Context, recipientID int) error {
	ctx, cancel := scopedContext(ctx, d.scope)
	defer cancel()
	m, err := d.current()
	if err != nil {
		return err
	}
	if m.AccountID() == 0 {
		return ErrNoAccount
	}
	if !d.hasRecipient(recipientID) {
		return ErrUnknownRecipient
	}
	d.setBusy(true)
	defer d.setBusy(false)

	if _, err := d.api.CreateRemoval(ctx, m.AccountID(), recipientID); err != nil {
		d.apply(func() { d.err = err })
		return fmt.Errorf("remove recipient %d: %w", recipientID, err)
	}
	d.sink.Record(ctx, analytics.RecipientRemoved, map[string]any{"recipient_id": recipientID, "permanent": true})
	if !d.apply(func() { d.setMembershipLocked(recipientID, addressable.MembershipRemoved) }) {
		return ErrDiscarded
	}
	return nil
}

func (d *MailingDetail) hasRecipient(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.recipients {
		if r.ID == id {
			return true
		}
	}
	return false
}

// setMembershipLocked updates the local copy and keeps the active count in
// step with the server.
func (d *MailingDetail) setMembershipLocked(id int, membership addressable.Membership) {
	for i := range d.recipients {
		r := &d.recipients[i]
		if r.ID != id {
			continue
		}
		if d.mailing != nil && r.ListMembership != membership {
			switch {
			case r.ListMembership == addressable.MembershipMember:
				d.mailing.ActiveRecipientCount--
			case membership == addressable.MembershipMember:
				d.mailing.ActiveRecipientCount++
			}
		}
		r.ListMembership = membership
		return
	}
}

// SetReturnAddress saves addr as the mailing's sender.
func (d *MailingDetail) SetReturnAddress(ctx context.Context, addr addressable.ReturnAddress) error {
	ctx, cancel := scopedContext(ctx, d.scope)
	defer cancel()
	m, err := d.current()
	if err != nil {
		return err
	}
	d.setBusy(true)
	defer d.setBusy(false)

	updated, err := d.api.UpdateRadiusMailing(ctx, m.ID, addressable.ReturnAddressUpdate{Address: addr})
	if err == nil && updated == nil {
		err = errMissingMailingBody
	}
	if !d.apply(func() {
		d.err = err
		if err == nil {
			d.mailing = updated
		}
	}) {
		return ErrDiscarded
	}
	if err != nil {
		return fmt.Errorf("update return address: %w", err)
	}
	d.sink.Record(ctx, analytics.ReturnAddressUpdated, map[string]any{"mailing_id": m.ID})
	return nil
}
