package compose

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/metrics"
	"github.com/five82/addressable/internal/task"
)

var (
	ErrBusy         = errors.New("compose: a step is already being saved")
	ErrIncomplete   = errors.New("compose: step is incomplete")
	ErrCannotAfford = errors.New("compose: not enough radius tokens")
	ErrUnknownCover = errors.New("compose: unknown cover")
	ErrUnknownTopic = errors.New("compose: unknown topic")
	ErrNoTopic      = errors.New("compose: choose a topic first")
	ErrUnknownNote  = errors.New("compose: unknown message template")
	ErrNoMailing    = errors.New("compose: no mailing to update")
	ErrDiscarded    = errors.New("compose: wizard discarded")
)

// Outcome says where the screen should go after Advance or Back.
type Outcome int

const (
	Stayed Outcome = iota
	Moved
	ExitToDashboard
)

// Labels of the back button.
const (
	BackLabelBack      = "Back"
	BackLabelCampaigns = "Campaigns"
)

// defaultLeadTime is how far out the proposed drop date is when the mailing
// has none.
const defaultLeadTime = 7 * 24 * time.Hour

// Options wire a Wizard.
type Options struct {
	API       addressable.API
	Scope     *task.Scope
	Analytics analytics.Sink
	Metrics   *metrics.Metrics
	Logger    logging.Logger

	// AccountID is the signed-in user's account. The loaded mailing's own
	// account takes precedence.
	AccountID int

	Now func() time.Time
}

type touch struct {
	body   string
	edited bool
	vars   map[string]string
}

func newTouch(t addressable.TopicTemplate) touch {
	vars := make(map[string]string, len(t.MergeVars))
	for name, v := range t.MergeVars {
		if v != nil {
			vars[name] = *v
		} else {
			vars[name] = ""
		}
	}
	return touch{body: t.Body, vars: vars}
}

func (t touch) missing() bool {
	for _, v := range t.vars {
		if v == "" {
			return true
		}
	}
	return false
}

// Wizard is the compose radius mailing state machine. Every method is safe
// for concurrent use; only one step persist runs at a time.
type Wizard struct {
	api       addressable.API
	scope     *task.Scope
	sink      analytics.Sink
	metrics   *metrics.Metrics
	log       logging.Logger
	now       func() time.Time
	accountID int

	mu          sync.Mutex
	step        Step
	mailing     *addressable.Mailing
	location    addressable.Location
	criteria    addressable.DataTreeSearchCriteria
	covers      []addressable.LayoutTemplate
	coverID     int
	topics      []addressable.MultiTouchTopic
	topicID     int
	touchOne    touch
	touchTwo    touch
	templates   []addressable.MessageTemplate
	account     *addressable.Account
	targetDate  *time.Time
	editingDate bool
	alert       Alert
	busy        bool
	loading     bool
	err         error
}

// New returns a wizard at the first step.
func New(opts Options) (*Wizard, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("compose: api is required")
	}
	w := &Wizard{
		api:       opts.API,
		scope:     opts.Scope,
		sink:      opts.Analytics,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Now,
		accountID: opts.AccountID,
	}
	if w.sink == nil {
		w.sink = analytics.Nop{}
	}
	if w.log == nil {
		w.log = logging.Nop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.scope == nil {
		w.scope = task.NewScope(context.Background())
	}
	return w, nil
}

// Close discards the wizard. Results of calls still in flight are dropped.
func (w *Wizard) Close() { w.scope.Close() }

// apply runs fn under the wizard lock unless the owning scope is closed.
func (w *Wizard) apply(fn func()) bool {
	return w.scope.Deliver(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		fn()
	})
}

func (w *Wizard) record(ctx context.Context, event analytics.Event, fields map[string]any) {
	w.sink.Record(ctx, event, fields)
}

// Load fetches the mailing with id (when id > 0), resumes at the matching
// step, and loads the option lists every step draws from. Option failures
// are joined into the returned error; the wizard stays usable.
func (w *Wizard) Load(ctx context.Context, id int) error {
	ctx, cancel := w.scopedContext(ctx)
	defer cancel()
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.loading = false
		w.mu.Unlock()
	}()

	if id > 0 {
		m, err := w.api.RadiusMailing(ctx, id)
		if err != nil {
			w.apply(func() {
				w.err = err
				w.alert = AlertSomethingWentWrong
			})
			return fmt.Errorf("load mailing %d: %w", id, err)
		}
		if !w.apply(func() { w.hydrateLocked(m) }) {
			return ErrDiscarded
		}
	}

	err := w.loadOptions(ctx)
	w.apply(func() {
		w.err = err
		w.checkAffordabilityLocked()
	})
	return err
}

// scopedContext derives a context that is also canceled when the wizard
// is closed.
func (w *Wizard) scopedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.scope.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (w *Wizard) hydrateLocked(m *addressable.Mailing) {
	w.mailing = m
	w.step = ResumeStep(m)
	if m.SubjectListEntry != nil {
		w.location = m.SubjectLocation()
	}
	if m.LayoutTemplate != nil {
		w.coverID = m.LayoutTemplate.ID
	}
	if m.TopicSelectionID != nil {
		w.topicID = *m.TopicSelectionID
		w.touchOne, w.touchTwo = touch{}, touch{}
		w.hydrateTopicLocked()
	}
	if d, ok := m.DropDate(); ok {
		w.targetDate = &d
	}
}

func (w *Wizard) hydrateTopicLocked() {
	if w.touchOne.vars != nil {
		return
	}
	for _, t := range w.topics {
		if t.ID == w.topicID {
			w.touchOne = newTouch(t.TouchOneTemplate)
			w.touchTwo = newTouch(t.TouchTwoTemplate)
			if w.mailing != nil && w.mailing.CustomNoteBody != nil {
				w.touchOne.body = *w.mailing.CustomNoteBody
			}
			return
		}
	}
}

func (w *Wizard) loadOptions(ctx context.Context) error {
	w.mu.Lock()
	accountID := w.accountID
	if w.mailing != nil && w.mailing.AccountID() != 0 {
		accountID = w.mailing.AccountID()
	}
	w.mu.Unlock()

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	fail := func(what string, err error) {
		w.log.Warn(ctx, "compose option load failed", "option", what, "error", err)
		emu.Lock()
		errs = append(errs, fmt.Errorf("load %s: %w", what, err))
		emu.Unlock()
	}
	run := func(what string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				fail(what, err)
			}
		}()
	}

	run("cover images", func() error {
		covers, err := w.api.CoverImages(ctx)
		if err == nil {
			w.apply(func() { w.covers = covers })
		}
		return err
	})
	run("topics", func() error {
		topics, err := w.api.MultiTouchTopics(ctx)
		if err == nil {
			w.apply(func() {
				w.topics = topics
				if w.topicID != 0 {
					w.hydrateTopicLocked()
				}
			})
		}
		return err
	})
	run("message templates", func() error {
		templates, err := w.api.MessageTemplates(ctx)
		if err == nil {
			w.apply(func() { w.templates = templates })
		}
		return err
	})
	run("search criteria", func() error {
		criteria, err := w.api.DefaultSearchCriteria(ctx)
		if err == nil {
			w.apply(func() { w.criteria = criteria })
		}
		return err
	})
	if accountID != 0 {
		run("account", func() error {
			account, err := w.api.Account(ctx, accountID)
			if err == nil {
				w.apply(func() { w.account = account })
			}
			return err
		})
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Refresh reloads the mailing and the account balance, e.g. while the
// audience is still being built.
func (w *Wizard) Refresh(ctx context.Context) error {
	ctx, cancel := w.scopedContext(ctx)
	defer cancel()
	w.mu.Lock()
	if w.mailing == nil {
		w.mu.Unlock()
		return nil
	}
	id := w.mailing.ID
	accountID := w.accountID
	if w.mailing.AccountID() != 0 {
		accountID = w.mailing.AccountID()
	}
	w.mu.Unlock()

	m, err := w.api.RadiusMailing(ctx, id)
	if err != nil {
		return fmt.Errorf("refresh mailing %d: %w", id, err)
	}
	var account *addressable.Account
	if accountID != 0 {
		if account, err = w.api.Account(ctx, accountID); err != nil {
			return fmt.Errorf("refresh account %d: %w", accountID, err)
		}
	}
	if !w.apply(func() {
		w.mailing = m
		if account != nil {
			w.account = account
		}
		w.checkAffordabilityLocked()
	}) {
		return ErrDiscarded
	}
	return nil
}

// SetLocation replaces the location of sale.
func (w *Wizard) SetLocation(ctx context.Context, loc addressable.Location) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	w.location = loc
	if !loc.IsEmpty() {
		w.record(ctx, analytics.RadiusMailingSaleLocation, nil)
	}
	return nil
}

// SelectCover chooses a cover among the loaded options.
func (w *Wizard) SelectCover(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	for _, c := range w.covers {
		if c.ID == id {
			w.coverID = id
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownCover, id)
}

// SelectTopic chooses a topic and resets both touches to its templates.
func (w *Wizard) SelectTopic(ctx context.Context, id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	for _, t := range w.topics {
		if t.ID == id {
			w.topicID = id
			w.touchOne = newTouch(t.TouchOneTemplate)
			w.touchTwo = newTouch(t.TouchTwoTemplate)
			w.record(ctx, analytics.RadiusMailingTopicSelection, map[string]any{"topic_id": id})
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownTopic, id)
}

func (w *Wizard) touchLocked(n int) (*touch, error) {
	switch n {
	case 1:
		return &w.touchOne, nil
	case 2:
		return &w.touchTwo, nil
	}
	return nil, fmt.Errorf("compose: touch %d out of range", n)
}

// SetMergeVar fills in a merge variable declared by touch n (1 or 2).
func (w *Wizard) SetMergeVar(n int, name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	t, err := w.touchLocked(n)
	if err != nil {
		return err
	}
	if _, ok := t.vars[name]; !ok {
		return fmt.Errorf("compose: touch %d has no merge variable %q", n, name)
	}
	t.vars[name] = value
	return nil
}

// UseTemplate replaces the note of touch n with a saved message template.
// The template's merge variables join the touch's own, taking the value the
// template already has when the touch has none, so the step stays blocked
// until every one is filled.
func (w *Wizard) UseTemplate(ctx context.Context, n, templateID int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	if w.topicID == 0 {
		return ErrNoTopic
	}
	t, err := w.touchLocked(n)
	if err != nil {
		return err
	}
	var tmpl *addressable.MessageTemplate
	for i := range w.templates {
		if w.templates[i].ID == templateID {
			tmpl = &w.templates[i]
			break
		}
	}
	if tmpl == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNote, templateID)
	}
	if t.vars == nil {
		t.vars = make(map[string]string, len(tmpl.MergeVars))
	}
	for name, v := range tmpl.MergeVars {
		if t.vars[name] != "" {
			continue
		}
		t.vars[name] = ""
		if v != nil {
			t.vars[name] = *v
		}
	}
	t.body = tmpl.Body
	t.edited = true
	w.record(ctx, analytics.MessageTemplateChosen, map[string]any{"touch": n, "message_template_id": templateID})
	return nil
}

// SetTouchBody edits the note body of touch n.
func (w *Wizard) SetTouchBody(ctx context.Context, n int, body string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	t, err := w.touchLocked(n)
	if err != nil {
		return err
	}
	t.body = body
	t.edited = true
	w.record(ctx, analytics.RadiusMailingTemplateEdited, map[string]any{"touch": n})
	return nil
}

// BeginDateEdit marks the target date as being edited, which blocks
// sending until EndDateEdit.
func (w *Wizard) BeginDateEdit() {
	w.mu.Lock()
	w.editingDate = true
	w.mu.Unlock()
}

// EndDateEdit commits the target date.
func (w *Wizard) EndDateEdit(ctx context.Context, date time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editingDate = false
	d := date
	w.targetDate = &d
	w.record(ctx, analytics.RadiusMailingTargetDate, map[string]any{"target_drop_date": addressable.FormatDropDate(d)})
}

// CancelDateEdit leaves the target date unchanged.
func (w *Wizard) CancelDateEdit() {
	w.mu.Lock()
	w.editingDate = false
	w.mu.Unlock()
}

// DismissAlert clears the pending alert.
func (w *Wizard) DismissAlert() {
	w.mu.Lock()
	w.alert = AlertNone
	w.mu.Unlock()
}

// BuyMore records the token purchase press from the payment alert and
// returns the account to buy tokens for, zero when unknown.
func (w *Wizard) BuyMore(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alert = AlertNone
	w.record(ctx, analytics.TokenPurchasePressed, nil)
	return w.accountIDLocked()
}

func (w *Wizard) accountIDLocked() int {
	if w.mailing != nil && w.mailing.AccountID() != 0 {
		return w.mailing.AccountID()
	}
	if w.account != nil {
		return w.account.ID
	}
	return w.accountID
}

// canAffordLocked compares the radius token balance to the audience size.
// Before the account or the mailing is known the answer is yes; the server
// still refuses with 402.
func (w *Wizard) canAffordLocked() bool {
	if w.account == nil || w.mailing == nil {
		return true
	}
	return w.account.RadiusTokens() >= w.mailing.ActiveRecipientCount
}

func (w *Wizard) checkAffordabilityLocked() {
	if w.step == StepConfirmSend && !w.canAffordLocked() {
		w.alert = AlertPaymentRequired
	}
}

func (w *Wizard) nextEnabledLocked() bool {
	switch w.step {
	case StepSelectLocation:
		return !w.location.IsEmpty()
	case StepSelectCard:
		return len(w.covers) > 0 && w.coverID != 0
	case StepChooseTopic:
		return len(w.topics) > 0 && w.topicID != 0 && !w.touchOne.missing() && !w.touchTwo.missing()
	case StepConfirmAudience:
		return w.mailing != nil && w.mailing.ActiveRecipientCount >= 1
	case StepConfirmSend:
		return !w.editingDate && w.canAffordLocked()
	default:
		return true
	}
}

func (w *Wizard) nextLabelLocked() string {
	switch w.step {
	case StepAudienceProcessing:
		return "Finish"
	case StepConfirmSend:
		return "Confirm & Send"
	case StepRadiusSent:
		return "Complete"
	default:
		return "Next"
	}
}

func (w *Wizard) backVisibleLocked() bool {
	switch w.step {
	case StepConfirmSend, StepRadiusSent, StepAudienceProcessing:
		return !w.canAffordLocked()
	}
	return true
}

func (w *Wizard) backExitsLocked() bool {
	switch {
	case w.step == StepAudienceProcessing, w.step == StepConfirmAudience:
		return true
	case w.step == StepSelectCard && w.mailing != nil && w.mailing.List().InProgress():
		return true
	}
	return !w.canAffordLocked()
}

// Back moves one step back, or asks the screen to leave for the dashboard
// when the back button reads Campaigns.
func (w *Wizard) Back(ctx context.Context) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy || !w.backVisibleLocked() {
		return Stayed
	}
	if w.backExitsLocked() {
		return ExitToDashboard
	}
	if w.step == StepSelectLocation {
		return Stayed
	}
	w.record(ctx, analytics.WizardBack, map[string]any{"step": w.step.String()})
	w.step = w.step.prev()
	return Moved
}

// Advance saves the current step and only then moves on. A failed save
// leaves the step unchanged and raises an alert. At audienceProcessing
// and radiusSent nothing is saved and the screen is sent to the dashboard.
func (w *Wizard) Advance(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return Stayed, ErrBusy
	}
	step := w.step
	switch step {
	case StepAudienceProcessing, StepRadiusSent:
		w.record(ctx, analytics.WizardNextToDashboard, map[string]any{"step": step.String()})
		w.mu.Unlock()
		return ExitToDashboard, nil
	}
	if step == StepConfirmSend && !w.canAffordLocked() {
		w.alert = AlertPaymentRequired
		w.mu.Unlock()
		return Stayed, ErrCannotAfford
	}
	if !w.nextEnabledLocked() {
		w.mu.Unlock()
		return Stayed, ErrIncomplete
	}
	call, event, err := w.persistLocked(step)
	if err != nil {
		w.alert = AlertSomethingWentWrong
		w.err = err
		w.mu.Unlock()
		return Stayed, err
	}
	w.busy = true
	w.mu.Unlock()

	callCtx, cancel := w.scopedContext(ctx)
	m, err := call(callCtx)
	cancel()
	if err == nil && m == nil {
		err = fmt.Errorf("compose: %s returned no mailing", step)
	}
	w.metrics.ObserveStep(step.String(), err)

	outcome := Stayed
	delivered := w.apply(func() {
		w.busy = false
		if err != nil {
			w.err = err
			if errors.Is(err, addressable.ErrPaymentRequired) {
				w.alert = AlertPaymentRequired
			} else {
				w.alert = AlertSomethingWentWrong
			}
			w.log.Warn(ctx, "compose step failed", "step", step.String(), "error", err)
			return
		}
		w.err = nil
		w.mailing = m
		fields := map[string]any{"step": step.String(), "mailing_id": m.ID}
		w.record(ctx, event, fields)
		w.record(ctx, analytics.WizardNext, fields)

		next := step.next()
		if step == StepChooseTopic && m.List() == addressable.ListComplete {
			next = StepConfirmAudience
		}
		w.step = next
		if next == StepConfirmSend && w.targetDate == nil {
			d := w.now().Add(defaultLeadTime)
			w.targetDate = &d
		}
		w.checkAffordabilityLocked()
		w.log.Info(ctx, "compose step saved", "step", step.String(), "next", next.String(), "mailing_id", m.ID)
		outcome = Moved
	})
	if !delivered {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
		return Stayed, ErrDiscarded
	}
	return outcome, err
}

type persistFunc func(context.Context) (*addressable.Mailing, error)

// persistLocked captures the save for step from the current inputs.
func (w *Wizard) persistLocked(step Step) (persistFunc, analytics.Event, error) {
	if step == StepSelectLocation {
		site := addressable.NewSiteRequest(w.location, w.criteria)
		if w.mailing == nil {
			return func(ctx context.Context) (*addressable.Mailing, error) {
				return w.api.CreateRadiusMailing(ctx, site)
			}, analytics.RadiusMailingCreated, nil
		}
		return w.update(addressable.LocationUpdate{Site: site}), analytics.RadiusMailingLocationUpdated, nil
	}
	if w.mailing == nil {
		return nil, "", ErrNoMailing
	}

	switch step {
	case StepSelectCard:
		return w.update(addressable.CoverUpdate{LayoutTemplateID: w.coverID}), analytics.RadiusMailingCoverUpdated, nil
	case StepChooseTopic:
		return w.update(w.topicUpdateLocked()), analytics.RadiusMailingTopicUpdated, nil
	case StepConfirmAudience:
		return w.update(addressable.ListApproval{}), analytics.RadiusMailingAudienceConfirmed, nil
	case StepConfirmSend:
		var date *time.Time
		if w.targetDate != nil {
			d := *w.targetDate
			date = &d
		}
		return w.update(addressable.TargetDateUpdate{Date: date}), analytics.RadiusMailingSent, nil
	}
	return nil, "", fmt.Errorf("compose: nothing to save at %s", step)
}

func (w *Wizard) update(c addressable.Component) persistFunc {
	id := w.mailing.ID
	return func(ctx context.Context) (*addressable.Mailing, error) {
		return w.api.UpdateRadiusMailing(ctx, id, c)
	}
}

func (w *Wizard) topicUpdateLocked() addressable.TopicUpdate {
	vars := make(map[string]string, len(w.touchOne.vars)+len(w.touchTwo.vars))
	for k, v := range w.touchTwo.vars {
		vars[k] = v
	}
	for k, v := range w.touchOne.vars {
		vars[k] = v
	}
	u := addressable.TopicUpdate{
		TopicID:         w.topicID,
		TemplateOneBody: w.touchOne.body,
		TemplateTwoBody: w.touchTwo.body,
		MergeVars:       vars,
	}
	if w.touchOne.edited {
		yes := true
		u.UpdateTemplateOne = &yes
	}
	return u
}
