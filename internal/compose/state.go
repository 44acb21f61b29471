package compose

import (
	"sort"
	"time"

	"github.com/five82/addressable/internal/addressable"
)

// Touch is a read-only view of one touch's note.
type Touch struct {
	Body      string
	MergeVars map[string]string
}

// VarNames returns the merge variable names in sorted order.
func (t Touch) VarNames() []string {
	names := make([]string, 0, len(t.MergeVars))
	for name := range t.MergeVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State is a point-in-time copy of everything a compose screen renders.
type State struct {
	Step       Step
	Title      string
	Mailing    *addressable.Mailing
	Location   addressable.Location
	Covers     []addressable.LayoutTemplate
	CoverID    int
	Topics     []addressable.MultiTouchTopic
	TopicID    int
	TouchOne   Touch
	TouchTwo   Touch
	Templates  []addressable.MessageTemplate
	Account    *addressable.Account
	TargetDate *time.Time

	EditingDate bool
	CanAfford   bool
	NextEnabled bool
	NextLabel   string
	BackVisible bool
	BackLabel   string

	Alert   Alert
	Busy    bool
	Loading bool
	Err     error
}

// State returns a snapshot of the wizard.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	back := BackLabelBack
	if w.backExitsLocked() {
		back = BackLabelCampaigns
	}

	s := State{
		Step:        w.step,
		Title:       w.step.Title(),
		Location:    w.location,
		Covers:      append([]addressable.LayoutTemplate(nil), w.covers...),
		CoverID:     w.coverID,
		Topics:      append([]addressable.MultiTouchTopic(nil), w.topics...),
		TopicID:     w.topicID,
		TouchOne:    w.touchOne.view(),
		TouchTwo:    w.touchTwo.view(),
		Templates:   append([]addressable.MessageTemplate(nil), w.templates...),
		EditingDate: w.editingDate,
		CanAfford:   w.canAffordLocked(),
		NextEnabled: w.nextEnabledLocked(),
		NextLabel:   w.nextLabelLocked(),
		BackVisible: w.backVisibleLocked(),
		BackLabel:   back,
		Alert:       w.alert,
		Busy:        w.busy,
		Loading:     w.loading,
		Err:         w.err,
	}
	if w.mailing != nil {
		m := *w.mailing
		s.Mailing = &m
	}
	if w.account != nil {
		a := *w.account
		s.Account = &a
	}
	if w.targetDate != nil {
		d := *w.targetDate
		s.TargetDate = &d
	}
	return s
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// MailingID returns the id of the mailing being composed, zero before it
// has been created.
func (w *Wizard) MailingID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mailing == nil {
		return 0
	}
	return w.mailing.ID
}

func (t touch) view() Touch {
	vars := make(map[string]string, len(t.vars))
	for k, v := range t.vars {
		vars[k] = v
	}
	return Touch{Body: t.body, MergeVars: vars}
}
