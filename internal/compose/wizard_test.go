package compose

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/keychain"
	"github.com/five82/addressable/internal/mockapi"
	"github.com/five82/addressable/internal/task"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

var reno = addressable.Location{AddressLine1: "3300 Mayberry Dr", City: "Reno", State: "NV", Zipcode: "89509"}

func setup(t *testing.T) (*mockapi.Server, *addressable.Client) {
	t.Helper()
	srv := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: srv.Token()})
	c, err := addressable.NewClient(ts.URL, tokens)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return srv, c
}

func newWizard(t *testing.T, api addressable.API, sink analytics.Sink) *Wizard {
	t.Helper()
	w, err := New(Options{API: api, Analytics: sink, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func mustAdvance(t *testing.T, w *Wizard, ctx context.Context, wantStep Step) {
	t.Helper()
	outcome, err := w.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance at %s returned error: %v", w.Step(), err)
	}
	if outcome != Moved {
		t.Fatalf("Advance outcome = %d, want Moved", outcome)
	}
	if got := w.Step(); got != wantStep {
		t.Fatalf("step = %s, want %s", got, wantStep)
	}
}

func TestStepTitles(t *testing.T) {
	want := map[Step]string{
		StepSelectLocation:     "Location of Sale",
		StepSelectCard:         "Choose Card",
		StepChooseTopic:        "Choose Campaign Type",
		StepAudienceProcessing: "Audience Processing",
		StepConfirmAudience:    "Confirm Audience",
		StepConfirmSend:        "Confirm and Send",
		StepRadiusSent:         "Radius Mailing Sent",
	}
	steps := Steps()
	if len(steps) != len(want) {
		t.Fatalf("len(Steps) = %d, want %d", len(steps), len(want))
	}
	for i, s := range steps {
		if s.Number() != i+1 {
			t.Fatalf("%s.Number() = %d, want %d", s, s.Number(), i+1)
		}
		if s.Title() != want[s] {
			t.Fatalf("%s.Title() = %q, want %q", s, s.Title(), want[s])
		}
	}
	if StepRadiusSent.next() != StepRadiusSent || StepSelectLocation.prev() != StepSelectLocation {
		t.Fatalf("step bounds are not sticky")
	}
	if Step(42).String() != "unknown" || Step(42).Title() != "" {
		t.Fatalf("out of range step should be unknown")
	}
}

func TestResumeStep(t *testing.T) {
	list := func(s addressable.ListStatus) *addressable.ListStatus { return &s }
	topic := 1
	cover := &addressable.LayoutTemplate{ID: 1}

	tests := []struct {
		name string
		m    *addressable.Mailing
		want Step
	}{
		{"nil mailing", nil, StepSelectLocation},
		{"no list", &addressable.Mailing{}, StepSelectLocation},
		{"new", &addressable.Mailing{ListStatus: list(addressable.ListNew)}, StepSelectLocation},
		{"search failed", &addressable.Mailing{ListStatus: list(addressable.ListSearchFailed)}, StepSelectLocation},
		{"searching", &addressable.Mailing{ListStatus: list(addressable.ListSearching)}, StepSelectCard},
		{"exporting", &addressable.Mailing{ListStatus: list(addressable.ListExporting)}, StepSelectCard},
		{"ingesting with cover", &addressable.Mailing{ListStatus: list(addressable.ListIngesting), LayoutTemplate: cover}, StepSelectCard},
		{"complete without cover", &addressable.Mailing{ListStatus: list(addressable.ListComplete)}, StepSelectCard},
		{"complete without topic", &addressable.Mailing{ListStatus: list(addressable.ListComplete), LayoutTemplate: cover}, StepChooseTopic},
		{"complete with both", &addressable.Mailing{ListStatus: list(addressable.ListComplete), LayoutTemplate: cover, TopicSelectionID: &topic}, StepConfirmAudience},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResumeStep(tt.m); got != tt.want {
				t.Fatalf("ResumeStep = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWizardComposesAndSends(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	var sink analytics.Memory

	w := newWizard(t, c, &sink)
	if err := w.Load(ctx, 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	st := w.State()
	if st.Step != StepSelectLocation || st.NextEnabled || st.NextLabel != "Next" || st.BackLabel != BackLabelBack {
		t.Fatalf("initial state = %+v", st)
	}
	if len(st.Covers) != 3 || len(st.Topics) != 2 || len(st.Templates) != 2 {
		t.Fatalf("options not loaded: covers=%d topics=%d templates=%d", len(st.Covers), len(st.Topics), len(st.Templates))
	}
	if _, err := w.Advance(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Advance without location error = %v, want ErrIncomplete", err)
	}
	if w.Back(ctx) != Stayed {
		t.Fatalf("Back at the first step should stay")
	}

	if err := w.SetLocation(ctx, reno); err != nil {
		t.Fatalf("SetLocation returned error: %v", err)
	}
	mustAdvance(t, w, ctx, StepSelectCard)
	id := w.MailingID()
	if id == 0 {
		t.Fatalf("mailing was not created")
	}
	if !sink.Has(analytics.RadiusMailingCreated) || !sink.Has(analytics.WizardNext) {
		t.Fatalf("events = %v, want created and next", sink.Events())
	}

	st = w.State()
	if st.BackLabel != BackLabelCampaigns {
		t.Fatalf("back label while the list builds = %q, want %q", st.BackLabel, BackLabelCampaigns)
	}
	if st.NextEnabled {
		t.Fatalf("selectCard should need a selection")
	}
	if err := w.SelectCover(999); !errors.Is(err, ErrUnknownCover) {
		t.Fatalf("SelectCover(999) error = %v, want ErrUnknownCover", err)
	}
	if err := w.SelectCover(2); err != nil {
		t.Fatalf("SelectCover returned error: %v", err)
	}
	mustAdvance(t, w, ctx, StepChooseTopic)

	if err := w.SelectTopic(ctx, 1); err != nil {
		t.Fatalf("SelectTopic returned error: %v", err)
	}
	if w.State().NextEnabled {
		t.Fatalf("chooseTopic should need every merge variable")
	}
	if err := w.SetMergeVar(1, "address", "3300 Mayberry Dr"); err != nil {
		t.Fatalf("SetMergeVar returned error: %v", err)
	}
	if w.State().NextEnabled {
		t.Fatalf("touch two merge variable is still empty")
	}
	if err := w.SetMergeVar(2, "address", "3300 Mayberry Dr"); err != nil {
		t.Fatalf("SetMergeVar returned error: %v", err)
	}
	if err := w.SetMergeVar(2, "nope", "x"); err == nil {
		t.Fatalf("SetMergeVar on an undeclared name returned nil error")
	}
	mustAdvance(t, w, ctx, StepAudienceProcessing)

	st = w.State()
	if st.NextLabel != "Finish" || st.BackVisible {
		t.Fatalf("audienceProcessing: next=%q backVisible=%v", st.NextLabel, st.BackVisible)
	}
	if outcome, err := w.Advance(ctx); err != nil || outcome != ExitToDashboard {
		t.Fatalf("Advance at audienceProcessing = %d, %v; want ExitToDashboard", outcome, err)
	}
	if !sink.Has(analytics.WizardNextToDashboard) {
		t.Fatalf("missing next-to-dashboard event")
	}

	// The audience finishes building; reopening resumes at confirmAudience.
	srv.SetListStatus(id, addressable.ListComplete)
	w2 := newWizard(t, c, &sink)
	if err := w2.Load(ctx, id); err != nil {
		t.Fatalf("Load(%d) returned error: %v", id, err)
	}
	st = w2.State()
	if st.Step != StepConfirmAudience || st.Location.AddressLine1 != reno.AddressLine1 || st.CoverID != 2 || st.TopicID != 1 {
		t.Fatalf("resumed state = step %s location %q cover %d topic %d", st.Step, st.Location.AddressLine1, st.CoverID, st.TopicID)
	}
	if st.Account == nil || st.Account.RadiusTokens() != 40 {
		t.Fatalf("account not loaded: %+v", st.Account)
	}
	if st.BackLabel != BackLabelCampaigns {
		t.Fatalf("confirmAudience back label = %q", st.BackLabel)
	}
	mustAdvance(t, w2, ctx, StepConfirmSend)

	st = w2.State()
	wantDate := addressable.FormatDropDate(fixedNow.Add(defaultLeadTime))
	if st.TargetDate == nil || addressable.FormatDropDate(*st.TargetDate) != wantDate {
		t.Fatalf("proposed target date = %v, want %s", st.TargetDate, wantDate)
	}
	if st.NextLabel != "Confirm & Send" || !st.CanAfford || st.BackVisible {
		t.Fatalf("confirmSend state = %+v", st)
	}
	w2.BeginDateEdit()
	if w2.State().NextEnabled {
		t.Fatalf("sending should wait for the date edit")
	}
	w2.EndDateEdit(ctx, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC))
	mustAdvance(t, w2, ctx, StepRadiusSent)

	sent, _ := srv.Mailing(id)
	if sent.MailingStatus != addressable.StateScheduled || sent.TargetDropDate == nil || *sent.TargetDropDate != "2026-11-02" {
		t.Fatalf("server mailing = %q %v, want scheduled for 2026-11-02", sent.MailingStatus, sent.TargetDropDate)
	}
	if !sink.Has(analytics.RadiusMailingSent) || !sink.Has(analytics.RadiusMailingAudienceConfirmed) {
		t.Fatalf("events = %v", sink.Events())
	}
	if w2.State().NextLabel != "Complete" {
		t.Fatalf("radiusSent next label = %q", w2.State().NextLabel)
	}
	if outcome, _ := w2.Advance(ctx); outcome != ExitToDashboard || w2.Step() != StepRadiusSent {
		t.Fatalf("Advance at radiusSent should leave the step alone and exit")
	}
}

func TestTopicSkipsToConfirmAudienceWhenListComplete(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	w := newWizard(t, c, nil)
	if err := w.Load(ctx, 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_ = w.SetLocation(ctx, reno)
	mustAdvance(t, w, ctx, StepSelectCard)
	_ = w.SelectCover(1)
	mustAdvance(t, w, ctx, StepChooseTopic)

	srv.SetListStatus(w.MailingID(), addressable.ListComplete)
	if err := w.SelectTopic(ctx, 2); err != nil {
		t.Fatalf("SelectTopic returned error: %v", err)
	}
	mustAdvance(t, w, ctx, StepConfirmAudience)

	if outcome := w.Back(ctx); outcome != ExitToDashboard {
		t.Fatalf("Back at confirmAudience = %d, want ExitToDashboard", outcome)
	}
}

func TestUseTemplateGatesOnItsMergeVars(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	var sink analytics.Memory
	w := newWizard(t, c, &sink)
	if err := w.Load(ctx, 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_ = w.SetLocation(ctx, reno)
	mustAdvance(t, w, ctx, StepSelectCard)
	_ = w.SelectCover(1)
	mustAdvance(t, w, ctx, StepChooseTopic)

	if err := w.UseTemplate(ctx, 1, 1); !errors.Is(err, ErrNoTopic) {
		t.Fatalf("UseTemplate before a topic error = %v, want ErrNoTopic", err)
	}
	if err := w.SelectTopic(ctx, 2); err != nil {
		t.Fatalf("SelectTopic returned error: %v", err)
	}
	if !w.State().NextEnabled {
		t.Fatalf("topic 2 declares no merge variables and should be ready")
	}
	if err := w.UseTemplate(ctx, 1, 99); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("UseTemplate(99) error = %v, want ErrUnknownNote", err)
	}

	if err := w.UseTemplate(ctx, 1, 1); err != nil {
		t.Fatalf("UseTemplate returned error: %v", err)
	}
	st := w.State()
	if st.TouchOne.Body != "Hi {{first_name}}, thanks for your call!" {
		t.Fatalf("touch one body = %q", st.TouchOne.Body)
	}
	if v, ok := st.TouchOne.MergeVars["first_name"]; !ok || v != "" {
		t.Fatalf("touch one merge vars = %v, want empty first_name", st.TouchOne.MergeVars)
	}
	if st.NextEnabled {
		t.Fatalf("an unset template merge variable should block the step")
	}
	if _, err := w.Advance(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Advance with first_name unset error = %v, want ErrIncomplete", err)
	}
	if !sink.Has(analytics.MessageTemplateChosen) {
		t.Fatalf("events = %v, want template chosen", sink.Events())
	}

	if err := w.UseTemplate(ctx, 2, 2); err != nil {
		t.Fatalf("UseTemplate on touch two returned error: %v", err)
	}
	if got := w.State().TouchTwo.MergeVars["avg_price"]; got != "$512k" {
		t.Fatalf("touch two avg_price = %q, want the template's value", got)
	}

	if err := w.SetMergeVar(1, "first_name", "Ann"); err != nil {
		t.Fatalf("SetMergeVar returned error: %v", err)
	}
	mustAdvance(t, w, ctx, StepAudienceProcessing)
	m, _ := srv.Mailing(w.MailingID())
	if m.CustomNoteBody == nil || *m.CustomNoteBody != "Hi {{first_name}}, thanks for your call!" {
		t.Fatalf("saved note body = %v", m.CustomNoteBody)
	}
}

func TestFailedPersistKeepsStep(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	var sink analytics.Memory
	w := newWizard(t, c, &sink)
	if err := w.Load(ctx, 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_ = w.SetLocation(ctx, reno)
	mustAdvance(t, w, ctx, StepSelectCard)
	_ = w.SelectCover(3)

	srv.Fail(http.MethodPatch, fmt.Sprintf("/radius_mailings/%d/cover", w.MailingID()), http.StatusInternalServerError)
	outcome, err := w.Advance(ctx)
	if !errors.Is(err, addressable.ErrNetwork) || outcome != Stayed {
		t.Fatalf("Advance = %d, %v; want Stayed with a network error", outcome, err)
	}
	st := w.State()
	if st.Step != StepSelectCard || st.Alert != AlertSomethingWentWrong || st.Err == nil {
		t.Fatalf("after failure: step %s alert %s err %v", st.Step, st.Alert, st.Err)
	}
	if sink.Has(analytics.RadiusMailingCoverUpdated) {
		t.Fatalf("cover event recorded for a failed save")
	}

	w.DismissAlert()
	mustAdvance(t, w, ctx, StepChooseTopic)
	if st := w.State(); st.Alert != AlertNone || st.Err != nil {
		t.Fatalf("success should clear the error: %+v", st.Err)
	}
}

func TestLowBalanceBlocksSend(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	var sink analytics.Memory

	// Mailing 102 is complete with cover; give it a topic first.
	srv.SetRadiusTokens(1)
	if _, err := c.UpdateRadiusMailing(ctx, 102, addressable.TopicUpdate{TopicID: 2, TemplateOneBody: "a", TemplateTwoBody: "b"}); err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	w := newWizard(t, c, &sink)
	if err := w.Load(ctx, 102); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if w.Step() != StepConfirmAudience {
		t.Fatalf("step = %s, want confirmAudience", w.Step())
	}
	st := w.State()
	if st.CanAfford || st.BackLabel != BackLabelCampaigns {
		t.Fatalf("canAfford=%v back=%q, want false and Campaigns", st.CanAfford, st.BackLabel)
	}
	mustAdvance(t, w, ctx, StepConfirmSend)

	st = w.State()
	if st.Alert != AlertPaymentRequired || st.NextEnabled || !st.BackVisible {
		t.Fatalf("confirmSend with low balance: %+v", st)
	}
	if st.Alert.Title() != "Low Token Balance" || st.Alert.Action() != "Buy More" {
		t.Fatalf("alert copy = %q / %q", st.Alert.Title(), st.Alert.Action())
	}
	if _, err := w.Advance(ctx); !errors.Is(err, ErrCannotAfford) {
		t.Fatalf("Advance error = %v, want ErrCannotAfford", err)
	}
	if got := w.BuyMore(ctx); got != 9 {
		t.Fatalf("BuyMore account = %d, want 9", got)
	}
	if !sink.Has(analytics.TokenPurchasePressed) {
		t.Fatalf("token purchase press not recorded")
	}
	if w.Back(ctx) != ExitToDashboard {
		t.Fatalf("Back with low balance should exit to the dashboard")
	}

	srv.SetRadiusTokens(500)
	if err := w.Refresh(ctx); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if !w.State().CanAfford {
		t.Fatalf("balance top-up not picked up")
	}
}

func TestServerPaymentRequiredRaisesAlert(t *testing.T) {
	srv, c := setup(t)
	ctx := ctxT(t)
	w := newWizard(t, c, nil)
	if err := w.Load(ctx, 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_ = w.SetLocation(ctx, reno)

	srv.Fail(http.MethodPost, "/radius_mailings", http.StatusPaymentRequired)
	if _, err := w.Advance(ctx); !errors.Is(err, addressable.ErrPaymentRequired) {
		t.Fatalf("Advance error = %v, want payment required", err)
	}
	if st := w.State(); st.Alert != AlertPaymentRequired || st.Step != StepSelectLocation {
		t.Fatalf("alert %s step %s", st.Alert, st.Step)
	}
}

type blockingAPI struct {
	addressable.API
	started chan struct{}
	release chan struct{}
}

func (b *blockingAPI) CreateRadiusMailing(ctx context.Context, site addressable.SiteRequest) (*addressable.Mailing, error) {
	close(b.started)
	<-b.release
	return &addressable.Mailing{ID: 1}, nil
}

func TestClosedWizardDropsLateResult(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	scope := task.NewScope(context.Background())
	w, err := New(Options{API: api, Scope: scope})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_ = w.SetLocation(context.Background(), reno)

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		o, err := w.Advance(context.Background())
		done <- result{o, err}
	}()

	<-api.started
	if _, err := w.Advance(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent Advance error = %v, want ErrBusy", err)
	}
	w.Close()
	close(api.release)

	r := <-done
	if !errors.Is(r.err, ErrDiscarded) || r.outcome != Stayed {
		t.Fatalf("late result = %d, %v; want Stayed, ErrDiscarded", r.outcome, r.err)
	}
	if st := w.State(); st.Step != StepSelectLocation || st.Mailing != nil {
		t.Fatalf("closed wizard was mutated: step %s mailing %v", st.Step, st.Mailing)
	}
}

func TestNewRequiresAPI(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("New without an API returned nil error")
	}
}
