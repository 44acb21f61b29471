package mockapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/keychain"
)

func setup(t *testing.T, opts Options) (*Server, *addressable.Client) {
	t.Helper()
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: srv.Token()})
	c, err := addressable.NewClient(ts.URL, tokens)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return srv, c
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	req.Header.Set("Authorization", "Basic wrong")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticateAndMobileLogin(t *testing.T) {
	srv, c := setup(t, Options{Email: "a@b.c", Password: "pw"})
	ctx := ctxT(t)

	user, err := c.Authenticate(ctx, addressable.BasicToken("a@b.c", "pw"))
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.Email == nil || *user.Email != "a@b.c" {
		t.Fatalf("user email = %v, want a@b.c", user.Email)
	}
	if _, err := c.Authenticate(ctx, addressable.BasicToken("a@b.c", "nope")); !errors.Is(err, addressable.ErrUnauthorized) {
		t.Fatalf("bad password error = %v, want unauthorized", err)
	}

	tok, err := c.MobileLogin(ctx, "device-1")
	if err != nil {
		t.Fatalf("MobileLogin returned error: %v", err)
	}
	if tok.JWTToken == "" || tok.Identity == nil {
		t.Fatalf("MobileLogin = %#v, want token and identity", tok)
	}
	if srv.Calls(http.MethodPost, "/auth/mobile_login") != 1 {
		t.Fatalf("mobile_login calls = %d, want 1", srv.Calls(http.MethodPost, "/auth/mobile_login"))
	}
}

func TestRadiusMailingLifecycle(t *testing.T) {
	srv, c := setup(t, Options{})
	ctx := ctxT(t)

	m, err := c.CreateRadiusMailing(ctx, addressable.NewSiteRequest(addressable.Location{
		AddressLine1: "1 Main St", City: "Reno", State: "NV", Zipcode: "89501",
	}, nil))
	if err != nil {
		t.Fatalf("CreateRadiusMailing returned error: %v", err)
	}
	if m.List() != addressable.ListSearching || m.MailingStatus != addressable.StateDraft {
		t.Fatalf("new mailing = %q/%q, want searching draft", m.List(), m.MailingStatus)
	}

	if _, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.CoverUpdate{LayoutTemplateID: 999}); !errors.Is(err, addressable.ErrNetwork) {
		t.Fatalf("unknown cover error = %v, want network error", err)
	}
	if _, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.CoverUpdate{LayoutTemplateID: 2}); err != nil {
		t.Fatalf("cover update returned error: %v", err)
	}
	if _, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.ListApproval{}); err == nil {
		t.Fatalf("list approval before completion returned nil error")
	}

	srv.SetListStatus(m.ID, addressable.ListComplete)
	updated, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.TopicUpdate{TopicID: 2, TemplateOneBody: "one", TemplateTwoBody: "two"})
	if err != nil {
		t.Fatalf("topic update returned error: %v", err)
	}
	if updated.List() != addressable.ListComplete || !updated.HasTopic() || !updated.HasLayout() {
		t.Fatalf("after topic = %#v, want complete with layout and topic", updated)
	}

	approved, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.ListApproval{})
	if err != nil {
		t.Fatalf("list approval returned error: %v", err)
	}
	if approved.RelatedMailing == nil || approved.RelatedMailing.ParentMailingID == nil {
		t.Fatalf("approved mailing should link to a second touch")
	}
	two, ok := srv.Mailing(approved.RelatedMailing.ID)
	if !ok || !two.IsTouchTwo() {
		t.Fatalf("second touch = %#v, want touch two", two)
	}

	srv.SetRadiusTokens(1)
	date := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	if _, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.TargetDateUpdate{Date: &date}); !errors.Is(err, addressable.ErrPaymentRequired) {
		t.Fatalf("target date with low balance error = %v, want payment required", err)
	}
	srv.SetRadiusTokens(100)
	sent, err := c.UpdateRadiusMailing(ctx, m.ID, addressable.TargetDateUpdate{Date: &date})
	if err != nil {
		t.Fatalf("target date returned error: %v", err)
	}
	if sent.MailingStatus != addressable.StateScheduled || sent.TargetDropDate == nil || *sent.TargetDropDate != "2026-11-02" {
		t.Fatalf("sent mailing = %q %v", sent.MailingStatus, sent.TargetDropDate)
	}

	account, err := c.Account(ctx, sent.AccountID())
	if err != nil {
		t.Fatalf("Account returned error: %v", err)
	}
	if account.RadiusTokens() != 100-sent.ActiveRecipientCount {
		t.Fatalf("radius tokens = %d, want %d", account.RadiusTokens(), 100-sent.ActiveRecipientCount)
	}
}

func TestAutoAdvanceList(t *testing.T) {
	_, c := setup(t, Options{AutoAdvanceList: true})
	ctx := ctxT(t)

	want := []addressable.ListStatus{addressable.ListExporting, addressable.ListIngesting, addressable.ListComplete, addressable.ListComplete}
	for i, status := range want {
		m, err := c.RadiusMailing(ctx, 103)
		if err != nil {
			t.Fatalf("RadiusMailing returned error: %v", err)
		}
		if m.List() != status {
			t.Fatalf("poll %d list status = %q, want %q", i, m.List(), status)
		}
	}
	rs, err := c.Recipients(ctx, 103)
	if err != nil {
		t.Fatalf("Recipients returned error: %v", err)
	}
	if len(rs) != generatedAudience {
		t.Fatalf("recipients = %d, want %d", len(rs), generatedAudience)
	}
}

func TestFaultInjection(t *testing.T) {
	srv, c := setup(t, Options{})
	srv.Fail(http.MethodGet, "/campaigns", http.StatusBadGateway)
	ctx := ctxT(t)

	if _, err := c.Campaigns(ctx); !errors.Is(err, addressable.ErrNetwork) {
		t.Fatalf("first call error = %v, want network error", err)
	}
	mailings, err := c.Campaigns(ctx)
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if len(mailings) != 3 {
		t.Fatalf("mailings = %d, want 3", len(mailings))
	}
}

func TestLeadsAndRecipients(t *testing.T) {
	srv, c := setup(t, Options{})
	ctx := ctxT(t)

	lead, err := c.TagIncomingLead(ctx, 1, addressable.LeadTag{Spam: true, Interest: addressable.InterestLow})
	if err != nil {
		t.Fatalf("TagIncomingLead returned error: %v", err)
	}
	if lead.Status != addressable.LeadSpam {
		t.Fatalf("lead status = %q, want spam", lead.Status)
	}
	stored, _ := srv.Lead(1)
	if stored.QualityScore == nil || *stored.QualityScore != 1 {
		t.Fatalf("stored score = %v, want 1", stored.QualityScore)
	}

	threads, err := c.IncomingLeadsWithMessages(ctx)
	if err != nil || len(threads) != 1 {
		t.Fatalf("IncomingLeadsWithMessages = %v, %v; want 1 thread", threads, err)
	}
	thread, err := c.SendLeadMessage(ctx, addressable.OutgoingMessage{IncomingLeadID: 1, Body: "See you at 3"})
	if err != nil {
		t.Fatalf("SendLeadMessage returned error: %v", err)
	}
	if got := len(thread.Messages()); got != 3 {
		t.Fatalf("thread length = %d, want 3", got)
	}

	rs, err := c.Recipients(ctx, 101)
	if err != nil {
		t.Fatalf("Recipients returned error: %v", err)
	}
	target := rs[0]
	if _, err := c.UpdateListEntry(ctx, target.ID, addressable.MembershipRemoved); err != nil {
		t.Fatalf("UpdateListEntry returned error: %v", err)
	}
	m, _ := srv.Mailing(101)
	if m.ActiveRecipientCount != countMembers(rs)-1 {
		t.Fatalf("active count = %d, want %d", m.ActiveRecipientCount, countMembers(rs)-1)
	}
	removal, err := c.CreateRemoval(ctx, 9, rs[1].ID)
	if err != nil || removal.ID == 0 {
		t.Fatalf("CreateRemoval = %v, %v", removal, err)
	}
}
