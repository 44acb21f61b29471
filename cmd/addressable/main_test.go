package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/config"
	"github.com/five82/addressable/internal/mockapi"
)

type cli struct {
	srv  *mockapi.Server
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	t.Setenv(config.EnvStateDir, dir)
	return &cli{
		srv: srv,
		base: []string{
			"--config", filepath.Join(dir, "config.toml"),
			"--env-file", filepath.Join(dir, ".env"),
			"--prefs", filepath.Join(dir, "prefs.toml"),
			"--origin", ts.URL,
		},
	}
}

// resetFlags puts every flag back to its default so one run's flags do not
// leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(append([]string{}, args...), c.base...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, "", args...)
	if err != nil {
		t.Fatalf("addressable %s returned error: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (c *cli) login(t *testing.T) {
	t.Helper()
	out, err := c.run(t, mockapi.DefaultPassword+"\n", "login", "--email", mockapi.DefaultEmail, "--password-stdin")
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if !strings.Contains(out, "Signed in as Dana Reyes") {
		t.Fatalf("login output = %q", out)
	}
}

func TestCommandsNeedLogin(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "", "campaigns"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("campaigns error = %v, want errNotLoggedIn", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "wrong\n", "login", "--email", mockapi.DefaultEmail, "--password-stdin"); err == nil {
		t.Fatal("login with a bad password returned nil error")
	}
	if _, err := c.run(t, "", "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("whoami error = %v, want errNotLoggedIn", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	var user addressable.User
	if err := json.Unmarshal([]byte(c.mustRun(t, "whoami", "-o", "json")), &user); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	if user.AccountID == nil || *user.AccountID != 9 {
		t.Fatalf("whoami account = %v, want 9", user.AccountID)
	}

	if out := c.mustRun(t, "logout"); !strings.Contains(out, "Signed out") {
		t.Fatalf("logout output = %q", out)
	}
	if _, err := c.run(t, "", "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("whoami after logout error = %v, want errNotLoggedIn", err)
	}
}

func TestCampaignsStatusFilter(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out := c.mustRun(t, "campaigns", "--status", "mailed")
	if !strings.Contains(out, "Spring Open House") || strings.Contains(out, "Just Sold: Plumas St") {
		t.Fatalf("mailed campaigns:\n%s", out)
	}

	var all []mailingSummary
	if err := json.Unmarshal([]byte(c.mustRun(t, "campaigns", "-o", "json")), &all); err != nil {
		t.Fatalf("decode campaigns: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("campaigns = %d, want at least 2", len(all))
	}

	if _, err := c.run(t, "", "campaigns", "--status", "bogus"); err == nil {
		t.Fatal("unknown status returned nil error")
	}
}

func TestSummaryCounts(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	var counts countsOutput
	if err := json.Unmarshal([]byte(c.mustRun(t, "summary", "-o", "json")), &counts); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if counts.Calls != 3 || counts.Untagged != 2 {
		t.Fatalf("counts = %+v, want 3 calls with 2 untagged", counts)
	}
}

func TestMailingShowYAML(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	var got map[string]any
	if err := yaml.Unmarshal([]byte(c.mustRun(t, "mailing", "show", "101", "-o", "yaml")), &got); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if got["name"] != "Spring Open House" || got["status"] != "Mailed" {
		t.Fatalf("mailing = %v", got)
	}
	if got["action"] != "Send Again" {
		t.Fatalf("action = %v, want Send Again", got["action"])
	}
}

func TestMailingCancelNeedsYes(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	if _, err := c.run(t, "", "mailing", "action", "102"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("cancel without --yes error = %v", err)
	}
	if m, _ := c.srv.Mailing(102); m.MailingStatus != addressable.StateScheduled {
		t.Fatalf("mailing canceled without confirmation: %q", m.MailingStatus)
	}

	out := c.mustRun(t, "mailing", "action", "102", "--yes")
	if !strings.Contains(out, "Canceled") {
		t.Fatalf("cancel output = %q", out)
	}
	if m, _ := c.srv.Mailing(102); m.MailingStatus != addressable.StateCanceled {
		t.Fatalf("server status = %q, want canceled", m.MailingStatus)
	}
}

func TestMailingReturnAddressKeepsUnsetFields(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	c.mustRun(t, "mailing", "return-address", "101", "--business", "Reyes & Co")
	m, _ := c.srv.Mailing(101)
	if m.FromAddress == nil {
		t.Fatal("return address not saved")
	}
	if m.FromAddress.FromBusinessName != "Reyes & Co" || m.FromAddress.FromFirstName != "Dana" {
		t.Fatalf("return address = %+v", *m.FromAddress)
	}
}

func TestLeadsTagAndReply(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out := c.mustRun(t, "leads", "--untagged")
	if !strings.Contains(out, "Chris") || strings.Contains(out, "Pat Kim") {
		t.Fatalf("untagged leads:\n%s", out)
	}

	c.mustRun(t, "leads", "tag", "1", "--interest", "fair")
	lead, _ := c.srv.Lead(1)
	if lead.Status != addressable.LeadTagged || lead.QualityScore == nil || *lead.QualityScore != 2 {
		t.Fatalf("lead after tag = %q %v", lead.Status, lead.QualityScore)
	}
	if _, err := c.run(t, "", "leads", "tag", "1", "--interest", "maybe"); err == nil {
		t.Fatal("unknown interest returned nil error")
	}

	var msgs []messageOutput
	if err := json.Unmarshal([]byte(c.mustRun(t, "leads", "reply", "1", "See", "you", "Saturday", "-o", "json")), &msgs); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Body != "See you Saturday" || msgs[len(msgs)-1].Incoming {
		t.Fatalf("thread = %+v", msgs)
	}
}

func TestComposeCreatesAndSends(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	var res composeResult
	decode := func(out string) {
		t.Helper()
		res = composeResult{}
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("decode compose: %v\n%s", err, out)
		}
	}

	if _, err := c.run(t, "", "compose", "--address", "3300 Mayberry Dr", "--city", "Reno", "--state", "NV", "--zip", "89509", "--cover", "2", "--topic", "1"); err == nil || !strings.Contains(err.Error(), "1.address") {
		t.Fatalf("compose without merge vars error = %v", err)
	}

	decode(c.mustRun(t, "compose", "-o", "json",
		"--address", "3300 Mayberry Dr", "--city", "Reno", "--state", "NV", "--zip", "89509",
		"--cover", "2", "--topic", "1", "--var", "address=3300 Mayberry Dr"))
	if res.Step != "audienceProcessing" || res.MailingID == 0 {
		t.Fatalf("first run = %+v, want audienceProcessing", res)
	}
	id := res.MailingID

	c.srv.SetListStatus(id, addressable.ListComplete)
	mailing := []string{"compose", "-o", "json", "--mailing", strconv.Itoa(id)}
	decode(c.mustRun(t, mailing...))
	if res.Step != "confirmAudience" || !strings.Contains(res.Next, "--send") {
		t.Fatalf("resumed run = %+v, want confirmAudience", res)
	}
	if m, _ := c.srv.Mailing(id); m.MailingStatus == addressable.StateScheduled {
		t.Fatal("mailing sent without --send")
	}

	decode(c.mustRun(t, append(mailing, "--send", "--date", "2026-11-02")...))
	if res.Step != "radiusSent" || res.DropDate != "2026-11-02" {
		t.Fatalf("send run = %+v, want radiusSent on 2026-11-02", res)
	}
	if m, _ := c.srv.Mailing(id); m.MailingStatus != addressable.StateScheduled {
		t.Fatalf("server status = %q, want scheduled", m.MailingStatus)
	}
}

func TestComposeLowBalanceShowsOrdersURL(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	out := c.mustRun(t, "compose", "-o", "json",
		"--address", "3300 Mayberry Dr", "--city", "Reno", "--state", "NV", "--zip", "89509",
		"--cover", "1", "--topic", "1", "--var", "address=3300 Mayberry Dr")
	var res composeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode compose: %v", err)
	}
	id := res.MailingID
	c.srv.SetListStatus(id, addressable.ListComplete)
	c.srv.SetRadiusTokens(0)

	_, err := c.run(t, "", "compose", "--mailing", strconv.Itoa(id), "--send")
	if err == nil || !strings.Contains(err.Error(), "/accounts/9/token_orders") {
		t.Fatalf("low balance error = %v, want token orders URL", err)
	}
}

func TestTemplatesCreateAndUpdate(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	var tmpl addressable.MessageTemplate
	out := c.mustRun(t, "templates", "create", "--title", "Open house", "--body", "Come by {{day}}", "-o", "json")
	if err := json.Unmarshal([]byte(out), &tmpl); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if tmpl.ID == 0 || tmpl.Title != "Open house" {
		t.Fatalf("created = %+v", tmpl)
	}

	out = c.mustRun(t, "templates", "update", strconv.Itoa(tmpl.ID), "--body", "Come by Sunday", "-o", "json")
	if err := json.Unmarshal([]byte(out), &tmpl); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if tmpl.Title != "Open house" || tmpl.Body != "Come by Sunday" {
		t.Fatalf("updated = %+v, want title kept and body changed", tmpl)
	}
}

func TestNoteTemplateNeedsMergeVars(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	_, err := c.run(t, "", "note", "--template", "1", "--first-name", "Ann")
	if err == nil || !strings.Contains(err.Error(), "first_name") {
		t.Fatalf("note with an empty merge variable error = %v, want it to name first_name", err)
	}
	if got := len(c.srv.CustomNotes()); got != 0 {
		t.Fatalf("notes ordered = %d, want 0", got)
	}
	if _, err := c.run(t, "", "note", "--template", "1", "--var", "city=Reno"); err == nil {
		t.Fatal("note with an undeclared merge variable returned nil error")
	}
	if _, err := c.run(t, "", "note", "--body", "hi", "--var", "first_name=Ann"); err == nil {
		t.Fatal("--var without --template returned nil error")
	}

	out := c.mustRun(t, "note", "--template", "1", "--var", "first_name=Ann", "--first-name", "Ann")
	if !strings.Contains(out, "ordered") {
		t.Fatalf("note output = %q", out)
	}
	notes := c.srv.CustomNotes()
	if len(notes) != 1 {
		t.Fatalf("notes ordered = %d, want 1", len(notes))
	}
	if notes[0].MessageTemplateID == nil || *notes[0].MessageTemplateID != 1 {
		t.Fatalf("message_template_id = %v, want 1", notes[0].MessageTemplateID)
	}
	if want := "Hi Ann, thanks for your call!"; notes[0].Body != want {
		t.Fatalf("body = %q, want %q", notes[0].Body, want)
	}
}

func TestEventsListsRecordedEvents(t *testing.T) {
	c := newCLI(t)
	c.login(t)
	c.mustRun(t, "mailing", "show", "101")

	var events []map[string]any
	if err := json.Unmarshal([]byte(c.mustRun(t, "events", "-o", "json", "--limit", "1")), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "", "campaigns", "-o", "xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("error = %v, want unknown format", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want addressable.MailingStatus
	}{
		{"", ""},
		{"all", ""},
		{"mailed", addressable.StatusMailed},
		{"in-process", addressable.StatusInProcess},
		{"In Process", addressable.StatusInProcess},
		{"CANCELED", addressable.StatusCanceled},
	}
	for _, tt := range tests {
		got, err := parseStatus(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("parseStatus(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseTab(t *testing.T) {
	tests := map[string]addressable.RecipientTab{
		"all":          addressable.TabAll,
		"mailing-list": addressable.TabMailingList,
		"removed":      addressable.TabRemoved,
		"Unavailable":  addressable.TabUnavailable,
	}
	for in, want := range tests {
		if got, err := parseTab(in); err != nil || got != want {
			t.Fatalf("parseTab(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseTab("nope"); err == nil {
		t.Fatal("parseTab(nope) returned nil error")
	}
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun(t, "version")
	if !strings.Contains(out, "addressable version dev") {
		t.Fatalf("version output = %q", out)
	}
}

