package addressable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/addressable/internal/keychain"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Type   string
	Agent  string
	Body   string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) at(i int) recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.calls) {
		return recorded{}
	}
	return r.calls[i]
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Type:   r.Header.Get("Content-Type"),
			Agent:  r.Header.Get("User-Agent"),
			Body:   string(body),
		})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	tokens := keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "stored-token"})
	c, err := NewClient(server.URL, tokens)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, rec
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_RadiusMailingDecodesAndSendsHeaders(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"radius_mailing":{"id":42,"name":"Spring","mailing_status":"draft","list_count":0,"target_quantity":500,"active_recipient_count":0}}`))
	})

	m, err := c.RadiusMailing(testContext(t), 42)
	if err != nil {
		t.Fatalf("RadiusMailing returned error: %v", err)
	}
	if m.ID != 42 || m.MailingStatus != StateDraft {
		t.Fatalf("RadiusMailing = %#v, want id 42 draft", m)
	}

	got := calls.at(0)
	if got.Method != http.MethodGet {
		t.Fatalf("method = %q, want GET", got.Method)
	}
	if got.Path != "/api/v1/radius_mailings/42" {
		t.Fatalf("path = %q, want /api/v1/radius_mailings/42", got.Path)
	}
	if got.Auth != "Basic stored-token" {
		t.Fatalf("Authorization = %q, want Basic stored-token", got.Auth)
	}
	if got.Type != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", got.Type)
	}
	if !strings.HasPrefix(got.Agent, "addressable/") {
		t.Fatalf("User-Agent = %q, want addressable/*", got.Agent)
	}
}

func TestClient_OperationsUseExpectedPathsAndMethods(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/incoming_leads" || r.URL.Path == "/api/v1/lead_messages" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/incoming_leads/"):
			_, _ = w.Write([]byte(`{"incoming_lead":{"id":3,"from_number":"555","status":"tagged"}}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/message_templates/") || r.URL.Path == "/api/v1/message_templates" && r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"message_template":{"id":5,"title":"t","body":"b"}}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/list_entries/"):
			_, _ = w.Write([]byte(`{"list_entry":{"id":8,"address_line_1":"1 Main"}}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/accounts/") && strings.HasSuffix(r.URL.Path, "create_removal_from_list_entry"):
			_, _ = w.Write([]byte(`{"removal":{"id":1}}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/accounts/"):
			_, _ = w.Write([]byte(`{"account":{"id":9,"radius_token_count":10}}`))
		case r.URL.Path == "/api/v1/data_tree_search/default_criteria":
			_, _ = w.Write([]byte(`{"data_tree_search":{"radius":0.5}}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/radius_mailings") && !strings.HasSuffix(r.URL.Path, "/recipients"):
			_, _ = w.Write([]byte(`{"radius_mailing":{"id":42,"name":"n","mailing_status":"draft","list_count":0,"target_quantity":0,"active_recipient_count":0}}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})
	ctx := testContext(t)

	// Calls run in order, left to right, as the literal is evaluated.
	steps := []struct {
		name   string
		err    error
		method string
		path   string
	}{
		{"campaigns", errOf(c.Campaigns(ctx)), "GET", "/api/v1/campaigns"},
		{"leads", errOf(c.IncomingLeads(ctx)), "GET", "/api/v1/incoming_leads"},
		{"tag lead", errOf(c.TagIncomingLead(ctx, 3, LeadTag{Interest: InterestFair})), "PATCH", "/api/v1/incoming_leads/3"},
		{"threads", errOf(c.IncomingLeadsWithMessages(ctx)), "GET", "/api/v1/lead_messages"},
		{"thread", errOf(c.LeadMessages(ctx, 3)), "GET", "/api/v1/lead_messages/3"},
		{"send text", errOf(c.SendLeadMessage(ctx, OutgoingMessage{IncomingLeadID: 3, Body: "hi"})), "POST", "/api/v1/lead_messages"},
		{"templates", errOf(c.MessageTemplates(ctx)), "GET", "/api/v1/message_templates"},
		{"template", errOf(c.MessageTemplate(ctx, 5)), "GET", "/api/v1/message_templates/5"},
		{"new template", errOf(c.CreateMessageTemplate(ctx, NewMessageTemplate{Title: "t"})), "POST", "/api/v1/message_templates"},
		{"edit template", errOf(c.UpdateMessageTemplate(ctx, 5, NewMessageTemplate{Title: "t"})), "PATCH", "/api/v1/message_templates/5"},
		{"topics", errOf(c.MultiTouchTopics(ctx)), "GET", "/api/v1/multi_touch_topics"},
		{"covers", errOf(c.CoverImages(ctx)), "GET", "/api/v1/layout_templates"},
		{"return address", errOf(c.ReturnAddress(ctx)), "GET", "/api/v1/return_addresses"},
		{"custom note", errOf(c.SendCustomNote(ctx, CustomNote{Body: "b"})), "POST", "/api/v1/custom_notes"},
		{"create radius", errOf(c.CreateRadiusMailing(ctx, NewSiteRequest(Location{AddressLine1: "1 Main"}, nil))), "POST", "/api/v1/radius_mailings"},
		{"status", errOf(c.UpdateMailingStatus(ctx, 42, StateCanceled)), "PATCH", "/api/v1/radius_mailings/42/status"},
		{"recipients", errOf(c.Recipients(ctx, 42)), "GET", "/api/v1/radius_mailings/42/recipients"},
		{"list entry", errOf(c.UpdateListEntry(ctx, 8, MembershipRemoved)), "PATCH", "/api/v1/list_entries/8"},
		{"removal", errOf(c.CreateRemoval(ctx, 9, 8)), "GET", "/api/v1/accounts/9/removals/8/create_removal_from_list_entry"},
		{"criteria", errOf(c.DefaultSearchCriteria(ctx)), "GET", "/api/v1/data_tree_search/default_criteria"},
		{"account", errOf(c.Account(ctx, 9)), "GET", "/api/v1/accounts/9"},
		{"uploads", errOf(c.ListUploads(ctx)), "GET", "/api/v1/list_uploads"},
		{"mobile login", errOf(c.MobileLogin(ctx, "dev-1")), "POST", "/api/v1/auth/mobile_login"},
		{"mobile logout", errOf(c.MobileLogout(ctx)), "POST", "/api/v1/auth/mobile_logout"},
	}

	for i, step := range steps {
		if step.err != nil {
			t.Fatalf("%s returned error: %v", step.name, step.err)
		}
		got := calls.at(i)
		if got.Method != step.method || got.Path != step.path {
			t.Fatalf("%s request = %s %s, want %s %s", step.name, got.Method, got.Path, step.method, step.path)
		}
		if got.Method == http.MethodGet && got.Body != "" {
			t.Fatalf("%s sent body %q on GET", step.name, got.Body)
		}
	}

	if body := calls.at(len(steps) - 1).Body; body != "{}" {
		t.Fatalf("mobile logout body = %q, want {}", body)
	}
}

func TestClient_UpdateRadiusMailingComponents(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"radius_mailing":{"id":7,"name":"n","mailing_status":"draft","list_count":0,"target_quantity":0,"active_recipient_count":0}}`))
	})
	ctx := testContext(t)
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		component Component
		path      string
		body      string
	}{
		{CoverUpdate{LayoutTemplateID: 11}, "/api/v1/radius_mailings/7/cover", `{"cover":{"layout_template_id":11}}`},
		{ListApproval{}, "/api/v1/radius_mailings/7/list", `{}`},
		{TargetDateUpdate{Date: &date}, "/api/v1/radius_mailings/7/target_date", `{"radius_mailing":{"target_drop_date":"2026-03-09"}}`},
		{TargetDateUpdate{}, "/api/v1/radius_mailings/7/target_date", `{"radius_mailing":{"target_drop_date":null}}`},
		{
			TopicUpdate{TopicID: 2, TemplateOneBody: "one", TemplateTwoBody: "two", MergeVars: map[string]string{"name": "Ann"}},
			"/api/v1/radius_mailings/7/topic",
			`{"topic":{"multi_touch_topic_id":2},"topic_template":{"template_one_body":"one","template_two_body":"two"},"merge_vars":{"name":"Ann"}}`,
		},
		{
			ReturnAddressUpdate{Address: ReturnAddress{FromFirstName: "Ann", FromCity: "Reno"}},
			"/api/v1/radius_mailings/7/from_address",
			`{"radius_mailing":{"from_first_name":"Ann","from_last_name":"","from_business_name":"","from_address_line_1":"","from_address_line_2":"","from_city":"Reno","from_state":"","from_zipcode":""}}`,
		},
		{
			LocationUpdate{Site: NewSiteRequest(Location{AddressLine1: " 1 Main ", City: "Reno", State: "NV", Zipcode: "89501"}, DataTreeSearchCriteria(`{"radius":1}`))},
			"/api/v1/radius_mailings/7/subject_address",
			`{"subject_list_entry":{"site_address_line_1":"1 Main","site_address_line_2":"","site_city":"Reno","site_state":"NV","site_zipcode":"89501","latitude":"","longitude":"","status":"active"},"data_tree_search":{"radius":1}}`,
		},
	}

	for i, tc := range cases {
		m, err := c.UpdateRadiusMailing(ctx, 7, tc.component)
		if err != nil {
			t.Fatalf("UpdateRadiusMailing(%s) returned error: %v", tc.component.Kind(), err)
		}
		if m.ID != 7 {
			t.Fatalf("UpdateRadiusMailing(%s) id = %d, want 7", tc.component.Kind(), m.ID)
		}
		got := calls.at(i)
		if got.Method != http.MethodPatch || got.Path != tc.path {
			t.Fatalf("%s request = %s %s, want PATCH %s", tc.component.Kind(), got.Method, got.Path, tc.path)
		}
		if got.Body != tc.body {
			t.Fatalf("%s body = %s, want %s", tc.component.Kind(), got.Body, tc.body)
		}
	}

	if _, err := c.UpdateRadiusMailing(ctx, 7, nil); !errors.Is(err, ErrNetwork) {
		t.Fatalf("nil component error = %v, want ErrNetwork", err)
	}
}

func TestClient_AuthenticateUsesOverrideToken(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":1,"account_id":9,"authentication_token":"abc"}}`))
	})

	token := BasicToken("ann@example.com", "hunter2")
	user, err := c.Authenticate(testContext(t), token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != 1 || user.AccountID == nil || *user.AccountID != 9 {
		t.Fatalf("Authenticate user = %#v, want id 1 account 9", user)
	}
	if got := calls.at(0).Auth; got != "Basic "+token {
		t.Fatalf("Authorization = %q, want override token", got)
	}
}

func TestClient_MissingTokenFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, keychain.NewMemory(nil))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.RadiusMailing(testContext(t), 42)
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, ErrMissingToken) {
		t.Fatalf("error = %v, want network error wrapping ErrMissingToken", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server hit %d times, want 0", hits.Load())
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/radius_mailings/1":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/v1/radius_mailings/2":
			w.WriteHeader(http.StatusPaymentRequired)
		case "/api/v1/radius_mailings/3":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/api/v1/radius_mailings/4":
			_, _ = w.Write([]byte(`{"something_else":{}}`))
		case "/api/v1/radius_mailings/5":
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	ctx := testContext(t)

	_, err := c.RadiusMailing(ctx, 1)
	if !errors.Is(err, ErrParsing) || errors.Is(err, ErrNetwork) {
		t.Fatalf("malformed body error = %v, want parsing only", err)
	}
	if !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("malformed body error = %q, want decode response", err)
	}

	_, err = c.RadiusMailing(ctx, 2)
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("402 error = %v, want network + payment required", err)
	}

	_, err = c.RadiusMailing(ctx, 3)
	if !errors.Is(err, ErrNetwork) || errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("500 error = %v, want plain network error", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("500 error = %#v, want *Error with status 500", err)
	}

	_, err = c.RadiusMailing(ctx, 4)
	if !errors.Is(err, ErrParsing) {
		t.Fatalf("missing envelope error = %v, want parsing", err)
	}

	_, err = c.RadiusMailing(ctx, 5)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401 error = %v, want unauthorized", err)
	}
}

func TestClient_TransportFailureIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url, keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "t"}))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Campaigns(testContext(t))
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestClient_TagIncomingLeadEncodesStringFlags(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"incoming_lead":{"id":3,"from_number":"555","status":"spam"}}`))
	})
	_, err := c.TagIncomingLead(testContext(t), 3, LeadTag{Spam: true, Interest: InterestLead, Removal: true})
	if err != nil {
		t.Fatalf("TagIncomingLead returned error: %v", err)
	}
	var body map[string]map[string]any
	if err := json.Unmarshal([]byte(calls.at(0).Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	tag := body["incoming_lead"]
	if tag["spam"] != "true" || tag["removal"] != "1" || tag["quality_score"] != float64(3) {
		t.Fatalf("tag body = %#v, want spam true, removal 1, score 3", tag)
	}
}

func TestClient_LeadMessagesSkipsUndecodableEntries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lead_messages":["{\"body\":\"hi\",\"is_incoming\":true}","garbage","{\"body\":\"yo\",\"is_incoming\":false}"]}`))
	})
	resp, err := c.LeadMessages(testContext(t), 3)
	if err != nil {
		t.Fatalf("LeadMessages returned error: %v", err)
	}
	if got := len(resp.Messages()); got != 2 {
		t.Fatalf("Messages len = %d, want 2", got)
	}
	if got := resp.IncomingCount(); got != 1 {
		t.Fatalf("IncomingCount = %d, want 1", got)
	}
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("sandbox.addressable.app", nil, WithHTTPClient(hc), WithTimeout(3*time.Second), WithUserAgent("test/1"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.http.Timeout != 3*time.Second {
		t.Fatalf("Timeout = %v, want 3s", c.http.Timeout)
	}
	if hc.Timeout != 0 {
		t.Fatalf("shared client Timeout = %v, want it left at 0", hc.Timeout)
	}
	if c.userAgent != "test/1" {
		t.Fatalf("userAgent = %q, want test/1", c.userAgent)
	}
	if c.BaseURL() != "https://sandbox.addressable.app/api/v1" {
		t.Fatalf("BaseURL = %q, want sandbox base", c.BaseURL())
	}
}

func TestWithTransport_LeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Transport: http.DefaultTransport}
	var used atomic.Int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used.Add(1)
		return http.DefaultTransport.RoundTrip(r)
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"campaigns":[]}`)
	}))
	t.Cleanup(ts.Close)

	tokens := keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "t"})
	c, err := NewClient(ts.URL, tokens, WithHTTPClient(shared), WithTransport(rt))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if shared.Transport != http.DefaultTransport {
		t.Fatalf("shared client Transport = %T, want it unchanged", shared.Transport)
	}
	if _, err := c.Campaigns(context.Background()); err != nil {
		t.Fatalf("Campaigns returned error: %v", err)
	}
	if got := used.Load(); got != 1 {
		t.Fatalf("round trips through transport = %d, want 1", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_NilClient(t *testing.T) {
	var c *Client
	if _, err := c.Campaigns(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("nil client error = %v, want ErrNetwork", err)
	}
}

func errOf[T any](_ T, err error) error { return err }
