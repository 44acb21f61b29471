package addressable

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/five82/addressable/internal/keychain"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "https://live.addressable.app/api/v1" {
		t.Fatalf("base = %q, want live base", u.String())
	}

	u, err = parseBaseURL("http://127.0.0.1:8089/ignored?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "http://127.0.0.1:8089/api/v1" {
		t.Fatalf("base = %q, want http://127.0.0.1:8089/api/v1", u.String())
	}

	if _, err := parseBaseURL("https://"); err == nil {
		t.Fatalf("parseBaseURL with no host returned nil error")
	}
}

func newBuilder(t *testing.T, tokens TokenStore) *RequestBuilder {
	t.Helper()
	base, err := parseBaseURL(SandboxHost)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	return NewRequestBuilder(base, tokens)
}

func TestRequestBuilder_URLInterpolatesDecimalIDs(t *testing.T) {
	b := newBuilder(t, nil)
	for _, tc := range []struct {
		path string
		want string
	}{
		{radiusPath(42), "https://sandbox.addressable.app/api/v1/radius_mailings/42"},
		{radiusPath(42) + "/" + CoverUpdate{}.pathSuffix(), "https://sandbox.addressable.app/api/v1/radius_mailings/42/cover"},
		{"/campaigns", "https://sandbox.addressable.app/api/v1/campaigns"},
	} {
		u, err := b.URL(tc.path)
		if err != nil {
			t.Fatalf("URL(%q) returned error: %v", tc.path, err)
		}
		if u.String() != tc.want {
			t.Fatalf("URL(%q) = %q, want %q", tc.path, u.String(), tc.want)
		}
	}

	for _, bad := range []string{"campaigns", "/campaigns?x=1", "/a#b"} {
		if _, err := b.URL(bad); err == nil {
			t.Fatalf("URL(%q) returned nil error", bad)
		}
	}
}

func TestRequestBuilder_MethodFollowsIntent(t *testing.T) {
	b := newBuilder(t, keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "tok"}))
	ctx := context.Background()

	for _, tc := range []struct {
		intent Intent
		body   []byte
		method string
	}{
		{Read, nil, http.MethodGet},
		{Create, []byte(`{"a":1}`), http.MethodPost},
		{Modify, []byte(`{"a":1}`), http.MethodPatch},
		{Create, nil, http.MethodPost},
	} {
		req, err := b.Build(ctx, Request{Path: "/campaigns", Intent: tc.intent, Body: tc.body})
		if err != nil {
			t.Fatalf("Build(%v) returned error: %v", tc.intent, err)
		}
		if req.Method != tc.method {
			t.Fatalf("Build(%v) method = %q, want %q", tc.intent, req.Method, tc.method)
		}
		if req.Header.Get("Authorization") != "Basic tok" {
			t.Fatalf("Authorization = %q, want Basic tok", req.Header.Get("Authorization"))
		}
		if tc.body != nil {
			got, _ := io.ReadAll(req.Body)
			if string(got) != string(tc.body) {
				t.Fatalf("body = %q, want %q", got, tc.body)
			}
		}
	}
}

func TestRequestBuilder_RejectsBodyOnRead(t *testing.T) {
	b := newBuilder(t, keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "tok"}))
	_, err := b.Build(context.Background(), Request{Path: "/campaigns", Intent: Read, Body: []byte("{}")})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestRequestBuilder_TokenResolution(t *testing.T) {
	store := keychain.NewMemory(map[string]string{keychain.KeyBasicAuthToken: "stored"})
	b := newBuilder(t, store)

	req, err := b.Build(context.Background(), Request{Path: "/auth", Token: " override "})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Basic override" {
		t.Fatalf("Authorization = %q, want Basic override", got)
	}

	_ = store.Set(keychain.KeyBasicAuthToken, "  ")
	_, err = b.Build(context.Background(), Request{Path: "/auth"})
	if !errors.Is(err, ErrMissingToken) || !errors.Is(err, ErrNetwork) {
		t.Fatalf("blank token error = %v, want missing token network error", err)
	}

	_, err = newBuilder(t, nil).Build(context.Background(), Request{Path: "/auth"})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("nil store error = %v, want ErrMissingToken", err)
	}
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, keychain.ErrClosed }

func TestRequestBuilder_StoreErrorIsMissingToken(t *testing.T) {
	_, err := newBuilder(t, failingStore{}).Build(context.Background(), Request{Path: "/auth"})
	if !errors.Is(err, ErrMissingToken) || !errors.Is(err, keychain.ErrClosed) {
		t.Fatalf("error = %v, want ErrMissingToken wrapping ErrClosed", err)
	}
}

func TestRequest_Op(t *testing.T) {
	r := Request{Path: "/radius_mailings/7/cover", Intent: Modify}
	if r.Op() != "PATCH /radius_mailings/7/cover" {
		t.Fatalf("Op = %q", r.Op())
	}
}
