package addressable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/five82/addressable/internal/keychain"
)

// apiPrefix is prepended to every operation path.
const apiPrefix = "/api/v1"

// Intent selects the HTTP method. A request has exactly one intent, so it can
// never ask to both create and modify.
type Intent int

const (
	Read Intent = iota
	Create
	Modify
)

// Method returns GET, POST or PATCH.
func (i Intent) Method() string {
	switch i {
	case Create:
		return http.MethodPost
	case Modify:
		return http.MethodPatch
	default:
		return http.MethodGet
	}
}

// Request describes one API call before it is bound to an origin.
type Request struct {
	Path   string
	Intent Intent
	// Body holds pre-serialized JSON. It must be nil for Read.
	Body []byte
	// Token overrides the stored token when non-empty.
	Token string
}

// Op names the request for errors and logs, e.g. "PATCH /radius_mailings/7/cover".
func (r Request) Op() string {
	return r.Intent.Method() + " " + r.Path
}

// TokenStore is the read side of the keychain the client needs.
type TokenStore interface {
	Get(key string) (string, bool, error)
}

// RequestBuilder turns Requests into *http.Request values against one origin.
type RequestBuilder struct {
	base   *url.URL
	tokens TokenStore
}

// NewRequestBuilder returns a builder rooted at base, which must already carry
// the api prefix path.
func NewRequestBuilder(base *url.URL, tokens TokenStore) *RequestBuilder {
	return &RequestBuilder{base: base, tokens: tokens}
}

// BaseURL returns scheme://host/api/v1.
func (b *RequestBuilder) BaseURL() string {
	return b.base.String()
}

// URL resolves an operation path against the base.
func (b *RequestBuilder) URL(path string) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, "?#") {
		return nil, fmt.Errorf("couldn't create URL for path %q", path)
	}
	u := *b.base
	u.Path = strings.TrimRight(b.base.Path, "/") + path
	u.RawPath = ""
	return &u, nil
}

// Build produces the HTTP request. A missing token, bad path or body on a
// read yields an ErrNetwork error without touching the network.
func (b *RequestBuilder) Build(ctx context.Context, r Request) (*http.Request, error) {
	op := r.Op()
	if r.Intent == Read && r.Body != nil {
		return nil, networkError(op, fmt.Errorf("read request cannot carry a body"))
	}

	u, err := b.URL(r.Path)
	if err != nil {
		return nil, networkError(op, err)
	}

	token, err := b.token(r.Token)
	if err != nil {
		return nil, networkError(op, err)
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Intent.Method(), u.String(), body)
	if err != nil {
		return nil, networkError(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+token)
	return req, nil
}

func (b *RequestBuilder) token(override string) (string, error) {
	if t := strings.TrimSpace(override); t != "" {
		return t, nil
	}
	if b.tokens == nil {
		return "", ErrMissingToken
	}
	token, ok, err := b.tokens.Get(keychain.KeyBasicAuthToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingToken, err)
	}
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// parseBaseURL accepts an origin such as "live.addressable.app" or
// "http://127.0.0.1:8089" and returns it with the api prefix as its path.
func parseBaseURL(origin string) (*url.URL, error) {
	trimmed := strings.TrimSpace(origin)
	if trimmed == "" {
		trimmed = defaultHost
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", origin, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse origin %q: missing host", origin)
	}
	u.Path = apiPrefix
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
