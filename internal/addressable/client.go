package addressable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/five82/addressable/internal/logging"
)

const (
	defaultHost      = "live.addressable.app"
	SandboxHost      = "sandbox.addressable.app"
	defaultUserAgent = "addressable/0.1"
	requestTimeout   = 10 * time.Second
)

// API is the full set of server operations. *Client implements it; view
// models and the wizard depend on the interface so tests can substitute a
// fake.
type API interface {
	Authenticate(ctx context.Context, basicToken string) (*User, error)
	MobileLogin(ctx context.Context, deviceID string) (*MobileToken, error)
	MobileLogout(ctx context.Context) (*LogoutResponse, error)

	Campaigns(ctx context.Context) ([]Mailing, error)
	IncomingLeads(ctx context.Context) ([]IncomingLead, error)
	TagIncomingLead(ctx context.Context, id int, tag LeadTag) (*IncomingLead, error)
	IncomingLeadsWithMessages(ctx context.Context) ([]IncomingLead, error)
	LeadMessages(ctx context.Context, leadID int) (*LeadMessagesResponse, error)
	SendLeadMessage(ctx context.Context, msg OutgoingMessage) (*LeadMessagesResponse, error)

	MessageTemplates(ctx context.Context) ([]MessageTemplate, error)
	MessageTemplate(ctx context.Context, id int) (*MessageTemplate, error)
	CreateMessageTemplate(ctx context.Context, t NewMessageTemplate) (*MessageTemplate, error)
	UpdateMessageTemplate(ctx context.Context, id int, t NewMessageTemplate) (*MessageTemplate, error)
	MultiTouchTopics(ctx context.Context) ([]MultiTouchTopic, error)

	CoverImages(ctx context.Context) ([]LayoutTemplate, error)
	ReturnAddress(ctx context.Context) (*ReturnAddress, error)
	SendCustomNote(ctx context.Context, note CustomNote) (*CustomNoteResponse, error)

	CreateRadiusMailing(ctx context.Context, site SiteRequest) (*Mailing, error)
	RadiusMailing(ctx context.Context, id int) (*Mailing, error)
	UpdateRadiusMailing(ctx context.Context, id int, component Component) (*Mailing, error)
	UpdateMailingStatus(ctx context.Context, id int, state MailingState) (*Mailing, error)
	Recipients(ctx context.Context, mailingID int) ([]Recipient, error)
	UpdateListEntry(ctx context.Context, id int, membership Membership) (*ListEntry, error)
	CreateRemoval(ctx context.Context, accountID, recipientID int) (*Removal, error)
	DefaultSearchCriteria(ctx context.Context) (DataTreeSearchCriteria, error)
	Account(ctx context.Context, id int) (*Account, error)
	ListUploads(ctx context.Context) ([]ListUpload, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the Addressable REST API.
type Client struct {
	builder   *RequestBuilder
	http      *http.Client
	userAgent string
	log       logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTransport sets the round tripper, e.g. an instrumented one. A client
// passed to WithHTTPClient is copied, never changed.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Transport = rt
		c.http = &hc
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for origin, e.g. "live.addressable.app" or
// "http://127.0.0.1:8089". Tokens are read from tokens on every call.
func NewClient(origin string, tokens TokenStore, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(origin)
	if err != nil {
		return nil, err
	}
	c := &Client{
		builder:   NewRequestBuilder(base, tokens),
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.builder.BaseURL()
}

// send marshals payload, when non-nil, and performs the request.
func (c *Client) send(ctx context.Context, path string, intent Intent, payload, dest any) error {
	r := Request{Path: path, Intent: intent}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return networkError(r.Op(), fmt.Errorf("encode request: %w", err))
		}
		r.Body = body
	}
	return c.do(ctx, r, dest)
}

func (c *Client) do(ctx context.Context, r Request, dest any) error {
	if c == nil {
		return networkError(r.Op(), fmt.Errorf("client is nil"))
	}
	op := r.Op()
	req, err := c.builder.Build(ctx, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "api request failed", "op", op, "error", err)
		return networkError(op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug(ctx, "api request", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return parsingError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// missingEnvelope reports a well-formed body that lacks the expected key.
func missingEnvelope(intent Intent, path, key string) error {
	return parsingError(Request{Path: path, Intent: intent}.Op(), fmt.Errorf("response missing %q", key))
}
