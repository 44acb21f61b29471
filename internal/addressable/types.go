package addressable

import (
	"encoding/json"
	"time"
)

// DropDateLayout is the wire format of target drop dates.
const DropDateLayout = "2006-01-02"

// Account is the paying organisation a user belongs to. Mailings embed only
// the id; the accounts endpoint fills in balances and team members.
type Account struct {
	ID               int           `json:"id"`
	Name             *string       `json:"name,omitempty"`
	RadiusTokenCount *int          `json:"radius_token_count,omitempty"`
	TokenCount       *int          `json:"token_count,omitempty"`
	Users            []AccountUser `json:"users,omitempty"`
}

// RadiusTokens returns the radius token balance, zero when absent.
func (a Account) RadiusTokens() int {
	if a.RadiusTokenCount == nil {
		return 0
	}
	return *a.RadiusTokenCount
}

// AccountUser is a team member listed on an account.
type AccountUser struct {
	ID        int     `json:"id"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// User is the signed-in user as returned by /auth and embedded in mailings.
type User struct {
	ID                  int     `json:"id"`
	AccountID           *int    `json:"account_id,omitempty"`
	FirstName           *string `json:"first_name,omitempty"`
	LastName            *string `json:"last_name,omitempty"`
	Email               *string `json:"email,omitempty"`
	AuthenticationToken string  `json:"authentication_token"`
}

// AuthorizedUserResponse mirrors /auth.
type AuthorizedUserResponse struct {
	User *User `json:"user"`
}

// MobileLoginRequest is the body of /auth/mobile_login.
type MobileLoginRequest struct {
	DeviceID string `json:"device_id"`
}

// MobileToken is the access token issued for a registered device.
type MobileToken struct {
	JWTToken string  `json:"jwt_token"`
	Identity *string `json:"identity,omitempty"`
}

// LogoutResponse mirrors /auth/mobile_logout.
type LogoutResponse struct {
	Status *string `json:"status,omitempty"`
}

// ReturnAddress is the sender identity printed on a mailing.
type ReturnAddress struct {
	FromFirstName    string `json:"from_first_name"`
	FromLastName     string `json:"from_last_name"`
	FromBusinessName string `json:"from_business_name"`
	FromAddressLine1 string `json:"from_address_line_1"`
	FromAddressLine2 string `json:"from_address_line_2"`
	FromCity         string `json:"from_city"`
	FromState        string `json:"from_state"`
	FromZipcode      string `json:"from_zipcode"`
}

// LayoutTemplate is a cover art option for a card.
type LayoutTemplate struct {
	ID       int     `json:"id"`
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

// LayoutTemplatesResponse mirrors /layout_templates.
type LayoutTemplatesResponse struct {
	LayoutTemplates []LayoutTemplate `json:"layout_templates"`
}

// SubjectListEntry is the seed location a radius mailing targets around.
type SubjectListEntry struct {
	ID                  int     `json:"id"`
	FirstName           *string `json:"first_name,omitempty"`
	LastName            *string `json:"last_name,omitempty"`
	MailingAddressLine1 *string `json:"mailing_address_line_1,omitempty"`
	MailingAddressLine2 *string `json:"mailing_address_line_2,omitempty"`
	MailingCity         *string `json:"mailing_city,omitempty"`
	MailingState        *string `json:"mailing_state,omitempty"`
	MailingZipcode      *string `json:"mailing_zipcode,omitempty"`
	SiteAddressLine1    string  `json:"site_address_line_1"`
	SiteAddressLine2    *string `json:"site_address_line_2,omitempty"`
	SiteCity            string  `json:"site_city"`
	SiteState           string  `json:"site_state"`
	SiteZipcode         string  `json:"site_zipcode"`
	Status              *string `json:"status,omitempty"`
}

// DataTreeSearchCriteria is the audience search definition. The client
// never interprets it, so it is carried as raw JSON.
type DataTreeSearchCriteria = json.RawMessage

// DataTreeSearchResponse mirrors /data_tree_search/default_criteria.
type DataTreeSearchResponse struct {
	DataTreeSearch DataTreeSearchCriteria `json:"data_tree_search"`
}

// AccountResponse mirrors /accounts/{id}.
type AccountResponse struct {
	Account *Account `json:"account"`
}

// FormatDropDate renders t in the wire date format.
func FormatDropDate(t time.Time) string {
	return t.Format(DropDateLayout)
}

// ParseDropDate parses a wire date.
func ParseDropDate(s string) (time.Time, error) {
	return time.Parse(DropDateLayout, s)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
