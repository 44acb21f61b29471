package addressable

import (
	"strings"
	"time"
)

// Mailing is a direct-mail campaign. The campaigns list and the radius
// mailing endpoints share this shape; fields only the latter returns are
// optional.
type Mailing struct {
	ID                        int               `json:"id"`
	Account                   *Account          `json:"account,omitempty"`
	User                      *User             `json:"user,omitempty"`
	FromAddress               *ReturnAddress    `json:"from_address,omitempty"`
	Name                      string            `json:"name"`
	Type                      *string           `json:"type,omitempty"`
	MailingStatus             MailingState      `json:"mailing_status"`
	ListCount                 int               `json:"list_count"`
	TargetQuantity            int               `json:"target_quantity"`
	ActiveRecipientCount      int               `json:"active_recipient_count"`
	LayoutTemplate            *LayoutTemplate   `json:"layout_template,omitempty"`
	RadiusTemplateID          *int              `json:"radius_template_id,omitempty"`
	CustomNoteTemplateID      *int              `json:"custom_note_template_id,omitempty"`
	CustomNoteBody            *string           `json:"custom_note_body,omitempty"`
	RelatedMailing            *RelatedMailing   `json:"corresponding_mailing,omitempty"`
	SubjectListEntry          *SubjectListEntry `json:"subject_list_entry,omitempty"`
	TopicDuration             *int              `json:"topic_duration,omitempty"`
	TopicSelectionID          *int              `json:"selected_multi_touch_topic_id,omitempty"`
	ListStatus                *ListStatus       `json:"list_status,omitempty"`
	TargetDropDate            *string           `json:"target_drop_date,omitempty"`
	EnvelopeOutsidePreviewURL *string           `json:"envelope_outside_preview_url,omitempty"`
	PreviewCardFrontURL       *string           `json:"preview_card_front_url,omitempty"`
	CardInsidePreviewURL      *string           `json:"card_inside_preview_url,omitempty"`
	PreviewCardBackURL        *string           `json:"preview_card_back_url,omitempty"`
}

// RelatedMailing links the touches of a multi-touch sequence.
type RelatedMailing struct {
	ID              int           `json:"id"`
	Name            *string       `json:"name,omitempty"`
	ParentMailingID *int          `json:"parent_mailing_id,omitempty"`
	MailingStatus   *MailingState `json:"mailing_status,omitempty"`
	TargetDropDate  *string       `json:"target_drop_date,omitempty"`
}

// Campaign is one row of /campaigns. Only mailing campaigns are returned
// today, so Mailing may be nil for kinds the client does not model.
type Campaign struct {
	Mailing *Mailing `json:"mailing,omitempty"`
}

// CampaignsResponse mirrors /campaigns.
type CampaignsResponse struct {
	Campaigns []Campaign `json:"campaigns"`
}

// Mailings returns the mailings among the campaigns.
func (r CampaignsResponse) Mailings() []Mailing {
	out := make([]Mailing, 0, len(r.Campaigns))
	for _, c := range r.Campaigns {
		if c.Mailing != nil {
			out = append(out, *c.Mailing)
		}
	}
	return out
}

// RadiusMailingResponse is the envelope every radius mailing call returns.
type RadiusMailingResponse struct {
	RadiusMailing *Mailing `json:"radius_mailing"`
}

// Status returns the dashboard bucket for the mailing.
func (m Mailing) Status() MailingStatus {
	return m.MailingStatus.Bucket()
}

// List returns the audience list status, or "" when absent.
func (m Mailing) List() ListStatus {
	if m.ListStatus == nil {
		return ""
	}
	return *m.ListStatus
}

// IsCampaign reports whether the mailing counts as its own campaign: either a
// standalone mailing or one whose related mailing points back to a parent.
func (m Mailing) IsCampaign() bool {
	return m.RelatedMailing == nil || m.RelatedMailing.ParentMailingID != nil
}

// IsTouchTwo reports whether the mailing is the second touch of a sequence.
func (m Mailing) IsTouchTwo() bool {
	return m.RelatedMailing != nil && m.RelatedMailing.ParentMailingID == nil
}

// HasLayout reports whether a cover has been chosen.
func (m Mailing) HasLayout() bool {
	return m.LayoutTemplate != nil
}

// HasTopic reports whether a multi-touch topic has been chosen.
func (m Mailing) HasTopic() bool {
	return m.TopicSelectionID != nil
}

// Unready names what the mailing still lacks before it can be sent.
func (m Mailing) Unready() []string {
	var missing []string
	if m.ActiveRecipientCount <= 0 {
		missing = append(missing, "recipients")
	}
	if !m.HasLayout() {
		missing = append(missing, "cover")
	}
	if m.CustomNoteTemplateID == nil || m.CustomNoteBody == nil {
		missing = append(missing, "note")
	}
	return missing
}

// Ready reports whether the mailing has recipients, a cover and a note.
func (m Mailing) Ready() bool { return len(m.Unready()) == 0 }

// DropDate parses TargetDropDate.
func (m Mailing) DropDate() (time.Time, bool) {
	if m.TargetDropDate == nil {
		return time.Time{}, false
	}
	t, err := ParseDropDate(*m.TargetDropDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AccountID returns the owning account id, zero when absent.
func (m Mailing) AccountID() int {
	if m.Account == nil {
		return 0
	}
	return m.Account.ID
}

// SiteAddress formats the subject location on one line.
func (m Mailing) SiteAddress() string {
	e := m.SubjectListEntry
	if e == nil {
		return ""
	}
	parts := []string{e.SiteAddressLine1}
	if line2 := stringValue(e.SiteAddressLine2); line2 != "" {
		parts = append(parts, line2)
	}
	parts = append(parts, strings.TrimSpace(e.SiteCity+", "+e.SiteState+" "+e.SiteZipcode))
	return strings.Join(parts, ", ")
}

// SubjectLocation returns the subject address as a Location, empty when the
// mailing has none.
func (m Mailing) SubjectLocation() Location {
	e := m.SubjectListEntry
	if e == nil {
		return Location{}
	}
	return Location{
		AddressLine1: e.SiteAddressLine1,
		AddressLine2: stringValue(e.SiteAddressLine2),
		City:         e.SiteCity,
		State:        e.SiteState,
		Zipcode:      e.SiteZipcode,
	}
}

// Location is a chosen subject address for a radius mailing.
type Location struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Zipcode      string
	Latitude     string
	Longitude    string
}

// IsEmpty reports whether no address has been entered.
func (l Location) IsEmpty() bool {
	return strings.TrimSpace(l.AddressLine1) == "" &&
		strings.TrimSpace(l.City) == "" &&
		strings.TrimSpace(l.Zipcode) == ""
}

// OutgoingSubjectListEntry is the location body sent when creating or
// relocating a radius mailing.
type OutgoingSubjectListEntry struct {
	SiteAddressLine1 string `json:"site_address_line_1"`
	SiteAddressLine2 string `json:"site_address_line_2"`
	SiteCity         string `json:"site_city"`
	SiteState        string `json:"site_state"`
	SiteZipcode      string `json:"site_zipcode"`
	Latitude         string `json:"latitude"`
	Longitude        string `json:"longitude"`
	Status           string `json:"status"`
}

// SiteRequest wraps a location and the audience criteria to search with.
type SiteRequest struct {
	SubjectListEntry OutgoingSubjectListEntry `json:"subject_list_entry"`
	DataTreeSearch   DataTreeSearchCriteria   `json:"data_tree_search"`
}

// NewSiteRequest builds the body for CreateRadiusMailing and location
// updates. A nil criteria is sent as an empty object.
func NewSiteRequest(loc Location, criteria DataTreeSearchCriteria) SiteRequest {
	if len(criteria) == 0 {
		criteria = DataTreeSearchCriteria("{}")
	}
	return SiteRequest{
		SubjectListEntry: OutgoingSubjectListEntry{
			SiteAddressLine1: strings.TrimSpace(loc.AddressLine1),
			SiteAddressLine2: strings.TrimSpace(loc.AddressLine2),
			SiteCity:         strings.TrimSpace(loc.City),
			SiteState:        strings.TrimSpace(loc.State),
			SiteZipcode:      strings.TrimSpace(loc.Zipcode),
			Latitude:         strings.TrimSpace(loc.Latitude),
			Longitude:        strings.TrimSpace(loc.Longitude),
			Status:           "active",
		},
		DataTreeSearch: criteria,
	}
}

// MailingStatusRequest asks the server to move a mailing to a new state.
type MailingStatusRequest struct {
	MailingStatus MailingState `json:"mailing_status"`
}

// CustomNote is a handwritten note sent to a single recipient.
type CustomNote struct {
	MessageTemplateID *int   `json:"message_template_id,omitempty"`
	Body              string `json:"body"`
	ToFirstName       string `json:"to_first_name"`
	ToLastName        string `json:"to_last_name"`
	ToAddressLine1    string `json:"to_address_line_1"`
	ToAddressLine2    string `json:"to_address_line_2,omitempty"`
	ToCity            string `json:"to_city"`
	ToState           string `json:"to_state"`
	ToZipcode         string `json:"to_zipcode"`
}

// CustomNoteRequest wraps a CustomNote.
type CustomNoteRequest struct {
	CustomNote CustomNote `json:"custom_note"`
}

// CustomNoteReceipt acknowledges an ordered note.
type CustomNoteReceipt struct {
	ID     int     `json:"id"`
	Status *string `json:"status,omitempty"`
}

// CustomNoteResponse mirrors /custom_notes.
type CustomNoteResponse struct {
	CustomNote *CustomNoteReceipt `json:"custom_note"`
}
