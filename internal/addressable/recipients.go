package addressable

// Recipient is one address on a mailing's audience list.
type Recipient struct {
	ID             int        `json:"id"`
	FullName       string     `json:"full_name"`
	ListMembership Membership `json:"list_membership"`
	SiteAddress    string     `json:"site_address"`
	MailingAddress string     `json:"mailing_address"`
}

// RecipientsResponse mirrors /radius_mailings/{id}/recipients.
type RecipientsResponse struct {
	Recipients []Recipient `json:"recipients"`
}

// RecipientTab is a filter over a recipient list.
type RecipientTab int

const (
	TabAll RecipientTab = iota
	TabMailingList
	TabRemoved
	TabUnavailable
)

func (t RecipientTab) String() string {
	switch t {
	case TabMailingList:
		return "Mailing List"
	case TabRemoved:
		return "Removed"
	case TabUnavailable:
		return "Unavailable"
	default:
		return "All"
	}
}

// RecipientTabs lists the tabs in display order.
func RecipientTabs() []RecipientTab {
	return []RecipientTab{TabAll, TabMailingList, TabRemoved, TabUnavailable}
}

// Includes reports whether a recipient with membership m belongs on the tab.
func (t RecipientTab) Includes(m Membership) bool {
	switch t {
	case TabMailingList:
		return m == MembershipMember
	case TabRemoved:
		return m == MembershipRemoved
	case TabUnavailable:
		return m == MembershipRejected || m == MembershipReserved
	default:
		return true
	}
}

// FilterRecipients returns the recipients shown on tab.
func FilterRecipients(rs []Recipient, tab RecipientTab) []Recipient {
	out := make([]Recipient, 0, len(rs))
	for _, r := range rs {
		if tab.Includes(r.ListMembership) {
			out = append(out, r)
		}
	}
	return out
}

// ListEntry is the server record behind a recipient.
type ListEntry struct {
	ID                int        `json:"id"`
	Status            *string    `json:"status,omitempty"`
	ListMembership    Membership `json:"list_membership,omitempty"`
	ToAddress         *string    `json:"to_address,omitempty"`
	FirstName         *string    `json:"first_name,omitempty"`
	LastName          *string    `json:"last_name,omitempty"`
	SecondFirstName   *string    `json:"second_first_name,omitempty"`
	SecondLastName    *string    `json:"second_last_name,omitempty"`
	AddressLine1      string     `json:"address_line_1"`
	AddressLine2      *string    `json:"address_line_2,omitempty"`
	City              *string    `json:"city,omitempty"`
	State             *string    `json:"state,omitempty"`
	Zipcode           *string    `json:"zipcode,omitempty"`
	ZipLastFour       *string    `json:"zip_last_four,omitempty"`
	DeliveryPointCode *string    `json:"delivery_point_code,omitempty"`
}

// ListEntryStatusRequest changes a recipient's membership.
type ListEntryStatusRequest struct {
	ListMembership Membership `json:"list_membership"`
}

// ListEntryResponse mirrors PATCH /list_entries/{id}.
type ListEntryResponse struct {
	ListEntry *ListEntry `json:"list_entry"`
}

// Removal is a permanent do-not-mail record created from a list entry.
type Removal struct {
	ID           int     `json:"id"`
	AddressLine1 *string `json:"address_line_1,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zipcode      *string `json:"zipcode,omitempty"`
}

// RemovalResponse mirrors the create_removal_from_list_entry endpoint.
type RemovalResponse struct {
	Removal *Removal `json:"removal"`
}

// ListUpload is an uploaded audience batch.
type ListUpload struct {
	ID           int              `json:"id"`
	CreatedAt    string           `json:"created_at"`
	Name         string           `json:"name"`
	Status       ListUploadStatus `json:"status"`
	MailingUsage int              `json:"mailing_usage"`
	ActiveCount  int              `json:"active_count"`
	CreatedBy    *string          `json:"created_by,omitempty"`
}

// ListUploadWrapper is the per-item envelope of /list_uploads.
type ListUploadWrapper struct {
	ListUpload ListUpload `json:"list_upload"`
}

// ListUploadsResponse mirrors /list_uploads.
type ListUploadsResponse struct {
	ListUploads []ListUploadWrapper `json:"list_uploads"`
}

// Uploads unwraps the response.
func (r ListUploadsResponse) Uploads() []ListUpload {
	out := make([]ListUpload, 0, len(r.ListUploads))
	for _, w := range r.ListUploads {
		out = append(out, w.ListUpload)
	}
	return out
}
