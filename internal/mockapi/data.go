package mockapi

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/five82/addressable/internal/addressable"
)

// Data is the server's in-memory state.
type Data struct {
	User          addressable.User
	Account       addressable.Account
	Mailings      map[int]*addressable.Mailing
	Leads         []addressable.IncomingLead
	Messages      map[int][]addressable.LeadMessage
	Templates     map[int]*addressable.MessageTemplate
	Topics        []addressable.MultiTouchTopic
	Covers        []addressable.LayoutTemplate
	ReturnAddress addressable.ReturnAddress
	Recipients    map[int][]addressable.Recipient
	Uploads       []addressable.ListUpload
	Removals      []addressable.Removal
	Criteria      json.RawMessage
}

func ptr[T any](v T) *T { return &v }

// Seed returns the demo data set.
func Seed(email string) *Data {
	accountID := 9
	ret := addressable.ReturnAddress{
		FromFirstName:    "Dana",
		FromLastName:     "Reyes",
		FromBusinessName: "Reyes Realty",
		FromAddressLine1: "200 W Liberty St",
		FromCity:         "Reno",
		FromState:        "NV",
		FromZipcode:      "89501",
	}
	user := addressable.User{
		ID:                  3,
		AccountID:           ptr(accountID),
		FirstName:           ptr("Dana"),
		LastName:            ptr("Reyes"),
		Email:               ptr(email),
		AuthenticationToken: "demo-auth-token",
	}
	account := addressable.Account{
		ID:               accountID,
		Name:             ptr("Reyes Realty"),
		RadiusTokenCount: ptr(40),
		TokenCount:       ptr(120),
	}
	ref := &addressable.Account{ID: accountID}
	owner := &addressable.User{ID: user.ID, AuthenticationToken: user.AuthenticationToken}

	mailed := &addressable.Mailing{
		ID: 101, Account: ref, User: owner, FromAddress: &ret,
		Name: "Spring Open House", MailingStatus: addressable.StateMailed,
		ListCount: 250, TargetQuantity: 250, ActiveRecipientCount: 240,
		LayoutTemplate: &addressable.LayoutTemplate{ID: 1},
		ListStatus:     ptr(addressable.ListComplete),
		TargetDropDate: ptr("2026-04-02"),
		SubjectListEntry: &addressable.SubjectListEntry{
			ID: 501, SiteAddressLine1: "14 Arlington Ave", SiteCity: "Reno", SiteState: "NV", SiteZipcode: "89501",
		},
	}
	scheduled := &addressable.Mailing{
		ID: 102, Account: ref, User: owner, FromAddress: &ret,
		Name: "Just Sold: Plumas St", MailingStatus: addressable.StateScheduled,
		ListCount: 180, TargetQuantity: 200, ActiveRecipientCount: 172,
		LayoutTemplate: &addressable.LayoutTemplate{ID: 2},
		ListStatus:     ptr(addressable.ListComplete),
		TargetDropDate: ptr("2026-11-03"),
		SubjectListEntry: &addressable.SubjectListEntry{
			ID: 502, SiteAddressLine1: "880 Plumas St", SiteCity: "Reno", SiteState: "NV", SiteZipcode: "89509",
		},
	}
	draft := &addressable.Mailing{
		ID: 103, Account: ref, User: owner, FromAddress: &ret,
		Name: "Radius: Mayberry Dr", MailingStatus: addressable.StateDraft,
		TargetQuantity: 300,
		ListStatus:     ptr(addressable.ListSearching),
		SubjectListEntry: &addressable.SubjectListEntry{
			ID: 503, SiteAddressLine1: "3300 Mayberry Dr", SiteCity: "Reno", SiteState: "NV", SiteZipcode: "89509",
		},
	}

	d := &Data{
		User:          user,
		Account:       account,
		Mailings:      map[int]*addressable.Mailing{101: mailed, 102: scheduled, 103: draft},
		ReturnAddress: ret,
		Recipients:    map[int][]addressable.Recipient{},
		Messages:      map[int][]addressable.LeadMessage{},
		Templates: map[int]*addressable.MessageTemplate{
			1: {ID: 1, Title: "Thank you", Body: "Hi {{first_name}}, thanks for your call!", MergeVars: map[string]*string{"first_name": nil}},
			2: {ID: 2, Title: "Market update", Body: "Homes near you sold for {{avg_price}}.", MergeVars: map[string]*string{"avg_price": ptr("$512k")}},
		},
		Topics: []addressable.MultiTouchTopic{
			{
				ID: 1, Name: "Just Listed", Duration: ptr(30),
				TouchOneTemplate: addressable.TopicTemplate{ID: ptr(11), Body: "A home near you at {{address}} just listed.", MergeVars: map[string]*string{"address": ptr("")}},
				TouchTwoTemplate: addressable.TopicTemplate{Body: "Still thinking about {{address}}?", MergeVars: map[string]*string{"address": ptr("")}},
			},
			{
				ID: 2, Name: "Just Sold", Duration: ptr(21),
				TouchOneTemplate: addressable.TopicTemplate{Body: "We just sold a home near you."},
				TouchTwoTemplate: addressable.TopicTemplate{Body: "Curious what yours is worth?"},
			},
		},
		Covers: []addressable.LayoutTemplate{
			{ID: 1, Name: ptr("Sunset Porch"), ImageURL: ptr("https://cdn.addressable.app/covers/1.png")},
			{ID: 2, Name: ptr("Front Door"), ImageURL: ptr("https://cdn.addressable.app/covers/2.png")},
			{ID: 3, Name: ptr("Keys"), ImageURL: ptr("https://cdn.addressable.app/covers/3.png")},
		},
		Leads: []addressable.IncomingLead{
			{ID: 1, UserID: ptr(3), AccountID: ptr(accountID), FromNumber: "+17755550101", FirstName: ptr("Chris"), Status: addressable.LeadUnknown},
			{ID: 2, UserID: ptr(3), AccountID: ptr(accountID), FromNumber: "+17755550102", FirstName: ptr("Pat"), LastName: ptr("Kim"), Status: addressable.LeadTagged, QualityScore: ptr(3)},
			{ID: 3, UserID: ptr(3), AccountID: ptr(accountID), FromNumber: "+17755550103", Status: addressable.LeadUnknown},
		},
		Uploads: []addressable.ListUpload{
			{ID: 1, CreatedAt: "2026-02-01T17:04:00Z", Name: "Open house sign-ins", Status: addressable.UploadActive, MailingUsage: 2, ActiveCount: 48, CreatedBy: ptr("Dana Reyes")},
		},
		Criteria: json.RawMessage(`{"radius":0.5,"property_types":["single_family"],"owner_occupied":true}`),
	}
	d.Messages[1] = []addressable.LeadMessage{
		{ID: ptr(1), Body: "Saw your card, is the house still available?", IsIncoming: true, CreatedAt: ptr("2026-04-05T15:00:00Z")},
		{ID: ptr(2), Body: "It is! Want to schedule a showing?", IsIncoming: false, CreatedAt: ptr("2026-04-05T15:10:00Z")},
	}
	d.Recipients[101] = buildRecipients(101, 10)
	d.Recipients[102] = buildRecipients(102, 6)
	return d
}

// buildRecipients generates n recipients: mostly members plus one of each
// unavailable kind.
func buildRecipients(mailingID, n int) []addressable.Recipient {
	out := make([]addressable.Recipient, 0, n)
	for i := 0; i < n; i++ {
		m := addressable.MembershipMember
		switch i {
		case n - 1:
			m = addressable.MembershipRejected
		case n - 2:
			m = addressable.MembershipReserved
		}
		out = append(out, addressable.Recipient{
			ID:             mailingID*100 + i,
			FullName:       fmt.Sprintf("Resident %d", i+1),
			ListMembership: m,
			SiteAddress:    fmt.Sprintf("%d Elm St, Reno, NV 89501", 100+i*2),
			MailingAddress: fmt.Sprintf("%d Elm St, Reno, NV 89501", 100+i*2),
		})
	}
	return out
}

func countMembers(rs []addressable.Recipient) int {
	n := 0
	for _, r := range rs {
		if r.ListMembership == addressable.MembershipMember {
			n++
		}
	}
	return n
}

func sortedMailings(m map[int]*addressable.Mailing) []addressable.Mailing {
	out := make([]addressable.Mailing, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
