package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/five82/addressable/internal/addressable"
)

const generatedAudience = 12

func (s *Server) handleCreateMailing(w http.ResponseWriter, r *http.Request) {
	var site addressable.SiteRequest
	if !decodeBody(w, r, &site) {
		return
	}
	if site.SubjectListEntry.SiteAddressLine1 == "" {
		sendError(w, http.StatusUnprocessableEntity, "site_address_line_1 required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ret := s.data.ReturnAddress
	m := &addressable.Mailing{
		ID:             s.nextID,
		Account:        &addressable.Account{ID: s.data.Account.ID},
		User:           &addressable.User{ID: s.data.User.ID, AuthenticationToken: s.data.User.AuthenticationToken},
		FromAddress:    &ret,
		Name:           "Radius: " + site.SubjectListEntry.SiteAddressLine1,
		MailingStatus:  addressable.StateDraft,
		TargetQuantity: 300,
		ListStatus:     ptr(addressable.ListSearching),
	}
	s.applySiteLocked(m, site)
	s.data.Mailings[m.ID] = m
	sendJSON(w, http.StatusCreated, addressable.RadiusMailingResponse{RadiusMailing: copyMailing(m)})
}

func (s *Server) applySiteLocked(m *addressable.Mailing, site addressable.SiteRequest) {
	e := site.SubjectListEntry
	s.nextID++
	m.SubjectListEntry = &addressable.SubjectListEntry{
		ID:               s.nextID,
		SiteAddressLine1: e.SiteAddressLine1,
		SiteAddressLine2: nonEmpty(e.SiteAddressLine2),
		SiteCity:         e.SiteCity,
		SiteState:        e.SiteState,
		SiteZipcode:      e.SiteZipcode,
		Status:           nonEmpty(e.Status),
	}
	m.ListStatus = ptr(addressable.ListSearching)
	m.ListCount = 0
	m.ActiveRecipientCount = 0
	delete(s.data.Recipients, m.ID)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyMailing(m *addressable.Mailing) *addressable.Mailing {
	c := *m
	return &c
}

func (s *Server) mailingLocked(w http.ResponseWriter, r *http.Request) (*addressable.Mailing, bool) {
	id, ok := intParam(r, "id")
	if ok {
		if m, found := s.data.Mailings[id]; found {
			return m, true
		}
	}
	sendError(w, http.StatusNotFound, "mailing not found")
	return nil, false
}

func (s *Server) handleMailing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mailingLocked(w, r)
	if !ok {
		return
	}
	if s.opts.AutoAdvanceList {
		s.advanceListLocked(m)
	}
	sendJSON(w, http.StatusOK, addressable.RadiusMailingResponse{RadiusMailing: copyMailing(m)})
}

// advanceListLocked moves the audience pipeline one stage forward.
func (s *Server) advanceListLocked(m *addressable.Mailing) {
	switch m.List() {
	case addressable.ListNew:
		m.ListStatus = ptr(addressable.ListSearching)
	case addressable.ListSearching:
		m.ListStatus = ptr(addressable.ListExporting)
	case addressable.ListExporting:
		m.ListStatus = ptr(addressable.ListIngesting)
	case addressable.ListIngesting:
		s.completeListLocked(m)
	}
}

func (s *Server) completeListLocked(m *addressable.Mailing) {
	rs := buildRecipients(m.ID, generatedAudience)
	s.data.Recipients[m.ID] = rs
	m.ListStatus = ptr(addressable.ListComplete)
	m.ListCount = len(rs)
	m.ActiveRecipientCount = countMembers(rs)
}

type coverBody struct {
	Cover struct {
		LayoutTemplateID int `json:"layout_template_id"`
	} `json:"cover"`
}

type topicBody struct {
	Topic struct {
		MultiTouchTopicID int `json:"multi_touch_topic_id"`
	} `json:"topic"`
	TopicTemplate struct {
		TemplateOneBody string `json:"template_one_body"`
		TemplateTwoBody string `json:"template_two_body"`
	} `json:"topic_template"`
	MergeVars map[string]string `json:"merge_vars"`
}

type targetDateBody struct {
	RadiusMailing struct {
		TargetDropDate *string `json:"target_drop_date"`
	} `json:"radius_mailing"`
}

type fromAddressBody struct {
	RadiusMailing addressable.ReturnAddress `json:"radius_mailing"`
}

func (s *Server) handleUpdateMailing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mailingLocked(w, r)
	if !ok {
		return
	}

	switch chi.URLParam(r, "component") {
	case "subject_address":
		var site addressable.SiteRequest
		if !decodeBody(w, r, &site) {
			return
		}
		s.applySiteLocked(m, site)

	case "cover":
		var body coverBody
		if !decodeBody(w, r, &body) {
			return
		}
		var found *addressable.LayoutTemplate
		for i := range s.data.Covers {
			if s.data.Covers[i].ID == body.Cover.LayoutTemplateID {
				c := s.data.Covers[i]
				found = &c
			}
		}
		if found == nil {
			sendError(w, http.StatusUnprocessableEntity, "unknown layout template")
			return
		}
		m.LayoutTemplate = found

	case "topic":
		var body topicBody
		if !decodeBody(w, r, &body) {
			return
		}
		var topic *addressable.MultiTouchTopic
		for i := range s.data.Topics {
			if s.data.Topics[i].ID == body.Topic.MultiTouchTopicID {
				topic = &s.data.Topics[i]
			}
		}
		if topic == nil {
			sendError(w, http.StatusUnprocessableEntity, "unknown topic")
			return
		}
		for name, v := range body.MergeVars {
			if v == "" {
				sendError(w, http.StatusUnprocessableEntity, "merge var "+name+" empty")
				return
			}
		}
		m.TopicSelectionID = ptr(topic.ID)
		m.TopicDuration = topic.Duration
		m.CustomNoteBody = ptr(body.TopicTemplate.TemplateOneBody)
		m.CustomNoteTemplateID = nil
		if id := topic.TouchOneTemplate.ID; id != nil {
			m.CustomNoteTemplateID = ptr(*id)
		}

	case "list":
		if m.List() != addressable.ListComplete {
			sendError(w, http.StatusUnprocessableEntity, "list not ready")
			return
		}
		m.MailingStatus = addressable.StateListApproved
		if m.RelatedMailing == nil {
			s.createTouchTwoLocked(m)
		}

	case "target_date":
		var body targetDateBody
		if !decodeBody(w, r, &body) {
			return
		}
		if date := body.RadiusMailing.TargetDropDate; date != nil {
			if _, err := addressable.ParseDropDate(*date); err != nil {
				sendError(w, http.StatusUnprocessableEntity, "target_drop_date must be yyyy-mm-dd")
				return
			}
		}
		balance := s.data.Account.RadiusTokens()
		if balance < m.ActiveRecipientCount {
			sendError(w, http.StatusPaymentRequired, "insufficient radius tokens")
			return
		}
		s.data.Account.RadiusTokenCount = ptr(balance - m.ActiveRecipientCount)
		m.TargetDropDate = body.RadiusMailing.TargetDropDate
		m.MailingStatus = addressable.StateScheduled

	case "from_address":
		var body fromAddressBody
		if !decodeBody(w, r, &body) {
			return
		}
		ret := body.RadiusMailing
		m.FromAddress = &ret

	case "status":
		var body addressable.MailingStatusRequest
		if !decodeBody(w, r, &body) {
			return
		}
		if !body.MailingStatus.IsKnown() {
			sendError(w, http.StatusUnprocessableEntity, "unknown mailing_status")
			return
		}
		m.MailingStatus = body.MailingStatus

	default:
		sendError(w, http.StatusNotFound, "unknown component")
		return
	}

	sendJSON(w, http.StatusOK, addressable.RadiusMailingResponse{RadiusMailing: copyMailing(m)})
}

// createTouchTwoLocked adds the follow-up mailing of a two-touch sequence.
// The first touch points at a related mailing that has a parent; the second
// points back at one that does not.
func (s *Server) createTouchTwoLocked(m *addressable.Mailing) {
	s.nextID++
	two := copyMailing(m)
	two.ID = s.nextID
	two.Name = m.Name + " (Touch 2)"
	two.MailingStatus = addressable.StateDraft
	two.TargetDropDate = nil
	two.RelatedMailing = &addressable.RelatedMailing{ID: m.ID, Name: ptr(m.Name)}
	s.data.Mailings[two.ID] = two

	parent := m.ID
	m.RelatedMailing = &addressable.RelatedMailing{ID: two.ID, Name: ptr(two.Name), ParentMailingID: &parent}
}

func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mailingLocked(w, r)
	if !ok {
		return
	}
	rs := append([]addressable.Recipient{}, s.data.Recipients[m.ID]...)
	sendJSON(w, http.StatusOK, addressable.RecipientsResponse{Recipients: rs})
}

// findRecipientLocked returns the mailing id and index of recipient id.
func (s *Server) findRecipientLocked(id int) (int, int, bool) {
	for mailingID, rs := range s.data.Recipients {
		for i := range rs {
			if rs[i].ID == id {
				return mailingID, i, true
			}
		}
	}
	return 0, 0, false
}

func (s *Server) setMembershipLocked(mailingID, idx int, membership addressable.Membership) addressable.Recipient {
	rs := s.data.Recipients[mailingID]
	rs[idx].ListMembership = membership
	if m, ok := s.data.Mailings[mailingID]; ok {
		m.ActiveRecipientCount = countMembers(rs)
	}
	return rs[idx]
}

func (s *Server) handleListEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := intParam(r, "id")
	var body addressable.ListEntryStatusRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.ListMembership.IsKnown() {
		sendError(w, http.StatusUnprocessableEntity, "unknown list_membership")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mailingID, idx, ok := s.findRecipientLocked(id)
	if !ok {
		sendError(w, http.StatusNotFound, "list entry not found")
		return
	}
	rec := s.setMembershipLocked(mailingID, idx, body.ListMembership)
	sendJSON(w, http.StatusOK, addressable.ListEntryResponse{ListEntry: &addressable.ListEntry{
		ID:             rec.ID,
		ListMembership: rec.ListMembership,
		ToAddress:      ptr(rec.FullName),
		AddressLine1:   rec.SiteAddress,
	}})
}

func (s *Server) handleRemoval(w http.ResponseWriter, r *http.Request) {
	aid, _ := intParam(r, "aid")
	rid, _ := intParam(r, "rid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if aid != s.data.Account.ID {
		sendError(w, http.StatusNotFound, "account not found")
		return
	}
	mailingID, idx, ok := s.findRecipientLocked(rid)
	if !ok {
		sendError(w, http.StatusNotFound, "list entry not found")
		return
	}
	rec := s.setMembershipLocked(mailingID, idx, addressable.MembershipRemoved)
	s.nextID++
	removal := addressable.Removal{ID: s.nextID, AddressLine1: ptr(rec.SiteAddress)}
	s.data.Removals = append(s.data.Removals, removal)
	sendJSON(w, http.StatusOK, addressable.RemovalResponse{Removal: &removal})
}

// SetListStatus forces a mailing's audience list status. Completing it
// generates recipients.
func (s *Server) SetListStatus(id int, status addressable.ListStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.Mailings[id]
	if !ok {
		return
	}
	if status == addressable.ListComplete {
		s.completeListLocked(m)
		return
	}
	m.ListStatus = ptr(status)
}

// SetRadiusTokens sets the account's radius token balance.
func (s *Server) SetRadiusTokens(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Account.RadiusTokenCount = ptr(n)
}

// SetCovers replaces the cover art options.
func (s *Server) SetCovers(covers []addressable.LayoutTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Covers = covers
}

// Mailing returns a copy of mailing id.
func (s *Server) Mailing(id int) (addressable.Mailing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.Mailings[id]
	if !ok {
		return addressable.Mailing{}, false
	}
	return *m, true
}

// Lead returns a copy of lead id.
func (s *Server) Lead(id int) (addressable.IncomingLead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.data.Leads {
		if l.ID == id {
			return l, true
		}
	}
	return addressable.IncomingLead{}, false
}

// CustomNotes returns the notes ordered so far.
func (s *Server) CustomNotes() []addressable.CustomNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]addressable.CustomNote(nil), s.notes...)
}

// Dump encodes the whole state, for the mock-server debug endpoint.
func (s *Server) Dump() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.data, "", "  ")
}
