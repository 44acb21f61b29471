package mockapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/five82/addressable/internal/addressable"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, ErrorResponse{Error: message})
}

func intParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	return v, err == nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		sendError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user := s.data.User
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, addressable.AuthorizedUserResponse{User: &user})
}

func (s *Server) handleMobileLogin(w http.ResponseWriter, r *http.Request) {
	var req addressable.MobileLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DeviceID == "" {
		sendError(w, http.StatusUnprocessableEntity, "device_id required")
		return
	}
	s.mu.Lock()
	identity := "user_" + strconv.Itoa(s.data.User.ID) + "_" + req.DeviceID
	s.mu.Unlock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   identity,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "sign token")
		return
	}
	sendJSON(w, http.StatusOK, addressable.MobileToken{JWTToken: signed, Identity: &identity})
}

func (s *Server) handleMobileLogout(w http.ResponseWriter, r *http.Request) {
	status := "logged_out"
	sendJSON(w, http.StatusOK, addressable.LogoutResponse{Status: &status})
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	mailings := sortedMailings(s.data.Mailings)
	s.mu.Unlock()
	resp := addressable.CampaignsResponse{Campaigns: make([]addressable.Campaign, 0, len(mailings))}
	for i := range mailings {
		resp.Campaigns = append(resp.Campaigns, addressable.Campaign{Mailing: &mailings[i]})
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIncomingLeads(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	leads := append([]addressable.IncomingLead(nil), s.data.Leads...)
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, leads)
}

type tagBody struct {
	IncomingLead struct {
		Spam         string `json:"spam"`
		QualityScore int    `json:"quality_score"`
		Removal      string `json:"removal"`
	} `json:"incoming_lead"`
}

func (s *Server) handleTagLead(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		sendError(w, http.StatusNotFound, "lead not found")
		return
	}
	var body tagBody
	if !decodeBody(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Leads {
		lead := &s.data.Leads[i]
		if lead.ID != id {
			continue
		}
		switch {
		case body.IncomingLead.Spam == "true":
			lead.Status = addressable.LeadSpam
		case body.IncomingLead.Removal == "1":
			lead.Status = addressable.LeadRemoved
		default:
			lead.Status = addressable.LeadTagged
		}
		score := body.IncomingLead.QualityScore
		lead.QualityScore = &score
		updated := *lead
		sendJSON(w, http.StatusOK, addressable.IncomingLeadResponse{IncomingLead: &updated})
		return
	}
	sendError(w, http.StatusNotFound, "lead not found")
}

func (s *Server) handleLeadsWithMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []addressable.IncomingLead{}
	for _, lead := range s.data.Leads {
		if len(s.data.Messages[lead.ID]) > 0 {
			out = append(out, lead)
		}
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) threadLocked(leadID int) addressable.LeadMessagesResponse {
	resp := addressable.LeadMessagesResponse{LeadMessages: []string{}}
	for _, msg := range s.data.Messages[leadID] {
		raw, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		resp.LeadMessages = append(resp.LeadMessages, string(raw))
	}
	sid := "SM" + strconv.Itoa(leadID)
	resp.MessageSID = &sid
	return resp
}

func (s *Server) handleLeadMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		sendError(w, http.StatusNotFound, "lead not found")
		return
	}
	s.mu.Lock()
	resp := s.threadLocked(id)
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var msg addressable.OutgoingMessage
	if !decodeBody(w, r, &msg) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	s.data.Messages[msg.IncomingLeadID] = append(s.data.Messages[msg.IncomingLeadID], addressable.LeadMessage{
		ID: ptr(s.nextID), Body: msg.Body, CreatedAt: &now, MessageSID: msg.MessageSID,
	})
	sendJSON(w, http.StatusOK, s.threadLocked(msg.IncomingLeadID))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]addressable.MessageTemplate, 0, len(s.data.Templates))
	for _, t := range s.data.Templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sendJSON(w, http.StatusOK, addressable.MessageTemplatesResponse{MessageTemplates: out})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id, _ := intParam(r, "id")
	s.mu.Lock()
	t, ok := s.data.Templates[id]
	var copied addressable.MessageTemplate
	if ok {
		copied = *t
	}
	s.mu.Unlock()
	if !ok {
		sendError(w, http.StatusNotFound, "template not found")
		return
	}
	sendJSON(w, http.StatusOK, addressable.MessageTemplateResponse{MessageTemplate: &copied})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req addressable.MessageTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.nextID++
	t := &addressable.MessageTemplate{ID: s.nextID, Title: req.MessageTemplate.Title, Body: req.MessageTemplate.Body}
	s.data.Templates[t.ID] = t
	copied := *t
	s.mu.Unlock()
	sendJSON(w, http.StatusCreated, addressable.MessageTemplateResponse{MessageTemplate: &copied})
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, _ := intParam(r, "id")
	var req addressable.MessageTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.Templates[id]
	if !ok {
		sendError(w, http.StatusNotFound, "template not found")
		return
	}
	t.Title = req.MessageTemplate.Title
	t.Body = req.MessageTemplate.Body
	copied := *t
	sendJSON(w, http.StatusOK, addressable.MessageTemplateResponse{MessageTemplate: &copied})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	topics := append([]addressable.MultiTouchTopic(nil), s.data.Topics...)
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, addressable.MultiTouchTopicsResponse{MultiTouchTopics: topics})
}

func (s *Server) handleCovers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	covers := append([]addressable.LayoutTemplate(nil), s.data.Covers...)
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, addressable.LayoutTemplatesResponse{LayoutTemplates: covers})
}

func (s *Server) handleReturnAddress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ret := s.data.ReturnAddress
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCustomNote(w http.ResponseWriter, r *http.Request) {
	var req addressable.CustomNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.notes = append(s.notes, req.CustomNote)
	s.mu.Unlock()
	status := "queued"
	sendJSON(w, http.StatusCreated, addressable.CustomNoteResponse{
		CustomNote: &addressable.CustomNoteReceipt{ID: id, Status: &status},
	})
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	criteria := s.data.Criteria
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, addressable.DataTreeSearchResponse{DataTreeSearch: criteria})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := intParam(r, "id")
	s.mu.Lock()
	account := s.data.Account
	s.mu.Unlock()
	if id != account.ID {
		sendError(w, http.StatusNotFound, "account not found")
		return
	}
	sendJSON(w, http.StatusOK, addressable.AccountResponse{Account: &account})
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := addressable.ListUploadsResponse{ListUploads: []addressable.ListUploadWrapper{}}
	for _, u := range s.data.Uploads {
		resp.ListUploads = append(resp.ListUploads, addressable.ListUploadWrapper{ListUpload: u})
	}
	s.mu.Unlock()
	sendJSON(w, http.StatusOK, resp)
}
