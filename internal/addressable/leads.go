package addressable

import (
	"encoding/json"
	"fmt"
)

// IncomingLead is a caller or texter who responded to a mailing.
type IncomingLead struct {
	ID           int        `json:"id"`
	UserID       *int       `json:"user_id,omitempty"`
	AccountID    *int       `json:"account_id,omitempty"`
	FromNumber   string     `json:"from_number"`
	FirstName    *string    `json:"first_name,omitempty"`
	LastName     *string    `json:"last_name,omitempty"`
	Status       LeadStatus `json:"status"`
	QualityScore *int       `json:"quality_score,omitempty"`
}

// DisplayName returns the lead's name, falling back to the phone number.
func (l IncomingLead) DisplayName() string {
	name := stringValue(l.FirstName)
	if last := stringValue(l.LastName); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}
	if name == "" {
		return l.FromNumber
	}
	return name
}

// IncomingLeadResponse mirrors PATCH /incoming_leads/{id}.
type IncomingLeadResponse struct {
	IncomingLead *IncomingLead `json:"incoming_lead"`
}

// Interest is the quality score a user assigns when tagging a lead.
type Interest int

const (
	InterestUnset Interest = iota
	InterestLow
	InterestFair
	InterestLead
)

func (i Interest) String() string {
	switch i {
	case InterestLow:
		return "low interest"
	case InterestFair:
		return "fair"
	case InterestLead:
		return "lead"
	default:
		return "unset"
	}
}

// ParseInterest accepts the names printed by String.
func ParseInterest(s string) (Interest, error) {
	switch s {
	case "low", "low interest", "low_interest", "1":
		return InterestLow, nil
	case "fair", "2":
		return InterestFair, nil
	case "lead", "3":
		return InterestLead, nil
	}
	return InterestUnset, fmt.Errorf("unknown interest %q", s)
}

// InterestFromScore maps a stored quality score back to an Interest. Scores
// outside 1..2 are treated as a lead.
func InterestFromScore(score *int) Interest {
	if score == nil {
		return InterestLow
	}
	switch *score {
	case 1:
		return InterestLow
	case 2:
		return InterestFair
	default:
		return InterestLead
	}
}

// LeadTag is the user's classification of a lead.
type LeadTag struct {
	Spam     bool
	Interest Interest
	Removal  bool
}

// TagFromLead seeds a tag from the lead's stored state.
func TagFromLead(l IncomingLead) LeadTag {
	return LeadTag{
		Spam:     l.Status == LeadSpam,
		Interest: InterestFromScore(l.QualityScore),
		Removal:  l.Status == LeadRemoved,
	}
}

// IncomingLeadTag is the wire form of LeadTag. The server expects string
// booleans, "true"/"false" for spam and "1"/"0" for removal.
type IncomingLeadTag struct {
	Spam         string `json:"spam"`
	QualityScore int    `json:"quality_score"`
	Removal      string `json:"removal"`
}

// TagIncomingLeadRequest is the PATCH body for tagging.
type TagIncomingLeadRequest struct {
	IncomingLead IncomingLeadTag `json:"incoming_lead"`
}

// Request encodes the tag for the wire.
func (t LeadTag) Request() TagIncomingLeadRequest {
	tag := IncomingLeadTag{Spam: "false", QualityScore: int(t.Interest), Removal: "0"}
	if t.Spam {
		tag.Spam = "true"
	}
	if t.Removal {
		tag.Removal = "1"
	}
	return TagIncomingLeadRequest{IncomingLead: tag}
}

// LeadMessage is one text in a lead conversation.
type LeadMessage struct {
	ID         *int    `json:"id,omitempty"`
	Body       string  `json:"body"`
	IsIncoming bool    `json:"is_incoming"`
	CreatedAt  *string `json:"created_at,omitempty"`
	MessageSID *string `json:"message_sid,omitempty"`
}

// LeadMessagesResponse mirrors /lead_messages/{id}. The server sends each
// message as an embedded JSON document.
type LeadMessagesResponse struct {
	LeadMessages []string `json:"lead_messages"`
	MessageSID   *string  `json:"message_sid,omitempty"`
}

// Messages decodes the embedded documents, skipping any that do not parse.
func (r LeadMessagesResponse) Messages() []LeadMessage {
	out := make([]LeadMessage, 0, len(r.LeadMessages))
	for _, raw := range r.LeadMessages {
		var msg LeadMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// IncomingCount counts the messages sent by the lead.
func (r LeadMessagesResponse) IncomingCount() int {
	n := 0
	for _, m := range r.Messages() {
		if m.IsIncoming {
			n++
		}
	}
	return n
}

// OutgoingMessage is a text sent to a lead.
type OutgoingMessage struct {
	IncomingLeadID int     `json:"incoming_lead_id"`
	Body           string  `json:"body"`
	MessageSID     *string `json:"message_sid,omitempty"`
}
