package addressable

import "time"

// ComponentKind names the sub-resource of a radius mailing a Component
// patches.
type ComponentKind string

const (
	ComponentLocation      ComponentKind = "location"
	ComponentCover         ComponentKind = "cover"
	ComponentTopic         ComponentKind = "topic"
	ComponentList          ComponentKind = "list"
	ComponentTargetDate    ComponentKind = "target_date"
	ComponentReturnAddress ComponentKind = "return_address"
)

// Component is a partial update of a radius mailing. The set of
// implementations is closed; each one owns its path suffix and body.
type Component interface {
	Kind() ComponentKind
	pathSuffix() string
	payload() any
}

var (
	_ Component = LocationUpdate{}
	_ Component = CoverUpdate{}
	_ Component = TopicUpdate{}
	_ Component = ListApproval{}
	_ Component = TargetDateUpdate{}
	_ Component = ReturnAddressUpdate{}
)

// LocationUpdate moves the subject location and reruns the audience search.
type LocationUpdate struct {
	Site SiteRequest
}

func (LocationUpdate) Kind() ComponentKind { return ComponentLocation }
func (LocationUpdate) pathSuffix() string  { return "subject_address" }
func (u LocationUpdate) payload() any      { return u.Site }

// CoverUpdate selects the card art.
type CoverUpdate struct {
	LayoutTemplateID int
}

type coverData struct {
	LayoutTemplateID int `json:"layout_template_id"`
}

func (CoverUpdate) Kind() ComponentKind { return ComponentCover }
func (CoverUpdate) pathSuffix() string  { return "cover" }
func (u CoverUpdate) payload() any {
	return struct {
		Cover coverData `json:"cover"`
	}{coverData{LayoutTemplateID: u.LayoutTemplateID}}
}

// TopicUpdate selects a multi-touch topic and the note bodies of both
// touches. MergeVars carries the values of every declared variable.
type TopicUpdate struct {
	TopicID           int
	UpdateTemplateOne *bool
	TemplateOneBody   string
	TemplateTwoBody   string
	MergeVars         map[string]string
}

type topicData struct {
	MultiTouchTopicID int `json:"multi_touch_topic_id"`
}

type topicTemplateData struct {
	UpdateTemplateOne *bool  `json:"update_template_one,omitempty"`
	TemplateOneBody   string `json:"template_one_body"`
	TemplateTwoBody   string `json:"template_two_body"`
}

func (TopicUpdate) Kind() ComponentKind { return ComponentTopic }
func (TopicUpdate) pathSuffix() string  { return "topic" }
func (u TopicUpdate) payload() any {
	vars := u.MergeVars
	if vars == nil {
		vars = map[string]string{}
	}
	return struct {
		Topic         topicData         `json:"topic"`
		TopicTemplate topicTemplateData `json:"topic_template"`
		MergeVars     map[string]string `json:"merge_vars"`
	}{
		Topic: topicData{MultiTouchTopicID: u.TopicID},
		TopicTemplate: topicTemplateData{
			UpdateTemplateOne: u.UpdateTemplateOne,
			TemplateOneBody:   u.TemplateOneBody,
			TemplateTwoBody:   u.TemplateTwoBody,
		},
		MergeVars: vars,
	}
}

// ListApproval approves the audience list. The server also creates the
// second touch when it handles this call.
type ListApproval struct{}

func (ListApproval) Kind() ComponentKind { return ComponentList }
func (ListApproval) pathSuffix() string  { return "list" }
func (ListApproval) payload() any        { return struct{}{} }

// TargetDateUpdate sets the drop date. A nil Date clears it.
type TargetDateUpdate struct {
	Date *time.Time
}

type targetDropDate struct {
	TargetDropDate *string `json:"target_drop_date"`
}

func (TargetDateUpdate) Kind() ComponentKind { return ComponentTargetDate }
func (TargetDateUpdate) pathSuffix() string  { return "target_date" }
func (u TargetDateUpdate) payload() any {
	var date *string
	if u.Date != nil {
		s := FormatDropDate(*u.Date)
		date = &s
	}
	return struct {
		RadiusMailing targetDropDate `json:"radius_mailing"`
	}{targetDropDate{TargetDropDate: date}}
}

// ReturnAddressUpdate replaces the sender printed on the envelope.
type ReturnAddressUpdate struct {
	Address ReturnAddress
}

func (ReturnAddressUpdate) Kind() ComponentKind { return ComponentReturnAddress }
func (ReturnAddressUpdate) pathSuffix() string  { return "from_address" }
func (u ReturnAddressUpdate) payload() any {
	return struct {
		RadiusMailing ReturnAddress `json:"radius_mailing"`
	}{u.Address}
}
