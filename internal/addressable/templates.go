package addressable

import "sort"

// MessageTemplate is a saved handwritten-note body with merge variables.
// A nil merge value means the variable has not been filled in.
type MessageTemplate struct {
	ID        int                `json:"id"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	MergeVars map[string]*string `json:"merge_vars,omitempty"`
}

// MissingMergeVars returns the sorted names of empty merge variables.
func (t MessageTemplate) MissingMergeVars() []string {
	return missingVars(t.MergeVars)
}

// MessageTemplatesResponse mirrors GET /message_templates.
type MessageTemplatesResponse struct {
	MessageTemplates []MessageTemplate `json:"message_templates"`
}

// MessageTemplateResponse is the single-template envelope.
type MessageTemplateResponse struct {
	MessageTemplate *MessageTemplate `json:"message_template"`
}

// NewMessageTemplate is the editable part of a template.
type NewMessageTemplate struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// MessageTemplateRequest wraps a template for create and update.
type MessageTemplateRequest struct {
	MessageTemplate NewMessageTemplate `json:"message_template"`
}

// TopicTemplate is the note body of one touch of a multi-touch topic.
type TopicTemplate struct {
	ID        *int               `json:"id,omitempty"`
	Title     *string            `json:"title,omitempty"`
	Body      string             `json:"body"`
	MergeVars map[string]*string `json:"merge_vars,omitempty"`
}

// MultiTouchTopic is a two-touch campaign theme.
type MultiTouchTopic struct {
	ID               int           `json:"id"`
	Name             string        `json:"name"`
	Duration         *int          `json:"duration,omitempty"`
	TouchOneTemplate TopicTemplate `json:"touch_one_template"`
	TouchTwoTemplate TopicTemplate `json:"touch_two_template"`
}

// MultiTouchTopicsResponse mirrors /multi_touch_topics.
type MultiTouchTopicsResponse struct {
	MultiTouchTopics []MultiTouchTopic `json:"multi_touch_topics"`
}

// MergeVarNames returns the sorted variable names declared by a template.
func MergeVarNames(vars map[string]*string) []string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func missingVars(vars map[string]*string) []string {
	var missing []string
	for _, name := range MergeVarNames(vars) {
		if v := vars[name]; v == nil || *v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
