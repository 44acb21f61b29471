package addressable

import (
	"context"
	"strconv"
)

// MessageTemplates lists the user's saved note templates.
func (c *Client) MessageTemplates(ctx context.Context) ([]MessageTemplate, error) {
	var payload MessageTemplatesResponse
	if err := c.send(ctx, "/message_templates", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.MessageTemplates, nil
}

// MessageTemplate fetches one template.
func (c *Client) MessageTemplate(ctx context.Context, id int) (*MessageTemplate, error) {
	return c.templateCall(ctx, "/message_templates/"+strconv.Itoa(id), Read, nil)
}

// CreateMessageTemplate saves a new template.
func (c *Client) CreateMessageTemplate(ctx context.Context, t NewMessageTemplate) (*MessageTemplate, error) {
	return c.templateCall(ctx, "/message_templates", Create, MessageTemplateRequest{MessageTemplate: t})
}

// UpdateMessageTemplate edits template id.
func (c *Client) UpdateMessageTemplate(ctx context.Context, id int, t NewMessageTemplate) (*MessageTemplate, error) {
	return c.templateCall(ctx, "/message_templates/"+strconv.Itoa(id), Modify, MessageTemplateRequest{MessageTemplate: t})
}

func (c *Client) templateCall(ctx context.Context, path string, intent Intent, body any) (*MessageTemplate, error) {
	var payload MessageTemplateResponse
	if err := c.send(ctx, path, intent, body, &payload); err != nil {
		return nil, err
	}
	if payload.MessageTemplate == nil {
		return nil, missingEnvelope(intent, path, "message_template")
	}
	return payload.MessageTemplate, nil
}

// MultiTouchTopics lists the available two-touch campaign themes.
func (c *Client) MultiTouchTopics(ctx context.Context) ([]MultiTouchTopic, error) {
	var payload MultiTouchTopicsResponse
	if err := c.send(ctx, "/multi_touch_topics", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.MultiTouchTopics, nil
}
