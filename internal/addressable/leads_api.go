package addressable

import (
	"context"
	"strconv"
)

// IncomingLeads lists every lead for the signed-in user.
func (c *Client) IncomingLeads(ctx context.Context) ([]IncomingLead, error) {
	var payload []IncomingLead
	if err := c.send(ctx, "/incoming_leads", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// TagIncomingLead stores the user's classification of lead id.
func (c *Client) TagIncomingLead(ctx context.Context, id int, tag LeadTag) (*IncomingLead, error) {
	path := "/incoming_leads/" + strconv.Itoa(id)
	var payload IncomingLeadResponse
	if err := c.send(ctx, path, Modify, tag.Request(), &payload); err != nil {
		return nil, err
	}
	if payload.IncomingLead == nil {
		return nil, missingEnvelope(Modify, path, "incoming_lead")
	}
	return payload.IncomingLead, nil
}

// IncomingLeadsWithMessages lists the leads that have a text thread.
func (c *Client) IncomingLeadsWithMessages(ctx context.Context) ([]IncomingLead, error) {
	var payload []IncomingLead
	if err := c.send(ctx, "/lead_messages", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// LeadMessages fetches the thread for leadID.
func (c *Client) LeadMessages(ctx context.Context, leadID int) (*LeadMessagesResponse, error) {
	var payload LeadMessagesResponse
	if err := c.send(ctx, "/lead_messages/"+strconv.Itoa(leadID), Read, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SendLeadMessage posts a reply and returns the updated thread.
func (c *Client) SendLeadMessage(ctx context.Context, msg OutgoingMessage) (*LeadMessagesResponse, error) {
	var payload LeadMessagesResponse
	if err := c.send(ctx, "/lead_messages", Create, msg, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
