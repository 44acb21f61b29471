package addressable

import (
	"context"
	"fmt"
	"strconv"
)

// Campaigns lists the user's mailings.
func (c *Client) Campaigns(ctx context.Context) ([]Mailing, error) {
	var payload CampaignsResponse
	if err := c.send(ctx, "/campaigns", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Mailings(), nil
}

// CoverImages lists the card art options.
func (c *Client) CoverImages(ctx context.Context) ([]LayoutTemplate, error) {
	var payload LayoutTemplatesResponse
	if err := c.send(ctx, "/layout_templates", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.LayoutTemplates, nil
}

// ReturnAddress fetches the user's default sender.
func (c *Client) ReturnAddress(ctx context.Context) (*ReturnAddress, error) {
	var payload ReturnAddress
	if err := c.send(ctx, "/return_addresses", Read, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SendCustomNote orders a single handwritten note.
func (c *Client) SendCustomNote(ctx context.Context, note CustomNote) (*CustomNoteResponse, error) {
	var payload CustomNoteResponse
	if err := c.send(ctx, "/custom_notes", Create, CustomNoteRequest{CustomNote: note}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateRadiusMailing starts a radius mailing around site and kicks off the
// audience search.
func (c *Client) CreateRadiusMailing(ctx context.Context, site SiteRequest) (*Mailing, error) {
	return c.radiusCall(ctx, "/radius_mailings", Create, site)
}

// RadiusMailing fetches mailing id.
func (c *Client) RadiusMailing(ctx context.Context, id int) (*Mailing, error) {
	return c.radiusCall(ctx, radiusPath(id), Read, nil)
}

// UpdateRadiusMailing patches one sub-resource of mailing id.
func (c *Client) UpdateRadiusMailing(ctx context.Context, id int, component Component) (*Mailing, error) {
	if component == nil {
		return nil, networkError(fmt.Sprintf("PATCH %s", radiusPath(id)), fmt.Errorf("component is nil"))
	}
	return c.radiusCall(ctx, radiusPath(id)+"/"+component.pathSuffix(), Modify, component.payload())
}

// UpdateMailingStatus asks the server to move mailing id to state. This backs
// the settings menu: send, cancel and revert.
func (c *Client) UpdateMailingStatus(ctx context.Context, id int, state MailingState) (*Mailing, error) {
	return c.radiusCall(ctx, radiusPath(id)+"/status", Modify, MailingStatusRequest{MailingStatus: state})
}

func (c *Client) radiusCall(ctx context.Context, path string, intent Intent, body any) (*Mailing, error) {
	var payload RadiusMailingResponse
	if err := c.send(ctx, path, intent, body, &payload); err != nil {
		return nil, err
	}
	if payload.RadiusMailing == nil {
		return nil, missingEnvelope(intent, path, "radius_mailing")
	}
	return payload.RadiusMailing, nil
}

// Recipients lists the audience of mailingID.
func (c *Client) Recipients(ctx context.Context, mailingID int) ([]Recipient, error) {
	var payload RecipientsResponse
	if err := c.send(ctx, radiusPath(mailingID)+"/recipients", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Recipients, nil
}

// UpdateListEntry changes a recipient's membership.
func (c *Client) UpdateListEntry(ctx context.Context, id int, membership Membership) (*ListEntry, error) {
	path := "/list_entries/" + strconv.Itoa(id)
	var payload ListEntryResponse
	if err := c.send(ctx, path, Modify, ListEntryStatusRequest{ListMembership: membership}, &payload); err != nil {
		return nil, err
	}
	if payload.ListEntry == nil {
		return nil, missingEnvelope(Modify, path, "list_entry")
	}
	return payload.ListEntry, nil
}

// CreateRemoval adds recipientID to the account's permanent removal list.
func (c *Client) CreateRemoval(ctx context.Context, accountID, recipientID int) (*Removal, error) {
	path := "/accounts/" + strconv.Itoa(accountID) + "/removals/" + strconv.Itoa(recipientID) + "/create_removal_from_list_entry"
	var payload RemovalResponse
	if err := c.send(ctx, path, Read, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Removal == nil {
		return nil, missingEnvelope(Read, path, "removal")
	}
	return payload.Removal, nil
}

// DefaultSearchCriteria fetches the audience criteria new mailings start from.
func (c *Client) DefaultSearchCriteria(ctx context.Context) (DataTreeSearchCriteria, error) {
	const path = "/data_tree_search/default_criteria"
	var payload DataTreeSearchResponse
	if err := c.send(ctx, path, Read, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.DataTreeSearch) == 0 || string(payload.DataTreeSearch) == "null" {
		return nil, missingEnvelope(Read, path, "data_tree_search")
	}
	return payload.DataTreeSearch, nil
}

// Account fetches the account, including its token balances.
func (c *Client) Account(ctx context.Context, id int) (*Account, error) {
	path := "/accounts/" + strconv.Itoa(id)
	var payload AccountResponse
	if err := c.send(ctx, path, Read, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Account == nil {
		return nil, missingEnvelope(Read, path, "account")
	}
	return payload.Account, nil
}

// ListUploads lists the account's uploaded audience batches.
func (c *Client) ListUploads(ctx context.Context) ([]ListUpload, error) {
	var payload ListUploadsResponse
	if err := c.send(ctx, "/list_uploads", Read, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Uploads(), nil
}

func radiusPath(id int) string {
	return "/radius_mailings/" + strconv.Itoa(id)
}
