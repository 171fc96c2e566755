package shopify

import (
	"context"
)

type draftOrderData struct {
	DraftOrder *DraftOrder `json:"draftOrder"`
}

type draftOrderUpdateData struct {
	DraftOrderUpdate struct {
		DraftOrder *DraftOrder `json:"draftOrder"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"draftOrderUpdate"`
}

// DraftOrderByID returns nil without error when the draft order does not exist.
func (c *Client) DraftOrderByID(ctx context.Context, cred Credential, id string) (*DraftOrder, error) {
	data, err := PostGraphQL[draftOrderData](ctx, c, cred, draftOrderByIDQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return data.DraftOrder, nil
}

func (c *Client) SetDraftOrderShippingLine(ctx context.Context, cred Credential, id string, line ShippingLineInput) (*DraftOrder, []UserError, error) {
	vars := map[string]any{
		"id": id,
		"input": map[string]any{
			"shippingLine": line,
		},
	}
	data, err := PostGraphQL[draftOrderUpdateData](ctx, c, cred, draftOrderUpdateMutation, vars)
	if err != nil {
		return nil, nil, err
	}
	return data.DraftOrderUpdate.DraftOrder, data.DraftOrderUpdate.UserErrors, nil
}
