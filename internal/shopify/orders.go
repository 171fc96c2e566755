package shopify

import (
	"context"
)

type orderData struct {
	Order *Order `json:"order"`
}

type paymentTermsUpdateData struct {
	PaymentTermsUpdate struct {
		PaymentTerms *PaymentTerms `json:"paymentTerms"`
		UserErrors   []UserError   `json:"userErrors"`
	} `json:"paymentTermsUpdate"`
}

type tagsAddData struct {
	TagsAdd struct {
		UserErrors []UserError `json:"userErrors"`
	} `json:"tagsAdd"`
}

// OrderByID returns nil without error when the order does not exist.
func (c *Client) OrderByID(ctx context.Context, cred Credential, id string) (*Order, error) {
	data, err := PostGraphQL[orderData](ctx, c, cred, orderByIDQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return data.Order, nil
}

// SetPaymentScheduleIssuedAt sets the issue date of the terms' schedule.
func (c *Client) SetPaymentScheduleIssuedAt(ctx context.Context, cred Credential, paymentTermsID, issuedAt string) ([]UserError, error) {
	vars := map[string]any{
		"input": map[string]any{
			"paymentTermsId": paymentTermsID,
			"paymentTermsAttributes": map[string]any{
				"paymentSchedules": []map[string]string{
					{"issuedAt": issuedAt},
				},
			},
		},
	}
	data, err := PostGraphQL[paymentTermsUpdateData](ctx, c, cred, paymentTermsUpdateMutation, vars)
	if err != nil {
		return nil, err
	}
	return data.PaymentTermsUpdate.UserErrors, nil
}

func (c *Client) TagsAdd(ctx context.Context, cred Credential, id string, tags []string) ([]UserError, error) {
	data, err := PostGraphQL[tagsAddData](ctx, c, cred, tagsAddMutation, map[string]any{"id": id, "tags": tags})
	if err != nil {
		return nil, err
	}
	return data.TagsAdd.UserErrors, nil
}
