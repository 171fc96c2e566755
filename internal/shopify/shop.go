package shopify

import (
	"context"
)

type shopData struct {
	Shop Shop `json:"shop"`
}

// ShopInfo is used to prove that a token belongs to the shop it claims.
func (c *Client) ShopInfo(ctx context.Context, cred Credential) (*Shop, error) {
	data, err := PostGraphQL[shopData](ctx, c, cred, shopInfoQuery, nil)
	if err != nil {
		return nil, err
	}
	return &data.Shop, nil
}
