package shopify

import (
	"context"
)

type webhookSubscriptionsData struct {
	WebhookSubscriptions struct {
		Nodes []WebhookSubscription `json:"nodes"`
	} `json:"webhookSubscriptions"`
}

type pubSubWebhookCreateData struct {
	PubSubWebhookSubscriptionCreate struct {
		WebhookSubscription *WebhookSubscription `json:"webhookSubscription"`
		UserErrors          []UserError          `json:"userErrors"`
	} `json:"pubSubWebhookSubscriptionCreate"`
}

type webhookDeleteData struct {
	WebhookSubscriptionDelete struct {
		DeletedWebhookSubscriptionID *string     `json:"deletedWebhookSubscriptionId"`
		UserErrors                   []UserError `json:"userErrors"`
	} `json:"webhookSubscriptionDelete"`
}

// ListWebhooks returns up to 100 installed subscriptions.
func (c *Client) ListWebhooks(ctx context.Context, cred Credential) ([]WebhookSubscription, error) {
	data, err := PostGraphQL[webhookSubscriptionsData](ctx, c, cred, webhookSubscriptionsQuery, nil)
	if err != nil {
		return nil, err
	}
	return data.WebhookSubscriptions.Nodes, nil
}

// CreatePubSubWebhook subscribes the shop's topic to a Google Pub/Sub topic.
func (c *Client) CreatePubSubWebhook(ctx context.Context, cred Credential, topic string, endpoint PubSubEndpoint) (*WebhookSubscription, []UserError, error) {
	vars := map[string]any{
		"topic": topic,
		"input": map[string]string{
			"pubSubProject": endpoint.Project,
			"pubSubTopic":   endpoint.Topic,
			"format":        "JSON",
		},
	}
	data, err := PostGraphQL[pubSubWebhookCreateData](ctx, c, cred, pubSubWebhookCreateMutation, vars)
	if err != nil {
		return nil, nil, err
	}
	out := data.PubSubWebhookSubscriptionCreate
	return out.WebhookSubscription, out.UserErrors, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, cred Credential, id string) ([]UserError, error) {
	data, err := PostGraphQL[webhookDeleteData](ctx, c, cred, webhookDeleteMutation, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return data.WebhookSubscriptionDelete.UserErrors, nil
}
