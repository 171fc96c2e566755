package dispatch

import (
	"encoding/json"
	"strings"
)

// Shopify delivery headers, carried as Pub/Sub attributes or EventBridge metadata.
const (
	HeaderTopic     = "X-Shopify-Topic"
	HeaderShop      = "X-Shopify-Shop-Domain"
	HeaderWebhookID = "X-Shopify-Webhook-Id"
)

// Envelope is one webhook delivery, independent of how it reached us.
type Envelope struct {
	Topic     string
	Shop      string
	WebhookID string
	Payload   json.RawMessage
}

// PushRequest is the body Google Pub/Sub POSTs to a push endpoint.
type PushRequest struct {
	Message struct {
		Attributes  map[string]string `json:"attributes"`
		Data        []byte            `json:"data"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// EBEvent is a Shopify partner event as EventBridge delivers it.
type EBEvent struct {
	DetailType string `json:"detail-type"`
	Source     string `json:"source"`
	Time       string `json:"time"`
	Detail     struct {
		Metadata map[string]string `json:"metadata"`
		Payload  json.RawMessage   `json:"payload"`
	} `json:"detail"`
}

// DecodePubSubPush unwraps a push request; message data holds the webhook body.
func DecodePubSubPush(body []byte) (Envelope, error) {
	var req PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Envelope{}, invalid("pubsub push body: %v", err)
	}
	if len(req.Message.Data) == 0 {
		return Envelope{}, invalid("pubsub message has no data")
	}
	return envelopeFrom(req.Message.Attributes, req.Message.Data), nil
}

func DecodeEventBridge(body []byte) (Envelope, error) {
	var e EBEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, invalid("eventbridge event: %v", err)
	}
	if len(e.Detail.Payload) == 0 {
		return Envelope{}, invalid("eventbridge event has no payload")
	}
	return envelopeFrom(e.Detail.Metadata, e.Detail.Payload), nil
}

func envelopeFrom(headers map[string]string, payload []byte) Envelope {
	return Envelope{
		Topic:     strings.TrimSpace(header(headers, HeaderTopic)),
		Shop:      strings.ToLower(strings.TrimSpace(header(headers, HeaderShop))),
		WebhookID: strings.TrimSpace(header(headers, HeaderWebhookID)),
		Payload:   payload,
	}
}

// header looks a key up exactly first, then case-insensitively.
func header(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
