package webhooks

import (
	"slices"

	"automations/internal/shopify"
)

// SelectAll is the literal a caller sends to pick every catalog key.
const SelectAll = "ALL"

// Pub/Sub topics the automations listen on. They double as catalog keys.
const (
	PubSubTopicPaymentTerms  = "update_payment_terms"
	PubSubTopicDraftShipping = "draft_order_shipping"
)

// Descriptor is a desired subscription. Two descriptors are the same
// subscription when topic, project and pubsub topic all match.
type Descriptor struct {
	Topic    string                 `json:"topic"`
	Endpoint shopify.PubSubEndpoint `json:"endpoint"`
}

// Key groups descriptors for selection; it is the pubsub topic name.
func (d Descriptor) Key() string {
	return d.Endpoint.Topic
}

// Matches reports whether an installed subscription satisfies d. IDs are ignored.
func (d Descriptor) Matches(s shopify.WebhookSubscription) bool {
	return s.Topic == d.Topic &&
		s.Endpoint.PubSubProject == d.Endpoint.Project &&
		s.Endpoint.PubSubTopic == d.Endpoint.Topic
}

type Catalog []Descriptor

// DefaultCatalog lists the subscriptions the automations can use, delivered to project.
func DefaultCatalog(project string) Catalog {
	paymentTerms := shopify.PubSubEndpoint{Project: project, Topic: PubSubTopicPaymentTerms}
	draftShipping := shopify.PubSubEndpoint{Project: project, Topic: PubSubTopicDraftShipping}
	return Catalog{
		{Topic: "FULFILLMENTS_CREATE", Endpoint: paymentTerms},
		{Topic: "FULFILLMENTS_UPDATE", Endpoint: paymentTerms},
		{Topic: "DRAFT_ORDERS_UPDATE", Endpoint: draftShipping},
	}
}

// Keys returns the distinct keys in catalog order.
func (c Catalog) Keys() []string {
	seen := make(map[string]bool, len(c))
	keys := make([]string, 0, len(c))
	for _, d := range c {
		if seen[d.Key()] {
			continue
		}
		seen[d.Key()] = true
		keys = append(keys, d.Key())
	}
	return keys
}

func (c Catalog) has(key string) bool {
	return slices.ContainsFunc(c, func(d Descriptor) bool { return d.Key() == key })
}

// Select turns a request value into known keys. It accepts "ALL" or a list
// of keys; unknown entries are dropped. Anything else yields nil.
func (c Catalog) Select(raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == SelectAll {
			return c.Keys()
		}
		return nil
	case []string:
		return c.known(v)
	case []any:
		strs := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				strs = append(strs, s)
			}
		}
		return c.known(strs)
	default:
		return nil
	}
}

func (c Catalog) known(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k != "" && c.has(k) {
			out = append(out, k)
		}
	}
	return out
}

// ByKeys selects catalog descriptors whose key is in keys.
func ByKeys(keys []string) func(Descriptor) bool {
	return func(d Descriptor) bool {
		return slices.Contains(keys, d.Key())
	}
}

// ByPubSubTopics selects installed subscriptions delivering to one of keys.
func ByPubSubTopics(keys []string) func(shopify.WebhookSubscription) bool {
	return func(s shopify.WebhookSubscription) bool {
		return slices.Contains(keys, s.Endpoint.PubSubTopic)
	}
}
