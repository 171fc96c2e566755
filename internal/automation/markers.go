package automation

import (
	"context"
	"slices"

	"automations/internal/shopify"
)

// Marker is an order tag used as durable state between event deliveries.
type Marker string

const (
	MarkerCompleted         Marker = "pt-automation-completed"
	MarkerDisabled          Marker = "pt-automation-disabled"
	MarkerMultipleSchedules Marker = "pt-automation-multiple-schedules"
)

// TagMutator adds order tags.
type TagMutator interface {
	TagsAdd(ctx context.Context, cred shopify.Credential, id string, tags []string) ([]shopify.UserError, error)
}

func HasMarker(tags []string, m Marker) bool {
	return slices.Contains(tags, string(m))
}

func AddMarker(ctx context.Context, api TagMutator, cred shopify.Credential, orderID string, m Marker) ([]shopify.UserError, error) {
	return api.TagsAdd(ctx, cred, orderID, []string{string(m)})
}
