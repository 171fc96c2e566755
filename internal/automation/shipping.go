package automation

import (
	"context"
	"fmt"
	"strings"

	"automations/internal/logging"
	"automations/internal/shopify"

	"go.uber.org/zap"
)

const (
	rmaPrefix      = "RMA:"
	rmaOrderNumber = "ORDER NUMBER:"

	// Compared as a string; "0" or "0.0" do not count as free.
	FreeShippingPrice = "0.00"
	FreeShippingTitle = "FREE SHIPPING"
)

type DraftOrderAPI interface {
	SetDraftOrderShippingLine(ctx context.Context, cred shopify.Credential, id string, line shopify.ShippingLineInput) (*shopify.DraftOrder, []shopify.UserError, error)
}

// ShippingRule zeroes shipping on return (RMA) draft orders.
type ShippingRule struct {
	api DraftOrderAPI
	log *zap.Logger
}

func NewShippingRule(api DraftOrderAPI, log *zap.Logger) *ShippingRule {
	return &ShippingRule{api: api, log: log}
}

// IsRMANote reports whether a note follows the "RMA: ... ORDER NUMBER: ..." convention.
func IsRMANote(note *string) bool {
	if note == nil {
		return false
	}
	n := strings.ToUpper(strings.TrimSpace(*note))
	if n == "" {
		return false
	}
	return strings.HasPrefix(n, rmaPrefix) && strings.Contains(n, rmaOrderNumber)
}

// NeedsFreeShipping reports whether the draft is an RMA whose shipping is not yet a custom "0.00" line.
func NeedsFreeShipping(d *shopify.DraftOrder) bool {
	if d == nil || !IsRMANote(d.Note) {
		return false
	}
	return d.ShippingLine == nil ||
		!d.ShippingLine.Custom ||
		d.TotalShippingPrice != FreeShippingPrice
}

func (r *ShippingRule) Apply(ctx context.Context, cred shopify.Credential, d *shopify.DraftOrder) (Outcome, error) {
	log := logging.ForShop(r.log, cred.Shop).With(zap.String("draft_order_id", d.ID))

	if !NeedsFreeShipping(d) {
		log.Info("draft order shipping update skipped",
			zap.String("total_shipping_price", d.TotalShippingPrice))
		return OutcomeShippingSkipped, nil
	}

	updated, userErrs, err := r.api.SetDraftOrderShippingLine(ctx, cred, d.ID, shopify.ShippingLineInput{
		Price: FreeShippingPrice,
		Title: FreeShippingTitle,
	})
	if err != nil {
		return "", fmt.Errorf("update draft order %s shipping: %w", d.ID, err)
	}
	if len(userErrs) > 0 {
		warnUserErrors(log, "draftOrderUpdate", userErrs)
		return OutcomeShippingRejected, nil
	}

	fields := []zap.Field{}
	if updated != nil {
		fields = append(fields, zap.String("total_shipping_price", updated.TotalShippingPrice))
	}
	log.Info("draft order shipping set to free", fields...)
	return OutcomeShippingZeroed, nil
}
