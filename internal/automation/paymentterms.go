package automation

import (
	"context"
	"fmt"
	"time"

	"automations/internal/alerts"
	"automations/internal/logging"
	"automations/internal/shopify"

	"go.uber.org/zap"
)

// IssuedAtLayout is ISO-8601 in UTC with millisecond precision.
const IssuedAtLayout = "2006-01-02T15:04:05.000Z"

type PaymentTermsAPI interface {
	TagMutator
	SetPaymentScheduleIssuedAt(ctx context.Context, cred shopify.Credential, paymentTermsID, issuedAt string) ([]shopify.UserError, error)
}

// PaymentTermsRule starts the NET payment clock once an order is fully fulfilled.
type PaymentTermsRule struct {
	api      PaymentTermsAPI
	notifier alerts.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentTermsRule(api PaymentTermsAPI, notifier alerts.Notifier, log *zap.Logger) *PaymentTermsRule {
	if notifier == nil {
		notifier = alerts.Nop{}
	}
	return &PaymentTermsRule{
		api:      api,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Apply evaluates a fresh order snapshot. Only transport errors are returned;
// user errors are logged and reported through the outcome.
func (r *PaymentTermsRule) Apply(ctx context.Context, cred shopify.Credential, order *shopify.Order) (Outcome, error) {
	log := logging.ForShop(r.log, cred.Shop).With(
		zap.String("order_id", order.ID),
		zap.String("order_name", order.Name),
	)
	fulfilled := order.DisplayFulfillmentStatus == shopify.FulfillmentStatusFulfilled

	if HasMarker(order.Tags, MarkerCompleted) {
		log.Info("skipping payment terms update - already completed")
		return OutcomeSkippedCompleted, nil
	}

	if HasMarker(order.Tags, MarkerDisabled) {
		log.Info("skipping payment terms update - disabled via order tag")
		return OutcomeSkippedDisabled, nil
	}

	if !fulfilled {
		log.Info("skipping payment terms update - not fulfilled yet",
			zap.String("fulfillment_status", order.DisplayFulfillmentStatus))
		return OutcomeSkippedNotFulfilled, nil
	}

	terms := order.PaymentTerms
	schedules := terms.Schedules()

	if len(schedules) > 1 {
		log.Warn("order has more than one payment schedule", zap.Int("schedules", len(schedules)))
		if !HasMarker(order.Tags, MarkerMultipleSchedules) {
			userErrs, err := AddMarker(ctx, r.api, cred, order.ID, MarkerMultipleSchedules)
			if err != nil {
				return "", fmt.Errorf("add %s to %s: %w", MarkerMultipleSchedules, order.ID, err)
			}
			warnUserErrors(log, "tagsAdd", userErrs)
			r.alertMultipleSchedules(ctx, log, cred, order, len(schedules))
		}
	}

	if terms == nil || terms.PaymentTermsType != shopify.PaymentTermsNet ||
		len(schedules) == 0 || schedules[0].CompletedAt != nil {
		fields := []zap.Field{zap.Int("schedules", len(schedules))}
		if terms != nil {
			fields = append(fields, zap.String("payment_terms_type", string(terms.PaymentTermsType)))
		}
		log.Info("not updating payment terms", fields...)
		return OutcomeNotUpdating, nil
	}

	issuedAt := r.now().UTC().Format(IssuedAtLayout)
	userErrs, err := r.api.SetPaymentScheduleIssuedAt(ctx, cred, terms.ID, issuedAt)
	if err != nil {
		return "", fmt.Errorf("update payment terms %s: %w", terms.ID, err)
	}
	if len(userErrs) > 0 {
		// Leave the order unmarked so a later delivery tries again.
		warnUserErrors(log, "paymentTermsUpdate", userErrs)
		return OutcomeUpdateRejected, nil
	}

	userErrs, err = AddMarker(ctx, r.api, cred, order.ID, MarkerCompleted)
	if err != nil {
		return "", fmt.Errorf("add %s to %s: %w", MarkerCompleted, order.ID, err)
	}
	warnUserErrors(log, "tagsAdd", userErrs)

	log.Info("updated payment terms",
		zap.String("payment_terms_id", terms.ID),
		zap.String("issued_at", issuedAt),
	)
	return OutcomeIssuedAtUpdated, nil
}

func (r *PaymentTermsRule) alertMultipleSchedules(ctx context.Context, log *zap.Logger, cred shopify.Credential, order *shopify.Order, n int) {
	err := r.notifier.Notify(ctx, alerts.Alert{
		Shop:    cred.Shop,
		Subject: fmt.Sprintf("Order %s has %d payment schedules", order.Name, n),
		Message: fmt.Sprintf("Order %s (%s) on %s has %d payment schedules; only the first one is updated automatically.",
			order.Name, order.ID, cred.Shop, n),
	})
	if err != nil {
		log.Warn("failed to publish alert", zap.Error(err))
	}
}

func warnUserErrors(log *zap.Logger, mutation string, userErrs []shopify.UserError) {
	for _, ue := range userErrs {
		log.Warn("mutation user error",
			zap.String("mutation", mutation),
			zap.Strings("field", ue.Field),
			zap.String("code", ue.Code),
			zap.String("message", ue.Message),
		)
	}
}
