package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"automations/internal/automation"
	"automations/internal/logging"
	"automations/internal/shopify"
	"automations/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Route int

const (
	RouteNone Route = iota
	RouteOrder
	RouteDraftOrder
)

func (r Route) String() string {
	switch r {
	case RouteOrder:
		return "order"
	case RouteDraftOrder:
		return "draft_order"
	default:
		return "none"
	}
}

// RouteFor picks the rule for a Shopify topic such as "fulfillments/create".
func RouteFor(topic string) Route {
	t := strings.ToLower(strings.TrimSpace(topic))
	switch {
	case strings.HasPrefix(t, "fulfillments/"), strings.HasPrefix(t, "orders/"):
		return RouteOrder
	case strings.HasPrefix(t, "draft_orders/"):
		return RouteDraftOrder
	default:
		return RouteNone
	}
}

type CredentialSource interface {
	Get(ctx context.Context, shop string) (shopify.Credential, error)
}

type lastEventRecorder interface {
	TouchLastEvent(ctx context.Context, shop, topic, webhookID string) error
}

type EntityAPI interface {
	OrderByID(ctx context.Context, cred shopify.Credential, id string) (*shopify.Order, error)
	DraftOrderByID(ctx context.Context, cred shopify.Credential, id string) (*shopify.DraftOrder, error)
}

type OrderRule interface {
	Apply(ctx context.Context, cred shopify.Credential, order *shopify.Order) (automation.Outcome, error)
}

type DraftOrderRule interface {
	Apply(ctx context.Context, cred shopify.Credential, draft *shopify.DraftOrder) (automation.Outcome, error)
}

// Dispatcher turns a delivery into one rule evaluation. Every path except a
// transport failure acknowledges the event.
type Dispatcher struct {
	creds       CredentialSource
	api         EntityAPI
	orders      OrderRule
	drafts      DraftOrderRule
	log         *zap.Logger
	defaultShop string
}

type Option func(*Dispatcher)

// WithDefaultShop is used for deliveries that do not name a shop.
func WithDefaultShop(shop string) Option {
	return func(d *Dispatcher) { d.defaultShop = tenancy.NormalizeShop(shop) }
}

func NewDispatcher(creds CredentialSource, api EntityAPI, orders OrderRule, drafts DraftOrderRule, log *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		creds:  creds,
		api:    api,
		orders: orders,
		drafts: drafts,
		log:    log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) error {
	shop := env.Shop
	if shop == "" {
		shop = d.defaultShop
	}
	route := RouteFor(env.Topic)

	log := logging.ForShop(d.log, shop).With(
		zap.String("invocation_id", uuid.NewString()),
		zap.String("topic", env.Topic),
		zap.String("webhook_id", env.WebhookID),
		zap.Stringer("route", route),
	)

	if route == RouteNone {
		log.Info("ignoring event topic")
		return nil
	}
	if shop == "" {
		log.Warn("event has no shop domain")
		return nil
	}

	cred, err := d.creds.Get(ctx, shop)
	if errors.Is(err, tenancy.ErrNotFound) {
		log.Warn("shop not installed - ignoring event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load credential for %s: %w", shop, err)
	}

	if rec, ok := d.creds.(lastEventRecorder); ok {
		if err := rec.TouchLastEvent(ctx, shop, env.Topic, env.WebhookID); err != nil {
			log.Warn("failed to record last event", zap.Error(err))
		}
	}

	switch route {
	case RouteOrder:
		return d.dispatchOrder(ctx, log, cred, env)
	case RouteDraftOrder:
		return d.dispatchDraftOrder(ctx, log, cred, env)
	}
	return nil
}

func (d *Dispatcher) dispatchOrder(ctx context.Context, log *zap.Logger, cred shopify.Credential, env Envelope) error {
	ref, err := DecodeEntityRef(env.Payload, "order_id")
	if err != nil {
		log.Warn("invalid payload", zap.Error(err))
		return nil
	}
	id, ok := ResolveID(ref, shopify.KindOrder)
	if !ok {
		log.Warn("payload does not reference an order", zap.String("admin_graphql_api_id", ref.GlobalID))
		return nil
	}
	log = log.With(zap.String("order_id", id))

	order, err := d.api.OrderByID(ctx, cred, id)
	if err != nil {
		return fmt.Errorf("fetch order %s: %w", id, err)
	}
	if order == nil {
		log.Warn("no order found")
		return nil
	}

	outcome, err := d.orders.Apply(ctx, cred, order)
	if err != nil {
		return err
	}
	log.Debug("payment terms rule applied", zap.String("outcome", string(outcome)))
	return nil
}

func (d *Dispatcher) dispatchDraftOrder(ctx context.Context, log *zap.Logger, cred shopify.Credential, env Envelope) error {
	ref, err := DecodeEntityRef(env.Payload, "draft_order_id")
	if err != nil {
		log.Warn("invalid payload", zap.Error(err))
		return nil
	}
	id, ok := ResolveID(ref, shopify.KindDraftOrder)
	if !ok {
		log.Warn("payload does not reference a draft order", zap.String("admin_graphql_api_id", ref.GlobalID))
		return nil
	}
	log = log.With(zap.String("draft_order_id", id))

	draft, err := d.api.DraftOrderByID(ctx, cred, id)
	if err != nil {
		return fmt.Errorf("fetch draft order %s: %w", id, err)
	}
	if draft == nil {
		log.Warn("no draft order found")
		return nil
	}

	outcome, err := d.drafts.Apply(ctx, cred, draft)
	if err != nil {
		return err
	}
	log.Debug("shipping rule applied", zap.String("outcome", string(outcome)))
	return nil
}
