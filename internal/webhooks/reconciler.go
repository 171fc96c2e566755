package webhooks

import (
	"context"
	"errors"
	"fmt"

	"automations/internal/logging"
	"automations/internal/shopify"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxInFlight bounds concurrent Admin API mutations per batch.
const maxInFlight = 4

// API is the part of the Shopify client the reconciler needs.
type API interface {
	ListWebhooks(ctx context.Context, cred shopify.Credential) ([]shopify.WebhookSubscription, error)
	CreatePubSubWebhook(ctx context.Context, cred shopify.Credential, topic string, endpoint shopify.PubSubEndpoint) (*shopify.WebhookSubscription, []shopify.UserError, error)
	DeleteWebhook(ctx context.Context, cred shopify.Credential, id string) ([]shopify.UserError, error)
}

type Overview struct {
	Available     []string                      `json:"available"`
	Installed     []shopify.WebhookSubscription `json:"installed"`
	Missing       []Descriptor                  `json:"missing"`
	JustInstalled int                           `json:"justInstalled"`
}

// Result is the outcome of one create or delete in a batch.
type Result struct {
	Key            string              `json:"key,omitempty"`
	Topic          string              `json:"topic"`
	SubscriptionID string              `json:"subscriptionId,omitempty"`
	UserErrors     []shopify.UserError `json:"userErrors,omitempty"`
	Err            error               `json:"-"`
}

func (r Result) OK() bool {
	return r.Err == nil && len(r.UserErrors) == 0
}

type Reconciler struct {
	catalog Catalog
	api     API
	log     *zap.Logger
}

func NewReconciler(catalog Catalog, api API, log *zap.Logger) *Reconciler {
	return &Reconciler{catalog: catalog, api: api, log: log}
}

func (r *Reconciler) Catalog() Catalog {
	return r.catalog
}

// Overview compares the catalog with what the shop has installed.
func (r *Reconciler) Overview(ctx context.Context, cred shopify.Credential) (Overview, error) {
	installed, err := r.api.ListWebhooks(ctx, cred)
	if err != nil {
		return Overview{}, fmt.Errorf("list webhooks: %w", err)
	}

	missing := make([]Descriptor, 0, len(r.catalog))
	for _, d := range r.catalog {
		found := false
		for _, s := range installed {
			if d.Matches(s) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, d)
		}
	}

	return Overview{
		Available: r.catalog.Keys(),
		Installed: installed,
		Missing:   missing,
	}, nil
}

// Register installs the missing descriptors accepted by filter. A nil filter
// installs nothing. The installed list is fetched again after any create.
func (r *Reconciler) Register(ctx context.Context, cred shopify.Credential, filter func(Descriptor) bool) (Overview, []Result, error) {
	log := logging.ForShop(r.log, cred.Shop)

	ov, err := r.Overview(ctx, cred)
	if err != nil {
		return Overview{}, nil, err
	}

	var toInstall []Descriptor
	if filter != nil {
		for _, d := range ov.Missing {
			if filter(d) {
				toInstall = append(toInstall, d)
			}
		}
	}
	if len(toInstall) == 0 {
		log.Info("no webhooks to register", zap.Int("missing", len(ov.Missing)))
		return ov, nil, nil
	}

	log.Debug("registering webhooks", zap.Int("count", len(toInstall)))

	results := fanOut(ctx, toInstall, func(ctx context.Context, d Descriptor) Result {
		res := Result{Key: d.Key(), Topic: d.Topic}
		sub, userErrs, err := r.api.CreatePubSubWebhook(ctx, cred, d.Topic, d.Endpoint)
		if err != nil {
			res.Err = fmt.Errorf("create webhook %s -> %s: %w", d.Topic, d.Key(), err)
			return res
		}
		res.UserErrors = userErrs
		if sub != nil {
			res.SubscriptionID = sub.ID
		}
		if len(userErrs) > 0 {
			log.Warn("error creating webhook",
				zap.String("topic", d.Topic),
				zap.String("pubsub_topic", d.Key()),
				zap.Any("user_errors", userErrs),
			)
		} else {
			log.Info("webhook created",
				zap.String("topic", d.Topic),
				zap.String("pubsub_topic", d.Key()),
				zap.String("subscription_id", res.SubscriptionID),
			)
		}
		return res
	})

	if err := joinErrors(results); err != nil {
		return ov, results, err
	}

	ov, err = r.Overview(ctx, cred)
	if err != nil {
		return Overview{}, results, err
	}
	ov.JustInstalled = len(toInstall)

	log.Info("installed webhooks",
		zap.Int("just_installed", ov.JustInstalled),
		zap.Int("installed", len(ov.Installed)),
		zap.Int("missing", len(ov.Missing)),
	)
	return ov, results, nil
}

// Delete removes the installed subscriptions matched by predicate.
// A nil predicate removes every installed subscription.
func (r *Reconciler) Delete(ctx context.Context, cred shopify.Credential, predicate func(shopify.WebhookSubscription) bool) ([]Result, error) {
	log := logging.ForShop(r.log, cred.Shop)

	installed, err := r.api.ListWebhooks(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}

	var targets []shopify.WebhookSubscription
	for _, s := range installed {
		if predicate == nil || predicate(s) {
			targets = append(targets, s)
		}
	}
	if predicate == nil {
		log.Warn("deleting all webhooks", zap.Int("count", len(targets)))
	} else {
		log.Info("deleting webhooks", zap.Int("count", len(targets)))
	}

	results := fanOut(ctx, targets, func(ctx context.Context, s shopify.WebhookSubscription) Result {
		res := Result{Key: s.Endpoint.PubSubTopic, Topic: s.Topic, SubscriptionID: s.ID}
		userErrs, err := r.api.DeleteWebhook(ctx, cred, s.ID)
		if err != nil {
			res.Err = fmt.Errorf("delete webhook %s: %w", s.ID, err)
			return res
		}
		res.UserErrors = userErrs
		if len(userErrs) > 0 {
			log.Warn("error deleting webhook",
				zap.String("subscription_id", s.ID),
				zap.Any("user_errors", userErrs),
			)
		}
		return res
	})

	return results, joinErrors(results)
}

// fanOut runs fn for every item and waits for all of them. One item's
// failure never cancels its siblings.
func fanOut[T any](ctx context.Context, items []T, fn func(context.Context, T) Result) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			results[i] = fn(ctx, it)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func joinErrors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
