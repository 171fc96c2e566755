package app

import (
	"context"
	"fmt"

	"automations/internal/alerts"
	"automations/internal/automation"
	"automations/internal/config"
	"automations/internal/db"
	"automations/internal/dispatch"
	"automations/internal/logging"
	"automations/internal/security"
	"automations/internal/shopify"
	"automations/internal/tenancy"
	"automations/internal/webhooks"

	"go.uber.org/zap"
)

// App holds the dependencies shared by the Lambda entry points.
type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Shopify    *shopify.Client
	Store      *tenancy.Store // nil in single-tenant mode
	Reconciler *webhooks.Reconciler
	Dispatcher *dispatch.Dispatcher
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	clients, err := db.NewClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := shopify.NewClient(cfg.Shopify.APIVersion, cfg.Shopify.HTTPTimeout)

	a := &App{
		Config:     cfg,
		Log:        log,
		Shopify:    client,
		Reconciler: webhooks.NewReconciler(webhooks.DefaultCatalog(cfg.PubSub.Project), client, log),
	}

	var creds dispatch.CredentialSource
	var opts []dispatch.Option
	if cfg.SingleTenant() {
		creds = tenancy.Static{Cred: shopify.Credential{Shop: cfg.Shopify.Shop, AccessToken: cfg.Shopify.AccessToken}}
		opts = append(opts, dispatch.WithDefaultShop(cfg.Shopify.Shop))
		log.Info("single-tenant mode", zap.String("shop", cfg.Shopify.Shop))
	}
	if cfg.Tables.Shops != "" {
		key, err := cfg.TokenKey(ctx, clients.SSM)
		if err != nil {
			return nil, err
		}
		sealer, err := security.NewTokenSealer(key)
		if err != nil {
			return nil, fmt.Errorf("token sealer: %w", err)
		}
		a.Store = tenancy.NewStore(clients.Dynamo, cfg.Tables.Shops, sealer)
		if creds == nil {
			creds = a.Store
		}
	}

	notifier := alerts.New(clients.SNS, cfg.Alerts.TopicArn)
	a.Dispatcher = dispatch.NewDispatcher(
		creds,
		client,
		automation.NewPaymentTermsRule(client, notifier, log),
		automation.NewShippingRule(client, log),
		log,
		opts...,
	)
	return a, nil
}
