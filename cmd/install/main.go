package main

import (
	"context"
	"log"

	"automations/internal/app"
	"automations/internal/handlers"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	if a.Store == nil {
		log.Fatalf("install requires SHOPS_TABLE")
	}

	h := handlers.NewInstallHandler(a.Store, a.Shopify, a.Reconciler, a.Log)
	lambda.Start(h.Handle)
}
