package main

import (
	"context"
	"log"

	"automations/internal/app"
	"automations/internal/handlers"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer func() { _ = a.Log.Sync() }()

	lambda.Start(handlers.NewSQSEventsHandler(a.Dispatcher, a.Log).Handle)
}
