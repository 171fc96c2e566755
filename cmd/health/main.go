package main

import (
	"context"
	"encoding/json"

	"automations/internal/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

type HealthResponse struct {
	OK         bool   `json:"ok"`
	Service    string `json:"service"`
	APIVersion string `json:"apiVersion"`
	Mode       string `json:"mode"`
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	res := HealthResponse{OK: true, Service: "shop-automations", Mode: "multi-tenant"}
	status := 200

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		res.OK = false
		status = 503
	} else {
		res.APIVersion = cfg.Shopify.APIVersion
		if cfg.SingleTenant() {
			res.Mode = "single-tenant"
		}
	}

	body, _ := json.Marshal(res)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(body),
	}, nil
}

func main() {
	lambda.Start(handler)
}
