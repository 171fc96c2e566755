package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

type apiResponse struct {
	Success bool      `json:"success"`
	Method  string    `json:"method,omitempty"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Title   string            `json:"title"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Tip     string            `json:"tip,omitempty"`
}

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func okResp(data any, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(http.StatusOK, apiResponse{Success: true, Data: data, Message: msg})
}

func errResp(status int, e apiError) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, apiResponse{Error: &e})
}

func internalErr(method string, err error) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(http.StatusInternalServerError, apiResponse{
		Method: method,
		Error:  &apiError{Title: "Internal server error", Message: err.Error()},
	})
}

func requestBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func isValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	if strings.Contains(shop, "/") || strings.Contains(shop, " ") {
		return false
	}
	return len(shop) >= len("a.myshopify.com")
}
