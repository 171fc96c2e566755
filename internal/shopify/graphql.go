package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Credential scopes Admin API calls to one shop.
type Credential struct {
	Shop        string
	AccessToken string
}

type GraphQLErrorItem struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

// GraphQLError is returned when the response carries top-level errors.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, it := range e.Errors {
		if it.Extensions.Code != "" {
			msgs = append(msgs, it.Message+" ("+it.Extensions.Code+")")
		} else {
			msgs = append(msgs, it.Message)
		}
	}
	return "shopify graphql: " + strings.Join(msgs, "; ")
}

// HTTPError is a non-2xx answer from the Admin API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shopify graphql: http %d: %s", e.StatusCode, e.Body)
}

type graphQLResponse[T any] struct {
	Data   T                  `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// Client talks to the Admin GraphQL API of any shop it is given a credential for.
type Client struct {
	http       *resty.Client
	apiVersion string
	endpoint   func(shop string) string
}

type Option func(*Client)

// WithEndpoint overrides the per-shop GraphQL URL.
func WithEndpoint(fn func(shop string) string) Option {
	return func(c *Client) { c.endpoint = fn }
}

func NewClient(apiVersion string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		apiVersion: apiVersion,
	}
	c.endpoint = func(shop string) string {
		return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostGraphQL runs one query or mutation and decodes its data into T.
func PostGraphQL[T any](ctx context.Context, c *Client, cred Credential, query string, variables any) (*T, error) {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", cred.AccessToken).
		SetBody(body).
		Post(c.endpoint(cred.Shop))
	if err != nil {
		return nil, fmt.Errorf("shopify graphql request: %w", err)
	}
	if res.IsError() {
		return nil, &HTTPError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	var out graphQLResponse[T]
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("shopify graphql decode: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, &GraphQLError{Errors: out.Errors}
	}
	return &out.Data, nil
}
