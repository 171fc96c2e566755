package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Token     string
	Path      string
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newTestClient answers every GraphQL call with respond and records the requests.
func newTestClient(t *testing.T, respond func(w http.ResponseWriter, req capturedRequest)) (*Client, *[]capturedRequest) {
	t.Helper()
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req capturedRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		req.Token = r.Header.Get("X-Shopify-Access-Token")
		req.Path = r.URL.Path
		got = append(got, req)
		w.Header().Set("Content-Type", "application/json")
		respond(w, req)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("2025-01", 5*time.Second, WithEndpoint(func(shop string) string {
		return srv.URL + "/" + shop + "/graphql.json"
	}))
	return c, &got
}

var testCred = Credential{Shop: "demo.myshopify.com", AccessToken: "shpat_test"}

func TestPostGraphQL_Success(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"shop":{"name":"Demo","myshopifyDomain":"demo.myshopify.com"}}}`)
	})

	shop, err := c.ShopInfo(context.Background(), testCred)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", shop.MyshopifyDomain)

	require.Len(t, *got, 1)
	assert.Equal(t, "shpat_test", (*got)[0].Token)
	assert.Equal(t, "/demo.myshopify.com/graphql.json", (*got)[0].Path)
	assert.Contains(t, (*got)[0].Query, "myshopifyDomain")
}

func TestPostGraphQL_TopLevelErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":null,"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`)
	})

	_, err := c.OrderByID(context.Background(), testCred, "gid://shopify/Order/1")
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Len(t, gqlErr.Errors, 1)
	assert.Contains(t, err.Error(), "Throttled (THROTTLED)")
}

func TestPostGraphQL_HTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":"[API] Invalid API key or access token"}`)
	})

	_, err := c.ShopInfo(context.Background(), testCred)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestPostGraphQL_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient("2025-01", time.Second, WithEndpoint(func(string) string { return url }))
	_, err := c.ListWebhooks(context.Background(), testCred)
	require.Error(t, err)

	var gqlErr *GraphQLError
	assert.False(t, errors.As(err, &gqlErr))
}

func TestOrderByID(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"order":{
			"id":"gid://shopify/Order/1","name":"#1001","tags":["a"],
			"displayFulfillmentStatus":"FULFILLED",
			"paymentTerms":{"id":"gid://shopify/PaymentTerms/9","paymentTermsType":"NET",
				"paymentSchedules":{"nodes":[{"id":"gid://shopify/PaymentSchedule/3","issuedAt":null,"completedAt":null}]}}}}}`)
	})

	order, err := c.OrderByID(context.Background(), testCred, "gid://shopify/Order/1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, PaymentTermsNet, order.PaymentTerms.PaymentTermsType)
	require.Len(t, order.PaymentTerms.Schedules(), 1)
	assert.Nil(t, order.PaymentTerms.Schedules()[0].CompletedAt)
	assert.Equal(t, "gid://shopify/Order/1", (*got)[0].Variables["id"])
}

func TestOrderByID_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"order":null}}`)
	})

	order, err := c.OrderByID(context.Background(), testCred, "gid://shopify/Order/404")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestSetPaymentScheduleIssuedAt(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"paymentTermsUpdate":{"paymentTerms":null,"userErrors":[{"field":["paymentTermsId"],"message":"bad"}]}}}`)
	})

	userErrs, err := c.SetPaymentScheduleIssuedAt(context.Background(), testCred, "gid://shopify/PaymentTerms/9", "2026-01-02T03:04:05.000Z")
	require.NoError(t, err)
	require.Len(t, userErrs, 1)
	assert.Equal(t, "bad", userErrs[0].Message)

	input := (*got)[0].Variables["input"].(map[string]any)
	assert.Equal(t, "gid://shopify/PaymentTerms/9", input["paymentTermsId"])
	schedules := input["paymentTermsAttributes"].(map[string]any)["paymentSchedules"].([]any)
	assert.Equal(t, "2026-01-02T03:04:05.000Z", schedules[0].(map[string]any)["issuedAt"])
}

func TestTagsAdd(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, req capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"tagsAdd":{"userErrors":[{"field":["tags"],"message":"too long"}]}}}`)
	})

	userErrs, err := c.TagsAdd(context.Background(), testCred, "gid://shopify/Order/1", []string{"x"})
	require.NoError(t, err)
	require.Len(t, userErrs, 1)
	assert.Equal(t, "too long", userErrs[0].Message)

	require.Len(t, *got, 1)
	assert.Contains(t, (*got)[0].Query, "tagsAdd(")
	assert.Equal(t, []any{"x"}, (*got)[0].Variables["tags"])
}

func TestSetDraftOrderShippingLine(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"data":{"draftOrderUpdate":{"draftOrder":{"id":"gid://shopify/DraftOrder/5","totalShippingPrice":"0.00","shippingLine":{"title":"FREE SHIPPING","custom":true}},"userErrors":[]}}}`)
	})

	draft, userErrs, err := c.SetDraftOrderShippingLine(context.Background(), testCred, "gid://shopify/DraftOrder/5",
		ShippingLineInput{Price: "0.00", Title: "FREE SHIPPING"})
	require.NoError(t, err)
	assert.Empty(t, userErrs)
	assert.Equal(t, "0.00", draft.TotalShippingPrice)

	line := (*got)[0].Variables["input"].(map[string]any)["shippingLine"].(map[string]any)
	assert.Equal(t, "0.00", line["price"])
	assert.Equal(t, "FREE SHIPPING", line["title"])
}

func TestWebhookCalls(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, req capturedRequest) {
		switch {
		case req.Variables == nil:
			_, _ = io.WriteString(w, `{"data":{"webhookSubscriptions":{"nodes":[
				{"id":"gid://shopify/WebhookSubscription/1","topic":"FULFILLMENTS_CREATE",
				 "endpoint":{"__typename":"WebhookPubSubEndpoint","pubSubProject":"p","pubSubTopic":"t"}}]}}}`)
		case req.Variables["topic"] != nil:
			_, _ = io.WriteString(w, `{"data":{"pubSubWebhookSubscriptionCreate":{"webhookSubscription":{"id":"gid://shopify/WebhookSubscription/2","topic":"FULFILLMENTS_CREATE"},"userErrors":[]}}}`)
		default:
			_, _ = io.WriteString(w, `{"data":{"webhookSubscriptionDelete":{"deletedWebhookSubscriptionId":"gid://shopify/WebhookSubscription/1","userErrors":[]}}}`)
		}
	})
	ctx := context.Background()

	subs, err := c.ListWebhooks(ctx, testCred)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "t", subs[0].Endpoint.PubSubTopic)

	sub, userErrs, err := c.CreatePubSubWebhook(ctx, testCred, "FULFILLMENTS_CREATE", PubSubEndpoint{Project: "p", Topic: "t"})
	require.NoError(t, err)
	assert.Empty(t, userErrs)
	assert.Equal(t, "gid://shopify/WebhookSubscription/2", sub.ID)
	input := (*got)[1].Variables["input"].(map[string]any)
	assert.Equal(t, "JSON", input["format"])
	assert.Equal(t, "p", input["pubSubProject"])

	userErrs, err = c.DeleteWebhook(ctx, testCred, "gid://shopify/WebhookSubscription/1")
	require.NoError(t, err)
	assert.Empty(t, userErrs)
}

func TestGlobalIDs(t *testing.T) {
	assert.Equal(t, "gid://shopify/Order/123", GlobalID(KindOrder, 123))
	assert.True(t, IsKind("gid://shopify/DraftOrder/9", KindDraftOrder))
	assert.False(t, IsKind("gid://shopify/Order/9", KindDraftOrder))
	assert.False(t, IsKind("gid://shopify/Fulfillment/9", KindOrder))
}
