package tenancy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"automations/internal/security"
	"automations/internal/shopify"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDDB is an in-memory table keyed by PK.
type fakeDDB struct {
	items  map[string]map[string]ddbtypes.AttributeValue
	err    error
	tables []string
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func pkOf(key map[string]ddbtypes.AttributeValue) string {
	return key["PK"].(*ddbtypes.AttributeValueMemberS).Value
}

func (f *fakeDDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.tables = append(f.tables, aws.ToString(in.TableName))
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.items[pkOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, pkOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// UpdateItem understands "SET A=:a, B=:b" and attribute_exists(PK).
func (f *fakeDDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	pk := pkOf(in.Key)
	item, ok := f.items[pk]
	if !ok {
		if aws.ToString(in.ConditionExpression) == "attribute_exists(PK)" {
			return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}
		}
		item = map[string]ddbtypes.AttributeValue{"PK": in.Key["PK"]}
		f.items[pk] = item
	}
	expr := strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET ")
	for _, assign := range strings.Split(expr, ", ") {
		name, placeholder, _ := strings.Cut(assign, "=")
		item[name] = in.ExpressionAttributeValues[placeholder]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func strAttr(item map[string]ddbtypes.AttributeValue, name string) string {
	v, ok := item[name].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return v.Value
}

func newTestStore(t *testing.T, ddb DDBClient, at time.Time) *Store {
	t.Helper()
	sealer, err := security.NewTokenSealer(make([]byte, security.KeySize))
	require.NoError(t, err)
	s := NewStore(ddb, "shops", sealer)
	s.now = func() time.Time { return at }
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	s := newTestStore(t, ddb, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := s.Get(ctx, "demo.myshopify.com")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, shopify.Credential{Shop: " Demo.myshopify.com ", AccessToken: "shpat_1"}))

	item := ddb.items["SHOP#demo.myshopify.com"]
	require.NotNil(t, item)
	assert.NotEqual(t, "shpat_1", strAttr(item, "AccessTokenEnc"))
	assert.Equal(t, "2026-01-01T00:00:00Z", strAttr(item, "CreatedAt"))

	cred, err := s.Get(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, shopify.Credential{Shop: "demo.myshopify.com", AccessToken: "shpat_1"}, cred)
	assert.Contains(t, ddb.tables, "shops")

	require.NoError(t, s.Delete(ctx, "demo.myshopify.com"))
	_, err = s.Get(ctx, "demo.myshopify.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceKeepsCreatedAtAndLastEvent(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	s := newTestStore(t, ddb, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Set(ctx, shopify.Credential{Shop: "demo.myshopify.com", AccessToken: "old"}))
	require.NoError(t, s.TouchLastEvent(ctx, "demo.myshopify.com", "fulfillments/create", "wh-1"))

	s.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, s.Set(ctx, shopify.Credential{Shop: "demo.myshopify.com", AccessToken: "new"}))

	item := ddb.items["SHOP#demo.myshopify.com"]
	assert.Equal(t, "2026-01-01T00:00:00Z", strAttr(item, "CreatedAt"))
	assert.Equal(t, "2026-02-01T00:00:00Z", strAttr(item, "UpdatedAt"))
	assert.Equal(t, "fulfillments/create", strAttr(item, "LastEventTopic"))
	assert.Equal(t, "wh-1", strAttr(item, "LastEventWebhookId"))

	cred, err := s.Get(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "new", cred.AccessToken)
}

func TestStore_TouchLastEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown shop is ignored", func(t *testing.T) {
		ddb := newFakeDDB()
		s := newTestStore(t, ddb, time.Now())
		require.NoError(t, s.TouchLastEvent(ctx, "ghost.myshopify.com", "orders/updated", ""))
		assert.Empty(t, ddb.items)
	})

	t.Run("empty webhook id is not stored", func(t *testing.T) {
		ddb := newFakeDDB()
		s := newTestStore(t, ddb, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, s.Set(ctx, shopify.Credential{Shop: "demo.myshopify.com", AccessToken: "t"}))
		require.NoError(t, s.TouchLastEvent(ctx, "demo.myshopify.com", "draft_orders/update", ""))

		item := ddb.items["SHOP#demo.myshopify.com"]
		assert.Equal(t, "2026-03-01T12:00:00Z", strAttr(item, "LastEventAt"))
		_, has := item["LastEventWebhookId"]
		assert.False(t, has)
	})

	t.Run("transport error is wrapped", func(t *testing.T) {
		ddb := newFakeDDB()
		ddb.err = errors.New("boom")
		s := newTestStore(t, ddb, time.Now())
		err := s.TouchLastEvent(ctx, "demo.myshopify.com", "orders/updated", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestStore_SetRejectsEmpty(t *testing.T) {
	s := newTestStore(t, newFakeDDB(), time.Now())
	require.Error(t, s.Set(context.Background(), shopify.Credential{Shop: "demo.myshopify.com"}))
}

func TestStatic(t *testing.T) {
	src := Static{Cred: shopify.Credential{Shop: "demo.myshopify.com", AccessToken: "t"}}

	cred, err := src.Get(context.Background(), "DEMO.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "t", cred.AccessToken)

	_, err = src.Get(context.Background(), "other.myshopify.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
