package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"automations/internal/security"
	"automations/internal/shopify"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound means no credential is stored for the shop.
var ErrNotFound = errors.New("shop not installed")

type DDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// ShopItem mirrors the DynamoDB item.
// PK = SHOP#<shopDomain>
type ShopItem struct {
	PK                 string `dynamodbav:"PK"`
	Shop               string `dynamodbav:"Shop"`
	AccessTokenEnc     string `dynamodbav:"AccessTokenEnc"`
	CreatedAt          string `dynamodbav:"CreatedAt"`
	UpdatedAt          string `dynamodbav:"UpdatedAt"`
	LastEventAt        string `dynamodbav:"LastEventAt,omitempty"`
	LastEventTopic     string `dynamodbav:"LastEventTopic,omitempty"`
	LastEventWebhookId string `dynamodbav:"LastEventWebhookId,omitempty"`
}

func ShopPK(shop string) string {
	return fmt.Sprintf("SHOP#%s", NormalizeShop(shop))
}

func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// Store keeps one encrypted access token per shop.
type Store struct {
	ddb    DDBClient
	table  string
	sealer *security.TokenSealer
	now    func() time.Time
}

func NewStore(ddb DDBClient, table string, sealer *security.TokenSealer) *Store {
	return &Store{
		ddb:    ddb,
		table:  table,
		sealer: sealer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) key(shop string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: ShopPK(shop)},
	}
}

func (s *Store) getItem(ctx context.Context, shop string) (*ShopItem, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(shop),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", ShopPK(shop), err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item ShopItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode shop item: %w", err)
	}
	return &item, nil
}

// Get loads and decrypts the credential of shop, or returns ErrNotFound.
func (s *Store) Get(ctx context.Context, shop string) (shopify.Credential, error) {
	item, err := s.getItem(ctx, shop)
	if err != nil {
		return shopify.Credential{}, err
	}
	if item == nil || strings.TrimSpace(item.AccessTokenEnc) == "" {
		return shopify.Credential{}, ErrNotFound
	}

	token, err := s.sealer.Open(item.AccessTokenEnc)
	if err != nil {
		return shopify.Credential{}, fmt.Errorf("failed to decrypt token: %w", err)
	}
	return shopify.Credential{Shop: item.Shop, AccessToken: token}, nil
}

// Set creates or replaces the credential. CreatedAt and last-event fields survive a replace.
func (s *Store) Set(ctx context.Context, cred shopify.Credential) error {
	shop := NormalizeShop(cred.Shop)
	if shop == "" || cred.AccessToken == "" {
		return errors.New("missing shop/access token")
	}

	enc, err := s.sealer.Seal(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	now := s.now().Format(time.RFC3339)
	item := ShopItem{
		PK:             ShopPK(shop),
		Shop:           shop,
		AccessTokenEnc: enc,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := s.getItem(ctx, shop)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.CreatedAt != "" {
			item.CreatedAt = existing.CreatedAt
		}
		item.LastEventAt = existing.LastEventAt
		item.LastEventTopic = existing.LastEventTopic
		item.LastEventWebhookId = existing.LastEventWebhookId
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode shop item: %w", err)
	}
	if _, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamodb put %s: %w", item.PK, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, shop string) error {
	if _, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(shop),
	}); err != nil {
		return fmt.Errorf("dynamodb delete %s: %w", ShopPK(shop), err)
	}
	return nil
}

// TouchLastEvent records the last event received for an installed shop.
// Shops without an item are left alone.
func (s *Store) TouchLastEvent(ctx context.Context, shop, topic, webhookID string) error {
	// Only set webhook id if present (avoid storing empty string forever).
	updateExpr := "SET LastEventAt=:a, LastEventTopic=:t"
	exprVals := map[string]ddbtypes.AttributeValue{
		":a": &ddbtypes.AttributeValueMemberS{Value: s.now().Format(time.RFC3339)},
		":t": &ddbtypes.AttributeValueMemberS{Value: topic},
	}
	if strings.TrimSpace(webhookID) != "" {
		updateExpr += ", LastEventWebhookId=:w"
		exprVals[":w"] = &ddbtypes.AttributeValueMemberS{Value: webhookID}
	}

	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(shop),
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: exprVals,
	})
	var cfe *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dynamodb update %s: %w", ShopPK(shop), err)
	}
	return nil
}

// Static serves a single configured credential.
type Static struct {
	Cred shopify.Credential
}

func (s Static) Get(_ context.Context, shop string) (shopify.Credential, error) {
	if NormalizeShop(shop) != NormalizeShop(s.Cred.Shop) {
		return shopify.Credential{}, ErrNotFound
	}
	return s.Cred, nil
}
