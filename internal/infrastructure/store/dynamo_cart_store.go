package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/cafe-storefront/internal/domain/cart"
)

// DynamoCartStore persists carts in DynamoDB, one item per user keyed by
// user_id, holding the full serialized cart.
type DynamoCartStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoCart is the DynamoDB item structure.
type dynamoCart struct {
	UserID    string `dynamodbav:"user_id"`
	Data      string `dynamodbav:"data"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoCartStore(client *dynamodb.Client, tableName string) *DynamoCartStore {
	return &DynamoCartStore{client: client, tableName: tableName}
}

// ConnectDynamo builds a DynamoDB client from the ambient AWS configuration.
func ConnectDynamo(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func (s *DynamoCartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if result.Item == nil {
		return cart.New(userID), nil
	}

	var item dynamoCart
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		// Malformed item, same treatment as corrupt JSON.
		return cart.New(userID), nil
	}
	return decodeCart(userID, []byte(item.Data)), nil
}

func (s *DynamoCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := encodeCart(c)
	if err != nil {
		return err
	}

	item := dynamoCart{
		UserID:    c.UserID,
		Data:      string(data),
		UpdatedAt: time.Now().Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cart: %w", err)
	}
	return nil
}

func (s *DynamoCartStore) Clear(ctx context.Context, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
