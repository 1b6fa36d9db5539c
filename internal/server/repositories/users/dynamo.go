package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/server/models"
)

var newDynamoClientFromConfig = func(cfg aws.Config, optFns ...func(*dynamodb.Options)) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, optFns...)
}

// DynamoAPI is the part of *dynamodb.Client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// NewDynamoClient builds a DynamoDB client. A non-empty endpoint points it
// at DynamoDB Local or another compatible service.
func NewDynamoClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return newDynamoClientFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// dynamoItem is the stored layout. Timestamps are epoch milliseconds.
type dynamoItem struct {
	Email        string            `dynamodbav:"email"`
	UserID       string            `dynamodbav:"userId"`
	Username     string            `dynamodbav:"username,omitempty"`
	PasswordHash string            `dynamodbav:"passwordHash"`
	Properties   models.Properties `dynamodbav:"properties"`
	CreatedAt    int64             `dynamodbav:"createdAt"`
	ModifiedAt   int64             `dynamodbav:"modifiedAt"`
}

func toItem(u *models.User) dynamoItem {
	return dynamoItem{
		Email:        u.Email,
		UserID:       u.UserID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Properties:   u.Properties,
		CreatedAt:    u.CreatedAt.UnixMilli(),
		ModifiedAt:   u.ModifiedAt.UnixMilli(),
	}
}

func (it dynamoItem) toUser() *models.User {
	return &models.User{
		Email:        it.Email,
		UserID:       it.UserID,
		Username:     it.Username,
		PasswordHash: it.PasswordHash,
		Properties:   it.Properties,
		CreatedAt:    time.UnixMilli(it.CreatedAt).UTC(),
		ModifiedAt:   time.UnixMilli(it.ModifiedAt).UTC(),
	}
}

type DynamoRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{client: client, table: table}
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		common.EmailKey: &types.AttributeValueMemberS{Value: email},
	}
}

func (r *DynamoRepository) Get(ctx context.Context, email string) (*models.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, common.ErrorNotFound
	}

	var it dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("dynamodb decode: %w", err)
	}

	return it.toUser(), nil
}

// Create writes user with a condition that no item holds the same email, so
// concurrent registrations of one address leave exactly one record.
func (r *DynamoRepository) Create(ctx context.Context, user *models.User) error {
	item, err := attributevalue.MarshalMap(toItem(user))
	if err != nil {
		return fmt.Errorf("dynamodb encode: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#email)"),
		ExpressionAttributeNames: map[string]string{"#email": common.EmailKey},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("dynamodb put: %w", err)
	}

	return nil
}

func (r *DynamoRepository) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       emailKey(email),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}

// EnsureTable creates the users table keyed by email if it does not exist.
// It is meant for DynamoDB Local; production tables are provisioned outside
// the process.
func (r *DynamoRepository) EnsureTable(ctx context.Context) error {
	_, err := r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(common.EmailKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(common.EmailKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("dynamodb create table: %w", err)
	}
	return nil
}
