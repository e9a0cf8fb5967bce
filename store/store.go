package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	dynamodb.QueryAPIClient
	dynamodb.ScanAPIClient
}

// Store provides DynamoDB operations over single-key tables.
type Store struct {
	client DynamoAPI
	config Config
}

// New creates a new Store instance.
func New(client DynamoAPI, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Get retrieves an item by key, returning ErrNotFound if it is missing.
func (s *Store) Get(ctx context.Context, table string, key Key) (Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key.attributes(),
		ConsistentRead: aws.Bool(s.config.ConsistentReads),
	})
	if err != nil {
		return nil, wrapAWSError(err, "get item")
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return Item(result.Item), nil
}

// Put writes an item unconditionally, replacing any item with the same key.
func (s *Store) Put(ctx context.Context, table string, item Item) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return wrapAWSError(err, "put item")
}

// Create inserts an item only if no item with the same key exists.
// Returns ErrAlreadyExists when the key is taken.
func (s *Store) Create(ctx context.Context, table string, key Key, item Item) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(key.Name))).
		Build()
	if err != nil {
		return fmt.Errorf("build create expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAlreadyExists
		}
		return wrapAWSError(err, "create item")
	}
	return nil
}

// Update sets the given string attributes on an existing item.
// The key attribute itself is never rewritten. Returns ErrNotFound if the
// item does not exist, so an update never materializes a partial item.
func (s *Store) Update(ctx context.Context, table string, key Key, fields map[string]string) error {
	update, ok := updateBuilder(key, fields)
	if !ok {
		return fmt.Errorf("update %s: no attributes to set", table)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(key.Name))).
		Build()
	if err != nil {
		return fmt.Errorf("build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key.attributes(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return wrapAWSError(err, "update item")
	}
	return nil
}

// QueryByIndex returns every item whose index attribute equals value.
// Secondary index reads are eventually consistent.
func (s *Store) QueryByIndex(ctx context.Context, table string, index Index, value string) ([]Item, error) {
	keyCond := expression.Key(index.Attribute).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(index.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if s.config.PageSize > 0 {
		queryInput.Limit = aws.Int32(s.config.PageSize)
	}

	// Paginate through all results
	items := []Item{}
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAWSError(err, "query "+index.Name)
		}
		for _, raw := range page.Items {
			items = append(items, Item(raw))
		}
	}

	return items, nil
}

// Scan returns every item in the table, materialized in memory.
func (s *Store) Scan(ctx context.Context, table string) ([]Item, error) {
	scanInput := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	if s.config.PageSize > 0 {
		scanInput.Limit = aws.Int32(s.config.PageSize)
	}

	items := []Item{}
	paginator := dynamodb.NewScanPaginator(s.client, scanInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAWSError(err, "scan "+table)
		}
		for _, raw := range page.Items {
			items = append(items, Item(raw))
		}
	}

	return items, nil
}

// updateBuilder builds a SET clause for fields, skipping the key attribute.
// Attribute order is sorted so the generated expression is stable.
func updateBuilder(key Key, fields map[string]string) (expression.UpdateBuilder, bool) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == key.Name {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(fields[name]))
	}
	return update, len(names) > 0
}

// wrapAWSError wraps AWS SDK errors, identifying throttling errors.
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var provisionedErr *types.ProvisionedThroughputExceededException
	if errors.As(err, &provisionedErr) {
		return fmt.Errorf("%s: %w: %v", msg, ErrThrottled, err)
	}
	var limitErr *types.RequestLimitExceeded
	if errors.As(err, &limitErr) {
		return fmt.Errorf("%s: %w: %v", msg, ErrThrottled, err)
	}

	// Not every throttling response is modelled as a typed error
	if strings.Contains(err.Error(), "ThrottlingException") {
		return fmt.Errorf("%s: %w: %v", msg, ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
