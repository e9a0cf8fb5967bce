// Package bootstrap provisions the DynamoDB tables and SQS queues used by
// local deployments (DynamoDB Local and ElasticMQ).
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/jacentio/roster/directory"
	"github.com/jacentio/roster/store"
)

const tableActiveTimeout = 30 * time.Second

// TablesAPI is the subset of the DynamoDB client used to create tables.
type TablesAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	dynamodb.DescribeTableAPIClient
}

// QueuesAPI is the subset of the SQS client used to create queues.
type QueuesAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
}

// TableInput builds the CreateTable request for a schema: a string hash key
// plus one all-projected GSI per index, on on-demand billing.
func TableInput(schema store.TableSchema) *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{{
		AttributeName: aws.String(schema.KeyAttr),
		AttributeType: types.ScalarAttributeTypeS,
	}}
	seen := map[string]bool{schema.KeyAttr: true}

	var gsis []types.GlobalSecondaryIndex
	for _, idx := range schema.Indexes {
		if !seen[idx.Attribute] {
			seen[idx.Attribute] = true
			attrs = append(attrs, types.AttributeDefinition{
				AttributeName: aws.String(idx.Attribute),
				AttributeType: types.ScalarAttributeTypeS,
			})
		}
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName: aws.String(idx.Name),
			KeySchema: []types.KeySchemaElement{{
				AttributeName: aws.String(idx.Attribute),
				KeyType:       types.KeyTypeHash,
			}},
			Projection: &types.Projection{
				ProjectionType: types.ProjectionTypeAll,
			},
		})
	}

	return &dynamodb.CreateTableInput{
		TableName: aws.String(schema.Name),
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(schema.KeyAttr),
			KeyType:       types.KeyTypeHash,
		}},
		AttributeDefinitions:   attrs,
		GlobalSecondaryIndexes: gsis,
		BillingMode:            types.BillingModePayPerRequest,
	}
}

// CreateTables creates every table that does not exist yet and waits for
// the new ones to become active. Existing tables are left untouched.
func CreateTables(ctx context.Context, client TablesAPI, schemas []store.TableSchema, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, schema := range schemas {
		_, err := client.CreateTable(ctx, TableInput(schema))
		if err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				logger.Info("table exists", "table", schema.Name)
				continue
			}
			return fmt.Errorf("create table %s: %w", schema.Name, err)
		}

		waiter := dynamodb.NewTableExistsWaiter(client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(schema.Name),
		}, tableActiveTimeout); err != nil {
			return fmt.Errorf("wait for table %s: %w", schema.Name, err)
		}
		logger.Info("table created", "table", schema.Name, "indexes", len(schema.Indexes))
	}
	return nil
}

// QueueNames returns the queue name for each command type, e.g.
// "roster-create-organization", with a ".fifo" suffix for FIFO queues.
func QueueNames(prefix string, fifo bool) map[directory.CommandType]string {
	names := make(map[directory.CommandType]string, len(directory.CommandTypes))
	for _, ct := range directory.CommandTypes {
		name := kebab(string(ct))
		if prefix != "" {
			name = prefix + "-" + name
		}
		if fifo {
			name += ".fifo"
		}
		names[ct] = name
	}
	return names
}

// CreateQueues creates the named queues, reusing any that already exist,
// and returns their URLs.
func CreateQueues(ctx context.Context, client QueuesAPI, names map[directory.CommandType]string, fifo bool, logger *slog.Logger) (map[directory.CommandType]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := map[string]string{
		string(sqstypes.QueueAttributeNameVisibilityTimeout): "30",
	}
	if fifo {
		attrs[string(sqstypes.QueueAttributeNameFifoQueue)] = "true"
	}

	urls := make(map[directory.CommandType]string, len(names))
	for ct, name := range names {
		out, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{
			QueueName:  aws.String(name),
			Attributes: attrs,
		})
		if err == nil {
			urls[ct] = aws.ToString(out.QueueUrl)
			logger.Info("queue created", "queue", name, "queueUrl", urls[ct])
			continue
		}
		if !queueExists(err) {
			return nil, fmt.Errorf("create queue %s: %w", name, err)
		}

		existing, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
		if err != nil {
			return nil, fmt.Errorf("get queue %s: %w", name, err)
		}
		urls[ct] = aws.ToString(existing.QueueUrl)
		logger.Info("queue exists", "queue", name, "queueUrl", urls[ct])
	}
	return urls, nil
}

func queueExists(err error) bool {
	var exists *sqstypes.QueueNameExists
	if errors.As(err, &exists) {
		return true
	}
	// ElasticMQ reports a generic error code
	return strings.Contains(err.Error(), "QueueAlreadyExists") || strings.Contains(err.Error(), "already exists")
}

// kebab turns "createOrganization" into "create-organization".
func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
