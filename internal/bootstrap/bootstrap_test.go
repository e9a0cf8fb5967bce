package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/jacentio/roster/directory"
)

func TestTableInput(t *testing.T) {
	schemas := directory.DefaultTables().Schemas()
	users := TableInput(schemas[1])

	if aws.ToString(users.TableName) != "users" {
		t.Errorf("expected table 'users', got %q", aws.ToString(users.TableName))
	}
	if users.BillingMode != types.BillingModePayPerRequest {
		t.Errorf("expected on-demand billing, got %s", users.BillingMode)
	}
	if len(users.AttributeDefinitions) != 3 {
		t.Errorf("expected userId, email and orgId definitions, got %d", len(users.AttributeDefinitions))
	}

	indexes := map[string]string{}
	for _, gsi := range users.GlobalSecondaryIndexes {
		indexes[aws.ToString(gsi.IndexName)] = aws.ToString(gsi.KeySchema[0].AttributeName)
	}
	if indexes["EmailIndex"] != "email" || indexes["OrgIdIndex"] != "orgId" {
		t.Errorf("unexpected indexes %v", indexes)
	}
}

func TestQueueNames(t *testing.T) {
	tests := []struct {
		prefix string
		fifo   bool
		want   string
	}{
		{"", false, "create-organization"},
		{"roster", false, "roster-create-organization"},
		{"roster", true, "roster-create-organization.fifo"},
	}

	for _, tt := range tests {
		names := QueueNames(tt.prefix, tt.fifo)
		if got := names[directory.CommandCreateOrganization]; got != tt.want {
			t.Errorf("QueueNames(%q, %v) = %q, want %q", tt.prefix, tt.fifo, got, tt.want)
		}
		if len(names) != len(directory.CommandTypes) {
			t.Errorf("expected one queue per command type, got %d", len(names))
		}
	}
	if got := QueueNames("", false)[directory.CommandUpdateUser]; got != "update-user" {
		t.Errorf("expected 'update-user', got %q", got)
	}
}

// --- Fakes ---

type fakeTables struct {
	created []string
}

func (f *fakeTables) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.created = append(f.created, aws.ToString(in.TableName))
	return nil, &types.ResourceInUseException{Message: aws.String("Table already exists")}
}

func (f *fakeTables) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func TestCreateTables_ExistingTablesAreKept(t *testing.T) {
	fake := &fakeTables{}

	if err := CreateTables(context.Background(), fake, directory.DefaultTables().Schemas(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.created) != 2 {
		t.Errorf("expected 2 create attempts, got %v", fake.created)
	}
}

type fakeQueues struct {
	existing map[string]bool
	inputs   []*sqs.CreateQueueInput
}

func (f *fakeQueues) CreateQueue(_ context.Context, in *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	f.inputs = append(f.inputs, in)
	name := aws.ToString(in.QueueName)
	if f.existing[name] {
		return nil, &sqstypes.QueueNameExists{Message: aws.String("queue exists")}
	}
	return &sqs.CreateQueueOutput{QueueUrl: aws.String("http://localhost:9324/queue/" + name)}, nil
}

func (f *fakeQueues) GetQueueUrl(_ context.Context, in *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("http://localhost:9324/existing/" + aws.ToString(in.QueueName))}, nil
}

func TestCreateQueues(t *testing.T) {
	fake := &fakeQueues{existing: map[string]bool{"update-user.fifo": true}}

	urls, err := CreateQueues(context.Background(), fake, QueueNames("", true), true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := urls[directory.CommandCreateUser]; got != "http://localhost:9324/queue/create-user.fifo" {
		t.Errorf("unexpected create-user URL %q", got)
	}
	if got := urls[directory.CommandUpdateUser]; got != "http://localhost:9324/existing/update-user.fifo" {
		t.Errorf("expected existing queue URL, got %q", got)
	}
	for _, in := range fake.inputs {
		if in.Attributes["FifoQueue"] != "true" {
			t.Errorf("expected FifoQueue attribute on %s", aws.ToString(in.QueueName))
		}
	}
}

func TestQueueExists(t *testing.T) {
	if !queueExists(errors.New("api error QueueAlreadyExists: queue exists")) {
		t.Error("expected ElasticMQ style error to match")
	}
	if queueExists(errors.New("access denied")) {
		t.Error("expected unrelated error not to match")
	}
}
