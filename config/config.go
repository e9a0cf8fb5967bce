// Package config loads runtime configuration from the environment.
package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jacentio/roster/directory"
)

// Execution modes
const (
	ModeDirect = "direct"
	ModeQueued = "queued"
)

// Static credentials accepted by DynamoDB Local and ElasticMQ.
const (
	offlineAccessKeyID     = "fakeMyKeyId"
	offlineSecretAccessKey = "fakeSecretAccessKey"
)

// Config holds the process configuration.
type Config struct {
	// Offline points the AWS clients at local emulators with static credentials.
	Offline bool `env:"IS_OFFLINE" env-default:"false"`

	Region           string `env:"AWS_REGION" env-default:"us-east-1"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT" env-default:"http://localhost:8000"`
	SQSEndpoint      string `env:"SQS_ENDPOINT" env-default:"http://localhost:9324"`

	Tables TablesConfig
	Queues QueuesConfig

	// Mode selects how commands reach the store: "direct" or "queued".
	Mode string `env:"EXECUTION_MODE" env-default:"queued"`

	HTTPAddr string `env:"HTTP_ADDR" env-default:":3000"`
}

// TablesConfig names the DynamoDB tables and indexes.
type TablesConfig struct {
	Organizations string `env:"ORGANIZATIONS_TABLE" env-default:"organizations"`
	Users         string `env:"USERS_TABLE" env-default:"users"`
	NameIndex     string `env:"NAME_INDEX" env-default:"NameIndex"`
	EmailIndex    string `env:"EMAIL_INDEX" env-default:"EmailIndex"`
	OrgIDIndex    string `env:"ORG_ID_INDEX" env-default:"OrgIdIndex"`
}

// QueuesConfig holds one queue URL per command type.
type QueuesConfig struct {
	CreateOrganization string `env:"CREATE_ORGANIZATION_QUEUE_URL"`
	UpdateOrganization string `env:"UPDATE_ORGANIZATION_QUEUE_URL"`
	CreateUser         string `env:"CREATE_USER_QUEUE_URL"`
	UpdateUser         string `env:"UPDATE_USER_QUEUE_URL"`

	// FIFO marks the queues as FIFO; sends carry group and deduplication IDs.
	FIFO bool `env:"FIFO_QUEUES" env-default:"false"`

	// Groups bounds FIFO message groups. 0 gives every entity its own group.
	Groups int `env:"FIFO_GROUPS" env-default:"0"`
}

// Read reads the configuration from the environment without validating it.
func Read() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	return cfg
}

// Validate checks the execution mode and, in queued mode, the queue URLs.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDirect:
		return nil
	case ModeQueued:
		for ct, url := range c.QueueURLs() {
			if url == "" {
				return fmt.Errorf("queued mode requires a queue URL for %s", ct)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown EXECUTION_MODE %q (want %q or %q)", c.Mode, ModeDirect, ModeQueued)
	}
}

// DirectoryTables converts the table settings for the directory package.
func (c *Config) DirectoryTables() directory.Tables {
	return directory.Tables{
		Organizations: c.Tables.Organizations,
		Users:         c.Tables.Users,
		NameIndex:     c.Tables.NameIndex,
		EmailIndex:    c.Tables.EmailIndex,
		OrgIDIndex:    c.Tables.OrgIDIndex,
	}
}

// QueueURLs maps each command type to its queue URL.
func (c *Config) QueueURLs() map[directory.CommandType]string {
	return map[directory.CommandType]string{
		directory.CommandCreateOrganization: c.Queues.CreateOrganization,
		directory.CommandUpdateOrganization: c.Queues.UpdateOrganization,
		directory.CommandCreateUser:         c.Queues.CreateUser,
		directory.CommandUpdateUser:         c.Queues.UpdateUser,
	}
}

// QueueConfig returns the settings for a directory.QueuedExecutor.
func (c *Config) QueueConfig() directory.QueueConfig {
	return directory.QueueConfig{
		URLs:   c.QueueURLs(),
		FIFO:   c.Queues.FIFO,
		Groups: c.Queues.Groups,
	}
}

// AWS loads the shared AWS configuration. Offline, it uses static
// credentials so no profile or instance role is consulted.
func (c *Config) AWS(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.Offline {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(offlineAccessKeyID, offlineSecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// DynamoDB creates a DynamoDB client, pointed at DynamoDBEndpoint when offline.
func (c *Config) DynamoDB(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.Offline && c.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(c.DynamoDBEndpoint)
		}
	})
}

// SQS creates an SQS client, pointed at SQSEndpoint when offline.
func (c *Config) SQS(awsCfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if c.Offline && c.SQSEndpoint != "" {
			o.BaseEndpoint = aws.String(c.SQSEndpoint)
		}
	})
}
