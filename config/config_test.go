package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/roster/config"
	"github.com/jacentio/roster/directory"
)

func setQueues(t *testing.T) {
	t.Setenv("CREATE_ORGANIZATION_QUEUE_URL", "http://localhost:9324/queue/create-organization")
	t.Setenv("UPDATE_ORGANIZATION_QUEUE_URL", "http://localhost:9324/queue/update-organization")
	t.Setenv("CREATE_USER_QUEUE_URL", "http://localhost:9324/queue/create-user")
	t.Setenv("UPDATE_USER_QUEUE_URL", "http://localhost:9324/queue/update-user")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "direct")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Offline)
	assert.Equal(t, config.ModeDirect, cfg.Mode)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
	assert.Equal(t, "http://localhost:9324", cfg.SQSEndpoint)
	assert.Equal(t, directory.DefaultTables(), cfg.DirectoryTables())
}

func TestLoad_Queued(t *testing.T) {
	setQueues(t)
	t.Setenv("FIFO_QUEUES", "true")
	t.Setenv("ORGANIZATIONS_TABLE", "orgs-dev")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ModeQueued, cfg.Mode)
	assert.Equal(t, "orgs-dev", cfg.DirectoryTables().Organizations)

	qc := cfg.QueueConfig()
	assert.True(t, qc.FIFO)
	assert.Equal(t, "http://localhost:9324/queue/create-user", qc.URLs[directory.CommandCreateUser])
	assert.Len(t, qc.URLs, len(directory.CommandTypes))
}

func TestLoad_QueuedRequiresURLs(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "queued")
	t.Setenv("CREATE_ORGANIZATION_QUEUE_URL", "http://localhost:9324/queue/create-organization")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownMode(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "eventually")

	_, err := config.Load()
	assert.ErrorContains(t, err, "EXECUTION_MODE")
}

func TestAWS_OfflineCredentials(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "direct")
	t.Setenv("IS_OFFLINE", "true")
	t.Setenv("AWS_REGION", "localhost")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.True(t, cfg.Offline)

	awsCfg, err := cfg.AWS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "localhost", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fakeMyKeyId", creds.AccessKeyID)

	assert.Equal(t, "http://localhost:8000", *cfg.DynamoDB(awsCfg).Options().BaseEndpoint)
	assert.Equal(t, "http://localhost:9324", *cfg.SQS(awsCfg).Options().BaseEndpoint)
}

func TestAWS_ManagedEndpoints(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "direct")

	cfg, err := config.Load()
	require.NoError(t, err)

	awsCfg, err := cfg.AWS(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg.DynamoDB(awsCfg).Options().BaseEndpoint)
	assert.Nil(t, cfg.SQS(awsCfg).Options().BaseEndpoint)
}

func TestRead_DoesNotValidate(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "queued")

	cfg, err := config.Read()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.Queues.CreateOrganization = "memory://create-organization"
	cfg.Queues.UpdateOrganization = "memory://update-organization"
	cfg.Queues.CreateUser = "memory://create-user"
	cfg.Queues.UpdateUser = "memory://update-user"
	assert.NoError(t, cfg.Validate())
}
