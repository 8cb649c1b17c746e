package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_ENDPOINT_URL", "")

	cfg, err := LoadAWSConfig(context.Background(), Settings{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, cfg.Region)
	assert.Nil(t, cfg.BaseEndpoint)
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), Settings{
		Region:           "eu-west-1",
		EndpointOverride: "http://localhost:4566",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
}

func TestNewAWSClients(t *testing.T) {
	clients, err := NewAWSClients(context.Background(), Settings{Region: "us-west-2"})
	require.NoError(t, err)
	assert.NotNil(t, clients.DynamoDB)
	assert.NotNil(t, clients.SQS)
	assert.NotNil(t, clients.CloudWatch)
	assert.NotNil(t, clients.Bedrock)
}
