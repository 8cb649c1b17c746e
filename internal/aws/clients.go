package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients holds one client per service the intake system talks to.
// A zero AWSClients is valid for deployments that use none of them.
type AWSClients struct {
	DynamoDB   DynamoDBAPI   // catalog backend, order archive, idempotency
	SQS        SQSAPI        // bundling queue
	CloudWatch CloudWatchAPI // worker business metrics
	Bedrock    BedrockAPI    // extraction model
}

// NewAWSClients builds every client from one shared SDK config.
func NewAWSClients(ctx context.Context, s Settings) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, s)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		Bedrock:    bedrockruntime.NewFromConfig(cfg),
	}, nil
}
