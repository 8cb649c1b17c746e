package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is used when Settings.Region is empty.
const DefaultRegion = "us-east-1"

// Settings selects the region and, for local stacks such as localstack, an
// endpoint every client is pointed at.
type Settings struct {
	Region           string
	EndpointOverride string
}

// LoadAWSConfig loads the default credential chain for s.
func LoadAWSConfig(ctx context.Context, s Settings) (sdkaws.Config, error) {
	region := s.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if s.EndpointOverride != "" {
		opts = append(opts, config.WithBaseEndpoint(s.EndpointOverride))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}
