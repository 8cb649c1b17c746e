package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// OrderMetrics are the per-order business figures pushed to CloudWatch after bundling.
type OrderMetrics struct {
	TotalItems        int
	InvalidItems      int
	BundleSuggestions int
	HighPotential     bool
}

// MetricsPublisher writes order metrics into a CloudWatch namespace.
type MetricsPublisher struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetricsPublisher returns a MetricsPublisher for namespace.
func NewMetricsPublisher(client CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		CloudWatch: client,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// PutOrderMetrics publishes one datum per figure, all stamped with the same timestamp.
func (p *MetricsPublisher) PutOrderMetrics(ctx context.Context, m OrderMetrics) error {
	now := p.nowFunc()
	highPotential := 0.0
	if m.HighPotential {
		highPotential = 1
	}

	datum := func(name string, value float64) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: awsString(name),
			Value:      &value,
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  &now,
		}
	}

	_, err := p.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: awsString(p.Namespace),
		MetricData: []cwtypes.MetricDatum{
			datum("OrderItems", float64(m.TotalItems)),
			datum("InvalidOrderItems", float64(m.InvalidItems)),
			datum("BundleSuggestions", float64(m.BundleSuggestions)),
			datum("HighBundlingPotential", highPotential),
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
