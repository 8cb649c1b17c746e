package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/bundling"
	"github.com/imrishuroy/go-order-intake/internal/catalog"
	"github.com/imrishuroy/go-order-intake/internal/config"
	"github.com/imrishuroy/go-order-intake/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := config.SetupLogger(cfg.LogLevel, config.InLambda()); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	if cfg.OrdersTable == "" {
		log.Fatal("ORDERS_TABLE is required")
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, aws.Settings{Region: cfg.AWSRegion, EndpointOverride: cfg.AWSEndpointOverride})
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	products, err := catalog.Load(ctx, cfg.Catalog, clients.DynamoDB)
	if err != nil {
		log.WithError(err).Fatal("failed to load product catalog")
	}

	p := NewProcessor(
		orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		bundling.NewAnalyzer(products),
		aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace),
	)

	// RUN_LOCAL=true simulates a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","idempotency_key":"local-key-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		if err := p.Handle(ctx, event); err != nil {
			log.WithError(err).Fatal("local handler error")
		}
		return
	}

	lambda.Start(p.Handle)
}
