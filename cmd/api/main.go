package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/bundling"
	"github.com/imrishuroy/go-order-intake/internal/catalog"
	"github.com/imrishuroy/go-order-intake/internal/config"
	"github.com/imrishuroy/go-order-intake/internal/extraction"
	"github.com/imrishuroy/go-order-intake/internal/handlers"
	"github.com/imrishuroy/go-order-intake/internal/idempotency"
	"github.com/imrishuroy/go-order-intake/internal/metrics"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	"github.com/imrishuroy/go-order-intake/internal/processing"
	"github.com/imrishuroy/go-order-intake/internal/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger())
	handlers.RegisterRoutes(r, cfg)
	return r
}

// needsAWS reports whether any configured component talks to AWS.
func needsAWS(cfg config.Config) bool {
	return cfg.PersistenceEnabled() ||
		cfg.OrdersQueueURL != "" ||
		cfg.Catalog.Source == config.SourceDynamoDB ||
		cfg.LLM.Provider == extraction.ProviderBedrock
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := config.SetupLogger(cfg.LogLevel, config.InLambda()); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	ctx := context.Background()

	clients := &aws.AWSClients{}
	if needsAWS(cfg) {
		clients, err = aws.NewAWSClients(ctx, aws.Settings{Region: cfg.AWSRegion, EndpointOverride: cfg.AWSEndpointOverride})
		if err != nil {
			log.WithError(err).Fatal("failed to init aws clients")
		}
	}

	products, err := catalog.Load(ctx, cfg.Catalog, clients.DynamoDB)
	if err != nil {
		log.WithError(err).Fatal("failed to load product catalog")
	}

	completer, err := extraction.NewCompleter(extraction.Settings{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		OpenAIAPIKey: cfg.LLM.OpenAIAPIKey,
	}, extraction.Deps{Bedrock: clients.Bedrock})
	if err != nil {
		log.WithError(err).Fatal("failed to init llm provider")
	}

	var extractor extraction.Extractor = extraction.NewLLMExtractor(completer)
	var rdb *redis.Client
	if cfg.RedisAddr != "" && cfg.ExtractionCacheTTL > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		extractor = extraction.NewCachedExtractor(extractor, rdb, cfg.ExtractionCacheTTL)
		log.WithField("redis_addr", cfg.RedisAddr).Info("extraction cache enabled")
	}

	m := metrics.New()
	processor := processing.NewProcessor(
		extractor,
		validation.NewEngine(products),
		bundling.NewAnalyzer(products, bundling.WithDegradedHook(m.RecordBundlingDegraded)),
		m,
	)

	hcfg := handlers.HandlerConfig{
		Processor:       processor,
		Catalog:         products,
		Providers:       extraction.Providers(),
		DefaultProvider: cfg.LLM.Provider,
		MetricsHandler:  promhttp.Handler(),
	}
	if cfg.PersistenceEnabled() {
		hcfg.Orders = orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
		hcfg.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	}
	if cfg.OrdersQueueURL != "" {
		hcfg.Publisher = aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	}

	r := setupRouter(hcfg)

	log.WithFields(log.Fields{
		"catalog_source": cfg.Catalog.Source,
		"products":       products.Len(),
		"llm_provider":   cfg.LLM.Provider,
		"persistence":    cfg.PersistenceEnabled(),
	}).Info("order intake api configured")

	if cfg.RunLocal {
		runLocal(r, cfg.HTTPAddr, rdb)
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

// runLocal serves r on addr until SIGINT/SIGTERM, then drains in-flight requests.
func runLocal(r *gin.Engine, addr string, rdb *redis.Client) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("running local server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run local server")
		}
	}()

	ops := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	}
	if rdb != nil {
		ops["redis"] = func(ctx context.Context) error {
			return rdb.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, ops)
	exitCode := <-wait
	log.WithField("exit_code", exitCode).Info("order intake api stopped")
	os.Exit(exitCode)
}
