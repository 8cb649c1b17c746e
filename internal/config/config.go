package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Catalog sources
const (
	SourceCSV      = "csv"
	SourceDynamoDB = "dynamodb"
	SourcePostgres = "postgres"
)

// Config is the runtime configuration shared by cmd/api and cmd/worker.
type Config struct {
	RunLocal bool   `yaml:"run_local"`
	HTTPAddr string `yaml:"http_addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error"`

	AWSRegion           string `yaml:"aws_region"`
	AWSEndpointOverride string `yaml:"aws_endpoint_override"`

	Catalog CatalogConfig `yaml:"catalog"`
	LLM     LLMConfig     `yaml:"llm"`

	RedisAddr          string        `yaml:"redis_addr"`
	ExtractionCacheTTL time.Duration `yaml:"extraction_cache_ttl" validate:"gte=0"`

	IdempotencyTable string        `yaml:"idempotency_table"`
	IdempotencyTTL   time.Duration `yaml:"idempotency_ttl" validate:"gt=0"`
	OrdersTable      string        `yaml:"orders_table"`
	OrdersQueueURL   string        `yaml:"orders_queue_url"`
	MetricsNamespace string        `yaml:"metrics_namespace" validate:"required"`
}

// CatalogConfig selects and locates the product catalog backend.
type CatalogConfig struct {
	Source      string `yaml:"source" validate:"oneof=csv dynamodb postgres"`
	Path        string `yaml:"path" validate:"required_if=Source csv"`
	Table       string `yaml:"table" validate:"required_if=Source dynamodb"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Source postgres"`
}

// LLMConfig configures the extraction model.
type LLMConfig struct {
	Provider     string  `yaml:"provider" validate:"oneof=openai bedrock"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	OpenAIAPIKey string  `yaml:"openai_api_key"`
}

// PersistenceEnabled reports whether processed orders are archived and queued for bundling.
func (c Config) PersistenceEnabled() bool {
	return c.IdempotencyTable != "" && c.OrdersTable != ""
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Catalog: CatalogConfig{
			Source: SourceCSV,
			Path:   "data/product_catalog.csv",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0,
		},
		ExtractionCacheTTL: 24 * time.Hour,
		IdempotencyTTL:     48 * time.Hour,
		MetricsNamespace:   "OrderIntake",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables. The result is validated.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString("HTTP_ADDR", &cfg.HTTPAddr)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("AWS_REGION", &cfg.AWSRegion)
	setString("AWS_ENDPOINT_OVERRIDE", &cfg.AWSEndpointOverride)
	setString("CATALOG_SOURCE", &cfg.Catalog.Source)
	setString("CATALOG_PATH", &cfg.Catalog.Path)
	setString("CATALOG_TABLE", &cfg.Catalog.Table)
	setString("DATABASE_URL", &cfg.Catalog.DatabaseURL)
	setString("DEFAULT_LLM_PROVIDER", &cfg.LLM.Provider)
	setString("DEFAULT_MODEL", &cfg.LLM.Model)
	setString("OPENAI_API_KEY", &cfg.LLM.OpenAIAPIKey)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("IDEMPOTENCY_TABLE", &cfg.IdempotencyTable)
	setString("ORDERS_TABLE", &cfg.OrdersTable)
	setString("ORDERS_QUEUE_URL", &cfg.OrdersQueueURL)
	setString("METRICS_NAMESPACE", &cfg.MetricsNamespace)

	if v := os.Getenv("RUN_LOCAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_LOCAL: %w", err)
		}
		cfg.RunLocal = b
	}
	if v := os.Getenv("TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TEMPERATURE: %w", err)
		}
		cfg.LLM.Temperature = f
	}
	if err := setDuration("EXTRACTION_CACHE_TTL", &cfg.ExtractionCacheTTL); err != nil {
		return err
	}
	return setDuration("IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
