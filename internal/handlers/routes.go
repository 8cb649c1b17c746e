package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-order-intake/internal/aws"
	"github.com/imrishuroy/go-order-intake/internal/catalog"
	"github.com/imrishuroy/go-order-intake/internal/idempotency"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	"github.com/imrishuroy/go-order-intake/internal/processing"
	"github.com/imrishuroy/go-order-intake/internal/validation"
)

// OrderProcessor runs the intake pipeline for one email.
type OrderProcessor interface {
	Process(ctx context.Context, emailText string, withBundles bool) (processing.Result, error)
}

// HandlerConfig groups dependencies for the HTTP handlers.
// Orders, Idempotency and Publisher are optional; without Orders and
// Idempotency processed orders are returned but not archived.
type HandlerConfig struct {
	Processor       OrderProcessor
	Catalog         catalog.SimilaritySearch
	Orders          *orders.Store
	Idempotency     *idempotency.Store
	Publisher       *aws.Publisher
	Providers       []string
	DefaultProvider string
	MetricsHandler  http.Handler
}

func (cfg HandlerConfig) persistenceEnabled() bool {
	return cfg.Orders != nil && cfg.Idempotency != nil
}

// RegisterRoutes registers every route of the intake service on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.SetHTMLTemplate(pageTemplates)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	registerFormRoutes(r, cfg, v)

	api := r.Group("/api")
	registerProcessRoutes(api, cfg, v)
	registerCatalogRoutes(api, cfg)
}
