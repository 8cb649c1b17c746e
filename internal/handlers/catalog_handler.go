package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-order-intake/internal/catalog"
)

func registerCatalogRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	api.GET("/catalog/similar", func(c *gin.Context) {
		sku := c.Query("sku")
		if sku == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_sku"})
			return
		}
		products := []catalog.Product{}
		if cfg.Catalog != nil {
			products = append(products, cfg.Catalog.FindSimilar(sku)...)
		}
		c.JSON(http.StatusOK, gin.H{"sku": sku, "products": products})
	})

	api.GET("/providers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"providers": cfg.Providers, "default": cfg.DefaultProvider})
	})
}
