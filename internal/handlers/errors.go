package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-order-intake/internal/extraction"
)

// extractionFailure maps a pipeline error to a status and error code.
func extractionFailure(err error) (int, string) {
	var pe *extraction.ParsingError
	if errors.As(err, &pe) {
		return http.StatusUnprocessableEntity, "extraction_failed"
	}
	var le *extraction.LLMError
	if errors.As(err, &le) {
		return http.StatusBadGateway, "llm_unavailable"
	}
	return http.StatusInternalServerError, "processing_failed"
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": code, "detail": err.Error()})
}
