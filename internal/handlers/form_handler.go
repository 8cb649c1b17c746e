package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-order-intake/internal/processing"
	"github.com/imrishuroy/go-order-intake/internal/validation"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))

// formPage is the data rendered by index.tmpl.
type formPage struct {
	EmailText       string
	Bundle          bool
	Error           string
	Result          *processing.Result
	Providers       []string
	DefaultProvider string
}

func registerFormRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	newPage := func() formPage {
		return formPage{Providers: cfg.Providers, DefaultProvider: cfg.DefaultProvider}
	}

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.tmpl", newPage())
	})

	r.POST("/", func(c *gin.Context) {
		page := newPage()

		var req validation.ProcessRequest
		if err := validation.Bind(c, &req, v); err != nil {
			page.EmailText = req.EmailText
			page.Error = "Please paste the text of a customer email."
			c.HTML(http.StatusBadRequest, "index.tmpl", page)
			return
		}
		page.EmailText, page.Bundle = req.EmailText, req.Bundle

		res, err := cfg.Processor.Process(c.Request.Context(), req.EmailText, req.Bundle)
		if err != nil {
			status, _ := extractionFailure(err)
			_ = c.Error(err)
			page.Error = "Error processing order: " + err.Error()
			c.HTML(status, "index.tmpl", page)
			return
		}
		page.Result = &res
		c.HTML(http.StatusOK, "index.tmpl", page)
	})
}
