package validation

import (
	"strings"
	"unicode/utf8"

	validatorv10 "github.com/go-playground/validator/v10"
)

// MaxEmailLength bounds the email text accepted for extraction, in characters.
const MaxEmailLength = 20000

// ProcessRequest is the payload for POST /api/orders/process and the HTML form.
type ProcessRequest struct {
	EmailText string `json:"email_text" form:"email_text" validate:"required"` // raw customer email
	Bundle    bool   `json:"bundle" form:"bundle"`                             // also run bundling analysis
}

// New returns a configured validator with struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// blank or oversized emails are rejected before any model call is made
	v.RegisterStructValidation(processRequestStructValidation, ProcessRequest{})

	return v
}

func processRequestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ProcessRequest)

	text := strings.TrimSpace(req.EmailText)
	if req.EmailText != "" && text == "" {
		sl.ReportError(req.EmailText, "email_text", "EmailText", "notblank", "")
	}
	if utf8.RuneCountInString(text) > MaxEmailLength {
		sl.ReportError(req.EmailText, "email_text", "EmailText", "max_length", "")
	}
}
