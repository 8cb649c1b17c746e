package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	log "github.com/sirupsen/logrus"
)

// Extractor turns raw email text into a tentative, unvalidated order.
type Extractor interface {
	Extract(ctx context.Context, emailText string) (orders.Order, error)
}

// payload is the JSON object the model is asked to produce.
type payload struct {
	CustomerName    string            `json:"customer_name" validate:"required"`
	DeliveryAddress string            `json:"delivery_address" validate:"required"`
	DeliveryDate    string            `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Items           []json.RawMessage `json:"items"`
}

// LLMExtractor extracts orders with a language model.
type LLMExtractor struct {
	completer Completer
	validate  *validatorv10.Validate
	logger    *log.Entry
}

// NewLLMExtractor returns an extractor backed by c.
func NewLLMExtractor(c Completer) *LLMExtractor {
	return &LLMExtractor{
		completer: c,
		validate:  validatorv10.New(),
		logger:    log.WithField("component", "extraction"),
	}
}

// Extract prompts the model and parses its reply. Provider failures are
// returned as *LLMError, unusable replies as *ParsingError.
func (e *LLMExtractor) Extract(ctx context.Context, emailText string) (orders.Order, error) {
	reply, err := e.completer.Complete(ctx, systemPrompt, BuildPrompt(emailText))
	if err != nil {
		var llmErr *LLMError
		if errors.As(err, &llmErr) {
			return orders.Order{}, err
		}
		return orders.Order{}, &LLMError{Provider: "unknown", Err: err}
	}

	order, err := e.Parse(reply)
	if err != nil {
		e.logger.WithError(err).WithField("reply_bytes", len(reply)).Warn("model reply could not be parsed")
		return orders.Order{}, err
	}
	return order, nil
}

// Parse converts a model reply into an order.
func (e *LLMExtractor) Parse(reply string) (orders.Order, error) {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(reply)))
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return orders.Order{}, &ParsingError{Err: fmt.Errorf("decode reply: %w", err)}
	}
	if err := e.validate.Struct(p); err != nil {
		return orders.Order{}, &ParsingError{Err: err}
	}

	date, err := orders.ParseDate(p.DeliveryDate)
	if err != nil {
		return orders.Order{}, &ParsingError{Err: err}
	}

	items := make([]orders.OrderLineItem, 0, len(p.Items))
	for i, raw := range p.Items {
		sku, qty, err := decodeItem(raw)
		if err != nil {
			return orders.Order{}, &ParsingError{Err: fmt.Errorf("item %d: %w", i+1, err)}
		}
		it, err := orders.NewOrderLineItem(sku, qty)
		if err != nil {
			return orders.Order{}, &ParsingError{Err: fmt.Errorf("item %d: %w", i+1, err)}
		}
		items = append(items, it)
	}

	return orders.Order{
		Customer:     strings.TrimSpace(p.CustomerName),
		Address:      strings.TrimSpace(p.DeliveryAddress),
		DeliveryDate: date,
		Items:        items,
	}, nil
}

// decodeItem reads sku and quantity, matching key names case-insensitively.
func decodeItem(raw json.RawMessage) (string, int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return "", 0, errors.New("each item must be an object")
	}

	var (
		skuVal, qtyVal interface{}
		haveSKU, haveQ bool
	)
	for k, v := range fields {
		switch strings.ToLower(k) {
		case "sku":
			skuVal, haveSKU = v, true
		case "quantity":
			qtyVal, haveQ = v, true
		}
	}
	if !haveSKU {
		return "", 0, errors.New("each item must have a sku field")
	}
	if !haveQ {
		return "", 0, errors.New("each item must have a quantity field")
	}

	sku, ok := skuVal.(string)
	if !ok || strings.TrimSpace(sku) == "" {
		return "", 0, errors.New("sku must be a non-empty string")
	}
	num, ok := qtyVal.(json.Number)
	if !ok {
		return "", 0, errors.New("quantity must be a positive integer")
	}
	qty, err := num.Int64()
	if err != nil || qty <= 0 {
		return "", 0, errors.New("quantity must be a positive integer")
	}
	return strings.TrimSpace(sku), int(qty), nil
}

// stripCodeFence removes a surrounding ```json fence and any prose around the object.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
