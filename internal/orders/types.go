package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuantity is returned when a line item is built with a non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date must be in YYYY-MM-DD format: %w", err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

// MarshalJSON renders the date without a time component.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OrderLineItem is one (SKU, quantity) request plus its validation annotation.
type OrderLineItem struct {
	SKU         string       `json:"sku"`
	Quantity    int          `json:"quantity"`
	Valid       bool         `json:"valid"`
	Notes       string       `json:"notes,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// NewOrderLineItem builds an unvalidated item. Items start out valid until annotated.
func NewOrderLineItem(sku string, quantity int) (OrderLineItem, error) {
	if quantity <= 0 {
		return OrderLineItem{}, fmt.Errorf("sku %s: %w", sku, ErrInvalidQuantity)
	}
	return OrderLineItem{SKU: sku, Quantity: quantity, Valid: true}, nil
}

// Order is a customer order as extracted from an email.
type Order struct {
	Customer     string          `json:"customer"`
	Address      string          `json:"address"`
	DeliveryDate Date            `json:"delivery_date"`
	Items        []OrderLineItem `json:"items"`
}

// WithItems returns a copy of the order carrying items. Identity fields are untouched.
func (o Order) WithItems(items []OrderLineItem) Order {
	o.Items = items
	return o
}

// ValidCount returns the number of items currently flagged valid.
func (o Order) ValidCount() int {
	n := 0
	for _, it := range o.Items {
		if it.Valid {
			n++
		}
	}
	return n
}
