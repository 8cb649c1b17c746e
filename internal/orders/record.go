package orders

import "time"

// Record statuses
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// ItemRecord is the stored form of a validated line item.
type ItemRecord struct {
	SKU      string `dynamodbav:"sku" json:"sku"`
	Quantity int    `dynamodbav:"quantity" json:"quantity"`
	Valid    bool   `dynamodbav:"valid" json:"valid"`
	Notes    string `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
}

// Record represents a processed order stored in the Orders DynamoDB table.
type Record struct {
	OrderID      string       `dynamodbav:"order_id"` // PK
	Customer     string       `dynamodbav:"customer,omitempty"`
	Address      string       `dynamodbav:"address,omitempty"`
	DeliveryDate string       `dynamodbav:"delivery_date"`
	Status       string       `dynamodbav:"status"` // PENDING | PROCESSING | COMPLETED | FAILED
	Items        []ItemRecord `dynamodbav:"items,omitempty"`
	InvalidItems int          `dynamodbav:"invalid_items"`
	BundleReport string       `dynamodbav:"bundle_report,omitempty"` // JSON encoded bundling report
	CreatedAt    time.Time    `dynamodbav:"created_at"`
	UpdatedAt    time.Time    `dynamodbav:"updated_at"`
	Attempts     int          `dynamodbav:"attempts,omitempty"`
}

// NewRecord converts an annotated order into a PENDING record.
func NewRecord(orderID string, o Order) Record {
	items := make([]ItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemRecord{SKU: it.SKU, Quantity: it.Quantity, Valid: it.Valid, Notes: it.Notes})
	}
	return Record{
		OrderID:      orderID,
		Customer:     o.Customer,
		Address:      o.Address,
		DeliveryDate: o.DeliveryDate.String(),
		Status:       StatusPending,
		Items:        items,
		InvalidItems: len(o.Items) - o.ValidCount(),
	}
}

// Order rebuilds the order value. Suggestions are not stored, so they are absent.
func (r Record) Order() (Order, error) {
	date, err := ParseDate(r.DeliveryDate)
	if err != nil {
		return Order{}, err
	}
	items := make([]OrderLineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, OrderLineItem{SKU: it.SKU, Quantity: it.Quantity, Valid: it.Valid, Notes: it.Notes})
	}
	return Order{
		Customer:     r.Customer,
		Address:      r.Address,
		DeliveryDate: date,
		Items:        items,
	}, nil
}
