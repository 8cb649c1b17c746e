package orders

import (
	"encoding/json"
	"fmt"
)

// SuggestionKind discriminates the suggestion union on the wire.
type SuggestionKind string

const (
	KindQuantityAdjustment SuggestionKind = "quantity_adjustment"
	KindStockLimit         SuggestionKind = "stock_limit"
	KindSimilarProduct     SuggestionKind = "similar_product"
)

// Suggestion is a remediation attached to an invalid line item. The set of
// implementations is closed: QuantityAdjustment, StockLimit and SimilarProduct.
type Suggestion interface {
	Kind() SuggestionKind
	// Summary is a one-line human readable rendering.
	Summary() string
	isSuggestion()
}

// QuantityAdjustment proposes raising a quantity to the minimum order quantity.
type QuantityAdjustment struct {
	CurrentQuantity   int    `json:"current_quantity"`
	SuggestedQuantity int    `json:"suggested_quantity"`
	Reason            string `json:"reason"`
}

// StockLimit proposes lowering a quantity to what is in stock.
type StockLimit struct {
	CurrentQuantity   int    `json:"current_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Reason            string `json:"reason"`
}

// SimilarProduct is a catalog candidate for a SKU that was not found.
type SimilarProduct struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	MOQ   int    `json:"moq"`
	Stock int    `json:"stock"`
}

func (QuantityAdjustment) Kind() SuggestionKind { return KindQuantityAdjustment }
func (StockLimit) Kind() SuggestionKind         { return KindStockLimit }
func (SimilarProduct) Kind() SuggestionKind     { return KindSimilarProduct }

func (QuantityAdjustment) isSuggestion() {}
func (StockLimit) isSuggestion()         {}
func (SimilarProduct) isSuggestion()     {}

func (s QuantityAdjustment) Summary() string {
	return fmt.Sprintf("Adjust quantity to %d to meet MOQ", s.SuggestedQuantity)
}

func (s StockLimit) Summary() string {
	return fmt.Sprintf("Reduce quantity to %d due to stock limits", s.AvailableQuantity)
}

func (s SimilarProduct) Summary() string {
	return fmt.Sprintf("Similar product: %s - %s (MOQ: %d, Stock: %d)", s.SKU, s.Name, s.MOQ, s.Stock)
}

func (s QuantityAdjustment) MarshalJSON() ([]byte, error) {
	type plain QuantityAdjustment
	return json.Marshal(struct {
		Type SuggestionKind `json:"type"`
		plain
	}{s.Kind(), plain(s)})
}

func (s StockLimit) MarshalJSON() ([]byte, error) {
	type plain StockLimit
	return json.Marshal(struct {
		Type SuggestionKind `json:"type"`
		plain
	}{s.Kind(), plain(s)})
}

func (s SimilarProduct) MarshalJSON() ([]byte, error) {
	type plain SimilarProduct
	return json.Marshal(struct {
		Type SuggestionKind `json:"type"`
		plain
	}{s.Kind(), plain(s)})
}

// DecodeSuggestion decodes one tagged suggestion produced by MarshalJSON.
func DecodeSuggestion(data []byte) (Suggestion, error) {
	var head struct {
		Type SuggestionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode suggestion type: %w", err)
	}

	var (
		s   Suggestion
		err error
	)
	switch head.Type {
	case KindQuantityAdjustment:
		var v QuantityAdjustment
		err = json.Unmarshal(data, &v)
		s = v
	case KindStockLimit:
		var v StockLimit
		err = json.Unmarshal(data, &v)
		s = v
	case KindSimilarProduct:
		var v SimilarProduct
		err = json.Unmarshal(data, &v)
		s = v
	default:
		return nil, fmt.Errorf("unknown suggestion type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s suggestion: %w", head.Type, err)
	}
	return s, nil
}

// UnmarshalJSON decodes the tagged suggestion list of a line item.
func (it *OrderLineItem) UnmarshalJSON(data []byte) error {
	type plain OrderLineItem
	var raw struct {
		plain
		Suggestions []json.RawMessage `json:"suggestions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = OrderLineItem(raw.plain)
	it.Suggestions = nil
	for _, r := range raw.Suggestions {
		s, err := DecodeSuggestion(r)
		if err != nil {
			return err
		}
		it.Suggestions = append(it.Suggestions, s)
	}
	return nil
}
