package validation

import (
	"fmt"

	"github.com/imrishuroy/go-order-intake/internal/catalog"
	"github.com/imrishuroy/go-order-intake/internal/orders"
)

// Metadata keys carried on a Result.
const (
	MetaMinQuantity    = "min_quantity"
	MetaAvailableStock = "available_stock"
)

// Result is the verdict for one line item.
type Result struct {
	IsValid     bool                `json:"is_valid"`
	Notes       string              `json:"notes"`
	Suggestions []orders.Suggestion `json:"suggestions"`
	Metadata    map[string]int      `json:"metadata"`
}

// Validate classifies one item against the catalog. The first matching rule
// wins: unknown SKU, then below MOQ, then above stock. It never fails; an
// invalid item is a normal outcome. An unknown SKU with no similar catalog
// entries comes back invalid with an empty Suggestions list.
func Validate(item orders.OrderLineItem, c catalog.Catalog) Result {
	product, ok := c.Lookup(item.SKU)
	if !ok {
		similar := c.FindSimilar(item.SKU)
		suggestions := make([]orders.Suggestion, 0, len(similar))
		for _, p := range similar {
			suggestions = append(suggestions, orders.SimilarProduct{SKU: p.SKU, Name: p.Name, MOQ: p.MOQ, Stock: p.Stock})
		}
		return Result{
			Notes:       fmt.Sprintf("SKU %s not found in catalog", item.SKU),
			Suggestions: suggestions,
			Metadata:    map[string]int{},
		}
	}

	if item.Quantity < product.MOQ {
		return Result{
			Notes: fmt.Sprintf("Quantity %d is below minimum order quantity of %d", item.Quantity, product.MOQ),
			Suggestions: []orders.Suggestion{orders.QuantityAdjustment{
				CurrentQuantity:   item.Quantity,
				SuggestedQuantity: product.MOQ,
				Reason:            fmt.Sprintf("To meet minimum order quantity of %d", product.MOQ),
			}},
			Metadata: map[string]int{MetaMinQuantity: product.MOQ},
		}
	}

	if item.Quantity > product.Stock {
		return Result{
			Notes: fmt.Sprintf("Requested quantity %d exceeds available stock of %d", item.Quantity, product.Stock),
			Suggestions: []orders.Suggestion{orders.StockLimit{
				CurrentQuantity:   item.Quantity,
				AvailableQuantity: product.Stock,
				Reason:            "Limited by current stock levels",
			}},
			Metadata: map[string]int{MetaAvailableStock: product.Stock},
		}
	}

	return Result{
		IsValid:     true,
		Notes:       "Order item is valid",
		Suggestions: []orders.Suggestion{},
		Metadata:    map[string]int{MetaMinQuantity: product.MOQ, MetaAvailableStock: product.Stock},
	}
}

// Annotate returns a copy of item carrying the verdict. The input is not modified.
func Annotate(item orders.OrderLineItem, c catalog.Catalog) orders.OrderLineItem {
	res := Validate(item, c)
	out := orders.OrderLineItem{
		SKU:      item.SKU,
		Quantity: item.Quantity,
		Valid:    res.IsValid,
		Notes:    res.Notes,
	}
	if !res.IsValid && len(res.Suggestions) > 0 {
		out.Suggestions = res.Suggestions
	}
	return out
}

// Engine binds the validation rules to one catalog.
type Engine struct {
	catalog catalog.Catalog
}

// NewEngine returns an Engine reading from c.
func NewEngine(c catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Validate classifies one item.
func (e *Engine) Validate(item orders.OrderLineItem) Result {
	return Validate(item, e.catalog)
}

// Annotate returns the annotated copy of item.
func (e *Engine) Annotate(item orders.OrderLineItem) orders.OrderLineItem {
	return Annotate(item, e.catalog)
}

// AnnotateOrder validates every item in order and returns a new order.
func (e *Engine) AnnotateOrder(o orders.Order) orders.Order {
	items := make([]orders.OrderLineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, e.Annotate(it))
	}
	return o.WithItems(items)
}
