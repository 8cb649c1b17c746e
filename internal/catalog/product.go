package catalog

// Product is one catalog entry. Values are immutable once loaded.
type Product struct {
	SKU         string `json:"sku" dynamodbav:"sku"`
	Name        string `json:"name" dynamodbav:"name"`
	Stock       int    `json:"stock" dynamodbav:"stock"`
	MOQ         int    `json:"moq" dynamodbav:"moq"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
}

// ProductLookup resolves a SKU to its product. Absence is a normal outcome.
type ProductLookup interface {
	Lookup(sku string) (Product, bool)
}

// SimilaritySearch proposes alternatives for a SKU that is not in the catalog.
type SimilaritySearch interface {
	FindSimilar(sku string) []Product
}

// Catalog is the capability set the validation and bundling code depends on.
type Catalog interface {
	ProductLookup
	SimilaritySearch
}

// CategoryCode is the informal grouping key of a SKU: its first three characters.
func CategoryCode(sku string) string {
	r := []rune(sku)
	if len(r) <= 3 {
		return sku
	}
	return string(r[:3])
}
