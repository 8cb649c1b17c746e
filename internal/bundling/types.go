package bundling

// Report is the whole-order bundling analysis.
type Report struct {
	MOQBundles        []MOQBundle        `json:"moq_bundles"`
	CategoryBundles   []CategoryBundle   `json:"category_bundles"`
	BulkOptimizations []BulkOptimization `json:"bulk_discounts"`
	Summary           Summary            `json:"summary"`
}

// SuggestionCount is the number of bundle suggestions across all analyses.
func (r Report) SuggestionCount() int {
	return len(r.MOQBundles) + len(r.CategoryBundles) + len(r.BulkOptimizations)
}

// MOQBundle proposes redistributing quantities inside one category so the
// strictest MOQ of the group is met.
type MOQBundle struct {
	Type                    string           `json:"type"`
	Category                string           `json:"category"`
	Items                   []string         `json:"items"`
	CurrentTotal            int              `json:"current_total"`
	SuggestedRedistribution []Redistribution `json:"suggested_redistribution"`
	Benefit                 string           `json:"benefit"`
}

// Redistribution is the proposed quantity of one item in an MOQBundle.
type Redistribution struct {
	SKU       string `json:"sku"`
	Current   int    `json:"current"`
	Suggested int    `json:"suggested"`
	Reason    string `json:"reason"`
}

// CategoryBundle is an informational note that several items share a category.
type CategoryBundle struct {
	Type          string   `json:"type"`
	Category      string   `json:"category"`
	CategoryName  string   `json:"category_name"`
	Items         []string `json:"items"`
	TotalQuantity int      `json:"total_quantity"`
	Suggestion    string   `json:"suggestion"`
	Benefit       string   `json:"benefit"`
}

// BulkOptimization proposes rounding a quantity up to a bulk tier.
type BulkOptimization struct {
	Type              string `json:"type"`
	SKU               string `json:"sku"`
	CurrentQuantity   int    `json:"current_quantity"`
	SuggestedQuantity int    `json:"suggested_quantity"`
	AdditionalUnits   int    `json:"additional_units"`
	Benefit           string `json:"benefit"`
}

// Bundling potential values.
const (
	PotentialHigh = "High"
	PotentialLow  = "Low"
)

// Summary gives order level counts. Error is set when an analysis degraded.
type Summary struct {
	TotalItems            int    `json:"total_items"`
	InvalidItems          int    `json:"invalid_items"`
	CategoriesRepresented int    `json:"categories_represented"`
	BundlingPotential     string `json:"bundling_potential"`
	Error                 string `json:"error,omitempty"`
}

var categoryNames = map[string]string{
	"DSK": "Desk",
	"CHR": "Chair",
	"DTB": "Dining Table",
	"DCH": "Dining Chair",
	"BSF": "Bookshelf",
	"SFA": "Sofa",
	"CFT": "Coffee Table",
	"TVS": "TV Stand",
}

// CategoryName maps a category code to its display name, or returns the code.
func CategoryName(code string) string {
	if name, ok := categoryNames[code]; ok {
		return name
	}
	return code
}
