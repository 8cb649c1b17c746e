package bundling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/imrishuroy/go-order-intake/internal/catalog"
	"github.com/imrishuroy/go-order-intake/internal/orders"
	log "github.com/sirupsen/logrus"
)

// Analysis names, used in logs, metrics and the summary error note.
const (
	AnalysisMOQ      = "moq_bundles"
	AnalysisCategory = "category_bundles"
	AnalysisBulk     = "bulk_discounts"
	AnalysisSummary  = "summary"
)

var bulkTiers = []int{5, 10, 25, 50}

const maxBulkIncreasePct = 50

// Analyzer computes cross-item suggestions for an already validated order.
type Analyzer struct {
	catalog    catalog.ProductLookup
	logger     *log.Entry
	onDegraded func(analysis string)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used to report degraded analyses.
func WithLogger(l *log.Entry) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithDegradedHook registers a callback run once per degraded analysis.
func WithDegradedHook(fn func(analysis string)) Option {
	return func(a *Analyzer) { a.onDegraded = fn }
}

// NewAnalyzer returns an Analyzer reading products from c.
func NewAnalyzer(c catalog.ProductLookup, opts ...Option) *Analyzer {
	a := &Analyzer{
		catalog: c,
		logger:  log.WithField("component", "bundling"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the three analyses and the summary. It never fails: an
// analysis that panics contributes an empty list and an error note.
func (a *Analyzer) Analyze(o orders.Order) Report {
	var notes []string

	report := Report{
		MOQBundles:        []MOQBundle{},
		CategoryBundles:   []CategoryBundle{},
		BulkOptimizations: []BulkOptimization{},
	}

	if err := a.guard(AnalysisMOQ, func() { report.MOQBundles = a.moqBundles(o) }); err != nil {
		report.MOQBundles = []MOQBundle{}
		notes = append(notes, err.Error())
	}
	if err := a.guard(AnalysisCategory, func() { report.CategoryBundles = categoryBundles(o) }); err != nil {
		report.CategoryBundles = []CategoryBundle{}
		notes = append(notes, err.Error())
	}
	if err := a.guard(AnalysisBulk, func() { report.BulkOptimizations = a.bulkOptimizations(o) }); err != nil {
		report.BulkOptimizations = []BulkOptimization{}
		notes = append(notes, err.Error())
	}
	if err := a.guard(AnalysisSummary, func() { report.Summary = summarize(o) }); err != nil {
		report.Summary = Summary{}
		notes = append(notes, err.Error())
	}

	report.Summary.Error = strings.Join(notes, "; ")
	return report
}

// guard runs fn and converts a panic into an error.
func (a *Analyzer) guard(analysis string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", analysis, r)
			a.logger.WithField("analysis", analysis).WithError(err).Warn("bundling analysis degraded")
			if a.onDegraded != nil {
				a.onDegraded(analysis)
			}
		}
	}()
	fn()
	return nil
}

type violation struct {
	item    orders.OrderLineItem
	product catalog.Product
}

// moqBundles groups MOQ violations by category. The violation is re-derived
// from the catalog, not from the item's Valid flag.
func (a *Analyzer) moqBundles(o orders.Order) []MOQBundle {
	var (
		groups = map[string][]violation{}
		order  []string
	)
	for _, it := range o.Items {
		p, ok := a.catalog.Lookup(it.SKU)
		if !ok || it.Quantity >= p.MOQ {
			continue
		}
		code := catalog.CategoryCode(it.SKU)
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], violation{item: it, product: p})
	}

	out := []MOQBundle{}
	for _, code := range order {
		vs := groups[code]
		if len(vs) < 2 {
			continue
		}
		total, maxMOQ := 0, 0
		skus := make([]string, 0, len(vs))
		for _, v := range vs {
			total += v.item.Quantity
			if v.product.MOQ > maxMOQ {
				maxMOQ = v.product.MOQ
			}
			skus = append(skus, v.item.SKU)
		}
		if total < maxMOQ {
			continue
		}
		out = append(out, MOQBundle{
			Type:                    "moq_bundle",
			Category:                code,
			Items:                   skus,
			CurrentTotal:            total,
			SuggestedRedistribution: redistribute(vs, total),
			Benefit:                 "Meet MOQ requirements by redistributing quantities",
		})
	}
	return out
}

// redistribute gives the strictest item its MOQ and spreads the remainder
// over the others, at least one each and capped at stock.
func redistribute(vs []violation, total int) []Redistribution {
	sorted := make([]violation, len(vs))
	copy(sorted, vs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].product.MOQ > sorted[j].product.MOQ
	})

	top := sorted[0]
	if total < top.product.MOQ {
		return []Redistribution{}
	}
	out := []Redistribution{{
		SKU:       top.item.SKU,
		Current:   top.item.Quantity,
		Suggested: top.product.MOQ,
		Reason:    "Prioritize meeting highest MOQ requirement",
	}}

	rest := sorted[1:]
	remaining := total - top.product.MOQ
	if len(rest) == 0 || remaining <= 0 {
		return out
	}
	perItem := remaining / len(rest)
	if perItem < 1 {
		perItem = 1
	}
	for _, v := range rest {
		out = append(out, Redistribution{
			SKU:       v.item.SKU,
			Current:   v.item.Quantity,
			Suggested: min(perItem, v.product.Stock),
			Reason:    "Distribute remaining quantity efficiently",
		})
	}
	return out
}

func categoryBundles(o orders.Order) []CategoryBundle {
	var (
		groups = map[string][]orders.OrderLineItem{}
		order  []string
	)
	for _, it := range o.Items {
		code := catalog.CategoryCode(it.SKU)
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], it)
	}

	out := []CategoryBundle{}
	for _, code := range order {
		items := groups[code]
		if len(items) < 2 {
			continue
		}
		total := 0
		skus := make([]string, 0, len(items))
		for _, it := range items {
			total += it.Quantity
			skus = append(skus, it.SKU)
		}
		name := CategoryName(code)
		out = append(out, CategoryBundle{
			Type:          "category_bundle",
			Category:      code,
			CategoryName:  name,
			Items:         skus,
			TotalQuantity: total,
			Suggestion:    fmt.Sprintf("You're ordering %d different %s items", len(items), name),
			Benefit:       "Potential bulk discounts and shipping efficiency",
		})
	}
	return out
}

// bulkOptimizations looks at the first tier above the quantity that stock
// can cover. The scan stops there even when the increase is too large.
func (a *Analyzer) bulkOptimizations(o orders.Order) []BulkOptimization {
	out := []BulkOptimization{}
	for _, it := range o.Items {
		p, ok := a.catalog.Lookup(it.SKU)
		if !ok || it.Quantity <= 0 {
			continue
		}
		for _, tier := range bulkTiers {
			if tier <= it.Quantity || tier > p.Stock {
				continue
			}
			if (tier-it.Quantity)*100 <= maxBulkIncreasePct*it.Quantity {
				out = append(out, BulkOptimization{
					Type:              "bulk_optimization",
					SKU:               it.SKU,
					CurrentQuantity:   it.Quantity,
					SuggestedQuantity: tier,
					AdditionalUnits:   tier - it.Quantity,
					Benefit:           "Better bulk pricing and reduced ordering frequency",
				})
			}
			break
		}
	}
	return out
}

func summarize(o orders.Order) Summary {
	categories := map[string]struct{}{}
	invalid := 0
	for _, it := range o.Items {
		categories[catalog.CategoryCode(it.SKU)] = struct{}{}
		if !it.Valid {
			invalid++
		}
	}
	potential := PotentialLow
	if len(categories) < len(o.Items) {
		potential = PotentialHigh
	}
	return Summary{
		TotalItems:            len(o.Items),
		InvalidItems:          invalid,
		CategoriesRepresented: len(categories),
		BundlingPotential:     potential,
	}
}
