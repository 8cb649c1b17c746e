package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one raw catalog record keyed by column name, as read from any backend.
type Row map[string]string

// Column name variants seen in catalog exports, in lookup order.
var (
	codeColumns  = []string{"Product Code", "Product_Code"}
	nameColumns  = []string{"Product Name", "Product_Name"}
	stockColumns = []string{"Available Stock", "Available_in_Stock"}
	moqColumns   = []string{"Minimum Order Quantity", "Min_Order_Quantity"}
)

const (
	defaultStock = 0
	defaultMOQ   = 1
)

// first returns the first non-empty value among the column variants.
// Zero counts as empty so that a "0" in the primary column falls through.
func (r Row) first(cols []string) string {
	for _, c := range cols {
		v := strings.TrimSpace(r[c])
		if v != "" && v != "0" {
			return v
		}
	}
	return ""
}

// NormalizeRow converts a raw row into a Product. ok is false for rows
// without a product code, which are skipped by loaders.
func NormalizeRow(r Row) (p Product, ok bool, err error) {
	code := r.first(codeColumns)
	if code == "" {
		return Product{}, false, nil
	}

	stock, err := parseCount(r.first(stockColumns), defaultStock)
	if err != nil {
		return Product{}, false, fmt.Errorf("product %s: stock: %w", code, err)
	}
	moq, err := parseCount(r.first(moqColumns), defaultMOQ)
	if err != nil {
		return Product{}, false, fmt.Errorf("product %s: moq: %w", code, err)
	}
	if stock < 0 {
		return Product{}, false, fmt.Errorf("product %s: negative stock %d", code, stock)
	}
	if moq < 1 {
		moq = defaultMOQ
	}

	return Product{
		SKU:         code,
		Name:        r.first(nameColumns),
		Stock:       stock,
		MOQ:         moq,
		Description: strings.TrimSpace(r["Description"]),
	}, true, nil
}

// parseCount accepts integers and integral floats such as "10.0" (spreadsheet exports).
func parseCount(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return int(f), nil
}

// normalizeRows applies NormalizeRow to every row; the first bad row fails the whole load.
func normalizeRows(source string, rows []Row) (*Store, error) {
	products := make([]Product, 0, len(rows))
	for i, r := range rows {
		p, ok, err := NormalizeRow(r)
		if err != nil {
			return nil, newCatalogError(source, fmt.Errorf("row %d: %w", i+1, err))
		}
		if ok {
			products = append(products, p)
		}
	}
	return NewStore(products), nil
}
