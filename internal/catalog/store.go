package catalog

import (
	"strings"
	"unicode/utf8"
)

const (
	maxSimilar      = 5
	minSimilarQuery = 2
)

// Store is an in-memory catalog. It is never mutated after construction and
// may be shared between goroutines without locking.
type Store struct {
	products []Product
	index    map[string]int
}

var _ Catalog = (*Store)(nil)

// NewStore builds a Store from normalized products. A repeated SKU keeps its
// first position and takes the values of its last occurrence.
func NewStore(products []Product) *Store {
	s := &Store{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if i, ok := s.index[p.SKU]; ok {
			s.products[i] = p
			continue
		}
		s.index[p.SKU] = len(s.products)
		s.products = append(s.products, p)
	}
	return s
}

// Lookup returns the product for an exact SKU.
func (s *Store) Lookup(sku string) (Product, bool) {
	i, ok := s.index[sku]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

// FindSimilar returns up to five products, in load order, whose SKU starts
// with the first three characters of sku or whose name contains sku
// (case-insensitive). The exact SKU itself is never returned.
func (s *Store) FindSimilar(sku string) []Product {
	if utf8.RuneCountInString(sku) < minSimilarQuery {
		return nil
	}
	prefix := CategoryCode(sku)
	needle := strings.ToUpper(sku)

	var out []Product
	for _, p := range s.products {
		if p.SKU == sku {
			continue
		}
		if strings.HasPrefix(p.SKU, prefix) || (p.Name != "" && strings.Contains(strings.ToUpper(p.Name), needle)) {
			out = append(out, p)
			if len(out) == maxSimilar {
				break
			}
		}
	}
	return out
}

// Products returns a copy of every product in load order.
func (s *Store) Products() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Len is the number of distinct SKUs.
func (s *Store) Len() int { return len(s.products) }
