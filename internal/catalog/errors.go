package catalog

import "fmt"

// CatalogError reports a catalog that could not be built. It is fatal at startup.
type CatalogError struct {
	Source string
	Err    error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("failed to load catalog from %s: %v", e.Source, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

func newCatalogError(source string, err error) *CatalogError {
	return &CatalogError{Source: source, Err: err}
}
