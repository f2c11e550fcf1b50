package batch

import "github.com/lepinkainen/lcsc-lookup/internal/catalog"

// Result partitions one batch. Both slices keep input order and together
// hold exactly one outcome per submitted identifier.
type Result struct {
	Valid   []catalog.Outcome
	Dropped []catalog.Outcome
}

// Total returns the number of identifiers processed.
func (r Result) Total() int {
	return len(r.Valid) + len(r.Dropped)
}

// Products returns the found products in input order.
func (r Result) Products() []catalog.Product {
	products := make([]catalog.Product, 0, len(r.Valid))
	for _, o := range r.Valid {
		if o.Product != nil {
			products = append(products, *o.Product)
		}
	}
	return products
}

// DroppedIdentifiers returns the identifiers that could not be resolved, in input order.
func (r Result) DroppedIdentifiers() []string {
	ids := make([]string, 0, len(r.Dropped))
	for _, o := range r.Dropped {
		ids = append(ids, o.Identifier)
	}
	return ids
}
