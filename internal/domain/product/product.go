package product

// Product is a catalog item as served by the product service. Only the
// fields the order service consumes are modeled here.
type Product struct {
	ID       int64
	Name     string
	PhotoURL string
}

// Catalog is an indexed snapshot of the available products, taken at
// validation time. A zero Catalog is empty and usable.
type Catalog struct {
	byID map[int64]Product
}

// NewCatalog builds a Catalog from a product list. Later duplicates of the
// same ID win, matching the product service's own ordering.
func NewCatalog(products []Product) Catalog {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return Catalog{byID: byID}
}

// Lookup returns the product with the given ID and whether it exists.
func (c Catalog) Lookup(id int64) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of products in the catalog.
func (c Catalog) Len() int {
	return len(c.byID)
}
