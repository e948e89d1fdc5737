// Package catalog holds the static set of tracked products.
package catalog

import (
	"errors"
	"fmt"
	"pricetracker/internal/history"
	"sort"

	"github.com/antzucaro/matchr"
)

var ErrUnknownProduct = errors.New("unknown product")

// Product is a catalog entry, URLs maps a seller identifier to the product
// page at that seller.
type Product struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	URLs map[string]string `json:"urls"`
}

// Sellers returns the seller identifiers of the product, sorted.
func (p Product) Sellers() []string {
	sellers := make([]string, 0, len(p.URLs))
	for seller := range p.URLs {
		sellers = append(sellers, seller)
	}
	sort.Strings(sellers)
	return sellers
}

// Sample is the built-in demonstration catalog.
func Sample() []Product {
	return []Product{
		{
			ID:   "sample_product_1",
			Name: "Sample Product 1",
			URLs: map[string]string{
				"retailer_a": "https://example.com/product/1",
				"retailer_b": "https://example.com/product/1",
			},
		},
	}
}

// Catalog is read-only after construction.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) (Catalog, error) {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		if p.ID == "" {
			return Catalog{}, fmt.Errorf("product %d has an empty id", i)
		}
		err := history.ValidateProductID(p.ID)
		if err != nil {
			return Catalog{}, fmt.Errorf("product %d: %w", i, err)
		}
		if _, exists := byID[p.ID]; exists {
			return Catalog{}, fmt.Errorf("duplicate product id %q", p.ID)
		}
		byID[p.ID] = i
	}
	return Catalog{products: products, byID: byID}, nil
}

func (c Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Lookup is Get with an error that names the closest known id.
func (c Catalog) Lookup(id string) (Product, error) {
	p, ok := c.Get(id)
	if ok {
		return p, nil
	}
	suggestion, found := c.Suggest(id)
	if found {
		return Product{}, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownProduct, id, suggestion)
	}
	return Product{}, fmt.Errorf("%w %q", ErrUnknownProduct, id)
}

// Default is the first product of the catalog.
func (c Catalog) Default() (Product, bool) {
	if len(c.products) == 0 {
		return Product{}, false
	}
	return c.products[0], true
}

func (c Catalog) Products() []Product {
	return c.products
}

const suggestThreshold = 0.8

// Suggest returns the known id most similar to `id` by Jaro-Winkler
// similarity, if any is similar enough.
func (c Catalog) Suggest(id string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, p := range c.products {
		score := matchr.JaroWinkler(id, p.ID, false)
		if score > bestScore {
			best = p.ID
			bestScore = score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}
