// Package catalog is the storefront's product lookup collaborator. The
// consistency core treats it as an external contract: a point lookup by
// product id returning price and availability. The seeded in-process
// implementation here stands in for the real catalog service.
package catalog

import (
	"sort"

	"loomline/internal/domain"
)

type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	CompareAtPrice float64  `json:"compareAtPrice,omitempty"`
	Sizes          []string `json:"sizes"`
	ImageRef       string   `json:"imageRef,omitempty"`
	InStock        bool     `json:"inStock"`
}

type Catalog struct {
	byID map[string]Product
}

func New() *Catalog {
	c := &Catalog{byID: map[string]Product{}}
	for _, p := range seed {
		c.byID[p.ID] = p
	}
	return c
}

func (c *Catalog) Lookup(productID string) (Product, error) {
	p, ok := c.byID[productID]
	if !ok {
		return Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var seed = []Product{
	{ID: "tee-oxford-001", Name: "Oxford Cotton Tee", Price: 1000, CompareAtPrice: 1299, Sizes: []string{"S", "M", "L", "XL"}, ImageRef: "products/tee-oxford-001/main.jpg", InStock: true},
	{ID: "tee-marine-002", Name: "Marine Stripe Tee", Price: 899, Sizes: []string{"S", "M", "L"}, ImageRef: "products/tee-marine-002/main.jpg", InStock: true},
	{ID: "hood-ember-001", Name: "Ember Fleece Hoodie", Price: 2499, CompareAtPrice: 2999, Sizes: []string{"M", "L", "XL"}, ImageRef: "products/hood-ember-001/main.jpg", InStock: true},
	{ID: "jean-slate-001", Name: "Slate Slim Jeans", Price: 1999, Sizes: []string{"30", "32", "34", "36"}, ImageRef: "products/jean-slate-001/main.jpg", InStock: true},
	{ID: "cap-canvas-001", Name: "Canvas Ball Cap", Price: 499, Sizes: []string{"OS"}, ImageRef: "products/cap-canvas-001/main.jpg", InStock: false},
}
