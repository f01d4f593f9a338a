package loan

import "strings"

// Catalog exposes read-only product lookup for the conversation flow and
// underwriting.
type Catalog interface {
	List() []Product
	FindByID(id string) (Product, bool)
	Match(text string) (Product, bool)
}

// MemoryCatalog implements Catalog with an in-memory slice, suitable for MVP.
type MemoryCatalog struct {
	items []Product
}

// NewMemoryCatalog returns a MemoryCatalog preloaded with the supplied products.
func NewMemoryCatalog(items []Product) *MemoryCatalog {
	return &MemoryCatalog{items: append([]Product(nil), items...)}
}

// List returns the configured product list in declaration order.
func (c *MemoryCatalog) List() []Product {
	return append([]Product(nil), c.items...)
}

// FindByID looks up a product by identifier.
func (c *MemoryCatalog) FindByID(id string) (Product, bool) {
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return Product{}, false
}

// Match scans free text for a product mention. The first product whose name
// or alias appears in the text wins, so catalog order decides ambiguous input.
func (c *MemoryCatalog) Match(text string) (Product, bool) {
	lowered := strings.ToLower(text)
	for _, item := range c.items {
		if strings.Contains(lowered, strings.ToLower(item.Name)) {
			return item, true
		}
		for _, alias := range item.Aliases {
			if strings.Contains(lowered, alias) {
				return item, true
			}
		}
	}
	return Product{}, false
}

// Seed provides the default product shelf used by the demo deployment.
func Seed() []Product {
	return []Product{
		{
			ID:           "personal",
			Name:         "Personal Loan",
			MinAmount:    50_000,
			MaxAmount:    2_000_000,
			BaseRate:     12.5,
			TenureMonths: []int{12, 24, 36, 48, 60},
			Aliases:      []string{"personal", "consumer loan"},
		},
		{
			ID:           "home",
			Name:         "Home Loan",
			MinAmount:    500_000,
			MaxAmount:    50_000_000,
			BaseRate:     8.5,
			TenureMonths: []int{60, 120, 180, 240, 300},
			Aliases:      []string{"home", "house", "mortgage", "housing"},
		},
		{
			ID:           "car",
			Name:         "Car Loan",
			MinAmount:    100_000,
			MaxAmount:    3_000_000,
			BaseRate:     9.5,
			TenureMonths: []int{12, 24, 36, 48, 60, 84},
			Aliases:      []string{"car", "auto", "vehicle"},
		},
		{
			ID:           "education",
			Name:         "Education Loan",
			MinAmount:    50_000,
			MaxAmount:    7_500_000,
			BaseRate:     10.5,
			TenureMonths: []int{36, 60, 84, 120},
			Aliases:      []string{"education", "student", "study"},
		},
		{
			ID:           "business",
			Name:         "Business Loan",
			MinAmount:    200_000,
			MaxAmount:    10_000_000,
			BaseRate:     14.0,
			TenureMonths: []int{12, 24, 36, 48, 60},
			Aliases:      []string{"business", "sme", "working capital"},
		},
	}
}
