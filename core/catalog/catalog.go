package catalog

import "errors"

// ErrNotFound reports a slug with no catalog record behind it.
var ErrNotFound = errors.New("product not found")

// Product is a read-only catalog record served by the CMS. It is never
// written from this service; selections reference it by slug only.
type Product struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	PriceCents int      `json:"priceCents"`
	ImageURLs  []string `json:"imageUrls"`
	InStock    bool     `json:"inStock"`
	SizeLabel  string   `json:"sizeLabel"`
}

type Brand struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// Settings is the storefront-wide content document (copy, launch state).
type Settings struct {
	Title            string `json:"title"`
	WaitlistHeadline string `json:"waitlistHeadline"`
	ShippingNote     string `json:"shippingNote"`
}

// Snapshot is a point-in-time view of the catalog keyed by slug.
type Snapshot map[string]Product

func BuildSnapshot(products []Product) Snapshot {
	snap := make(Snapshot, len(products))
	for _, p := range products {
		snap[p.Slug] = p
	}
	return snap
}

// Resolve maps slugs to product records in the order given. Slugs without a
// match in the snapshot are dropped: a selection may reference products that
// a catalog republish has since removed, and those simply don't display.
func Resolve(slugs []string, snap Snapshot) []Product {
	out := make([]Product, 0, len(slugs))
	for _, s := range slugs {
		p, ok := snap[s]
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out
}
