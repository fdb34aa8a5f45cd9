package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sproutbox/api/config"
)

const (
	productQuery       = `*[_type == "product"]{ "slug": slug.current, name, "brand": brand->name, priceCents, imageUrls, inStock, sizeLabel }`
	productBySlugQuery = `*[_type == "product" && slug.current == $slug][0]{ "slug": slug.current, name, "brand": brand->name, priceCents, imageUrls, inStock, sizeLabel }`
	brandQuery         = `*[_type == "brand"]{ "slug": slug.current, name, logoUrl }`
	settingsQuery      = `*[_type == "settings"][0]{ title, waitlistHeadline, shippingNote }`
)

// Client speaks the CMS read API: parametrized queries over HTTP GET with
// results wrapped in a {"result": ...} envelope.
type Client struct {
	base    string
	dataset string
	token   string
	http    *http.Client
}

func NewClient(cfg config.Catalog) *Client {
	return &Client{
		base:    cfg.URL,
		dataset: cfg.Dataset,
		token:   cfg.Token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) query(ctx context.Context, q string, params map[string]string, into interface{}) error {
	vals := make(url.Values)
	vals.Set("query", q)
	for k, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding query param[%s]: %w", k, err)
		}
		vals.Set("$"+k, string(b))
	}

	u := fmt.Sprintf("%s/query/%s?%s", c.base, c.dataset, vals.Encode())
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building catalog request: %w", err)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	w, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("querying catalog: %w", err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog answered status %s", w.Status)
	}

	env := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding catalog envelope: %w", err)
	}

	if err := json.Unmarshal(env.Result, into); err != nil {
		return fmt.Errorf("decoding catalog result: %w", err)
	}
	return nil
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.query(ctx, productQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	var out *Product
	if err := c.query(ctx, productBySlugQuery, map[string]string{"slug": slug}, &out); err != nil {
		return Product{}, err
	}
	if out == nil {
		return Product{}, ErrNotFound
	}
	return *out, nil
}

func (c *Client) Brands(ctx context.Context) ([]Brand, error) {
	var out []Brand
	if err := c.query(ctx, brandQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	if err := c.query(ctx, settingsQuery, nil, &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}
