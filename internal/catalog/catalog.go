// Package catalog maintains the client's snapshot of the server-held product
// records. The snapshot is only ever replaced wholesale by a successful list
// fetch; writes go through the API and, on success, trigger exactly one
// refetch so the local view matches server truth. Nothing is patched
// optimistically.
package catalog

import (
	"context"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vitrine-app/vitrine/internal/api"
	"github.com/vitrine-app/vitrine/internal/imaging"
	"github.com/vitrine-app/vitrine/internal/model"
)

// Catalog is the client-side product store.
type Catalog struct {
	client *api.Client
	sfg    singleflight.Group // collapses concurrent refreshes into one fetch

	mu       sync.Mutex
	products []model.Product
	loadErr  error
}

// New creates a catalog backed by the given API client. The snapshot starts
// empty; call Refresh to populate it.
func New(client *api.Client) *Catalog {
	return &Catalog{client: client}
}

// Refresh fetches the full product list. On success the snapshot is replaced
// and any previous load error cleared; on failure the previous snapshot is
// kept and the error recorded. Concurrent calls share a single fetch.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.sfg.Do("list", func() (any, error) {
		products, err := c.client.ListProducts(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.loadErr = err
			return nil, err
		}
		c.products = products
		c.loadErr = nil
		return nil, nil
	})
	return err
}

// Products returns a copy of the current snapshot.
func (c *Catalog) Products() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	products := make([]model.Product, len(c.products))
	copy(products, c.products)
	return products
}

// Err returns the error from the most recent refresh, or nil if it succeeded.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Search returns the snapshot entries whose name starts with term,
// case-insensitively. An empty term returns the whole snapshot.
func (c *Catalog) Search(term string) []model.Product {
	products := c.Products()
	if term == "" {
		return products
	}
	term = strings.ToLower(term)

	var matched []model.Product
	for _, p := range products {
		if strings.HasPrefix(strings.ToLower(p.Name), term) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Create sends a product draft to the API. On failure the snapshot is left
// untouched and the error returned. On success the catalog refetches; a
// failed refetch is recorded in Err rather than failing the create.
func (c *Catalog) Create(ctx context.Context, draft model.ProductDraft) error {
	if _, err := c.client.CreateProduct(ctx, draft); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Update replaces a product's fields, then refetches on success.
func (c *Catalog) Update(ctx context.Context, id int64, draft model.ProductDraft) error {
	if _, err := c.client.UpdateProduct(ctx, id, draft); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Delete removes a product, then refetches on success.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.client.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// SetImage prepares an image (downscale, re-encode) and uploads it as the
// product's picture, then refetches on success.
func (c *Catalog) SetImage(ctx context.Context, id int64, r io.Reader) error {
	result, err := imaging.Process(r)
	if err != nil {
		return err
	}
	if err := c.client.UploadProductImage(ctx, id, result.Data); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}
