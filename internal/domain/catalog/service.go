// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/api"
)

// Coordinator sequences admin mutations of the catalog against the remote
// service and keeps a read-through cached listing. The cache is invalidated
// and refetched after every successful mutation; the in-memory copy is never
// patched to reflect a mutation it has not seen confirmed.
type Coordinator struct {
	client *api.Client
	log    *logrus.Logger

	mu     sync.Mutex
	cached []Entry
	valid  bool
}

// NewCoordinator creates a new catalog mutation coordinator
func NewCoordinator(client *api.Client, log *logrus.Logger) *Coordinator {
	return &Coordinator{client: client, log: log}
}

// List returns the catalog listing, served from cache until invalidated
func (c *Coordinator) List(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	if c.valid {
		entries := make([]Entry, len(c.cached))
		copy(entries, c.cached)
		c.mu.Unlock()
		return entries, nil
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh bypasses the cache and refetches the listing
func (c *Coordinator) Refresh(ctx context.Context) ([]Entry, error) {
	payloads, err := c.client.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	entries := make([]Entry, 0, len(payloads))
	for _, p := range payloads {
		entries = append(entries, entryFromPayload(p))
	}

	c.mu.Lock()
	c.cached = entries
	c.valid = true
	c.mu.Unlock()

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Create validates the form locally, then creates the entry remotely.
// Malformed numeric input never reaches the network.
func (c *Coordinator) Create(ctx context.Context, form EntryForm) (Entry, error) {
	payload, err := form.parse()
	if err != nil {
		return Entry{}, err
	}

	created, err := c.client.CreateProduct(ctx, payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create product: %w", err)
	}

	c.reconcile(ctx)
	return entryFromPayload(*created), nil
}

// Update validates the form locally, then updates the entry remotely
func (c *Coordinator) Update(ctx context.Context, id uint, form EntryForm) (Entry, error) {
	payload, err := form.parse()
	if err != nil {
		return Entry{}, err
	}

	updated, err := c.client.UpdateProduct(ctx, id, payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to update product: %w", err)
	}

	c.reconcile(ctx)
	return entryFromPayload(*updated), nil
}

// Delete removes an entry remotely
func (c *Coordinator) Delete(ctx context.Context, id uint) error {
	if err := c.client.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	c.reconcile(ctx)
	return nil
}

// Invalidate drops the cached listing, forcing the next List to refetch
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// reconcile invalidates the cache and eagerly refetches after a confirmed
// mutation. A failed refetch leaves the cache invalid so the next List
// surfaces the fetch error itself.
func (c *Coordinator) reconcile(ctx context.Context) {
	c.Invalidate()
	if _, err := c.Refresh(ctx); err != nil {
		c.log.WithField("error", err.Error()).Warn("Listing refetch after mutation failed")
		c.Invalidate()
	}
}
