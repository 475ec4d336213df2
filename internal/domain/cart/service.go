// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/pkg/errs"
)

// driftTolerance is the accepted rounding gap between the server total and
// the recomputed line subtotal.
var driftTolerance = decimal.NewFromFloat(0.01)

// Engine reconciles the client's cart view with the remote cart service.
// Every mutation is followed by a full authoritative re-fetch instead of a
// local optimistic merge: price and stock are server-owned and may have
// changed between render and action, so a locally computed total is never
// trusted as final.
type Engine struct {
	client *api.Client
	log    *logrus.Logger

	mu       sync.Mutex
	snapshot Snapshot
	inflight map[uint]struct{}
}

// NewEngine creates a new cart reconciliation engine
func NewEngine(client *api.Client, log *logrus.Logger) *Engine {
	return &Engine{
		client:   client,
		log:      log,
		inflight: make(map[uint]struct{}),
	}
}

// Snapshot returns a copy of the last reconciled cart state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.clone()
}

// Busy reports whether a mutation for the given line item is in flight.
// Views use this to disable that item's quantity controls.
func (e *Engine) Busy(productID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inflight[productID]
	return busy
}

// Fetch retrieves the authoritative snapshot and replaces local state
// wholesale; there is no partial merge.
func (e *Engine) Fetch(ctx context.Context) (Snapshot, error) {
	payload, err := e.client.GetCart(ctx)
	if err != nil {
		return e.Snapshot(), fmt.Errorf("failed to fetch cart: %w", err)
	}

	snap := snapshotFromPayload(payload)
	if drift := snap.Total.Sub(snap.Subtotal()).Abs(); drift.GreaterThan(driftTolerance) {
		e.log.WithFields(logrus.Fields{
			"server_total": snap.Total.StringFixed(2),
			"line_sum":     snap.Subtotal().StringFixed(2),
		}).Warn("Cart total drifted from line subtotals; keeping server total")
	}

	e.mu.Lock()
	e.snapshot = snap
	e.mu.Unlock()

	return snap.clone(), nil
}

// Add requests a server-side addition and resyncs. The resulting price and
// total come from the re-fetch, not from the client's cached catalog view.
func (e *Engine) Add(ctx context.Context, productID uint, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return e.Snapshot(), errs.ErrInvalidQuantity
	}
	if !e.beginItem(productID) {
		return e.Snapshot(), errs.ErrItemBusy
	}
	defer e.endItem(productID)

	if err := e.client.AddCartItem(ctx, productID, quantity); err != nil {
		return e.Snapshot(), fmt.Errorf("failed to add item: %w", err)
	}
	return e.Fetch(ctx)
}

// SetQuantity updates a line's quantity and resyncs. Quantities below 1 are
// rejected locally without contacting the server; removal is an explicit
// separate operation.
func (e *Engine) SetQuantity(ctx context.Context, productID uint, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return e.Snapshot(), errs.ErrInvalidQuantity
	}
	if !e.beginItem(productID) {
		return e.Snapshot(), errs.ErrItemBusy
	}
	defer e.endItem(productID)

	if err := e.client.UpdateCartItem(ctx, productID, quantity); err != nil {
		return e.Snapshot(), fmt.Errorf("failed to update quantity: %w", err)
	}
	return e.Fetch(ctx)
}

// Remove deletes a line and resyncs. Asking the user for confirmation is the
// caller's concern; the engine performs, it never prompts.
func (e *Engine) Remove(ctx context.Context, productID uint) (Snapshot, error) {
	if !e.beginItem(productID) {
		return e.Snapshot(), errs.ErrItemBusy
	}
	defer e.endItem(productID)

	if err := e.client.RemoveCartItem(ctx, productID); err != nil {
		return e.Snapshot(), fmt.Errorf("failed to remove item: %w", err)
	}
	return e.Fetch(ctx)
}

// Checkout clears the remote cart as an atomic server-side operation. The
// client computes no final charge; success resets the local snapshot.
func (e *Engine) Checkout(ctx context.Context) error {
	if err := e.client.Checkout(ctx); err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}

	e.mu.Lock()
	e.snapshot = Snapshot{Total: decimal.Zero}
	e.mu.Unlock()
	return nil
}

// Reset drops the local snapshot, used when the session ends
func (e *Engine) Reset() {
	e.mu.Lock()
	e.snapshot = Snapshot{}
	e.mu.Unlock()
}

// beginItem acquires the per-item in-flight flag. Operations against the
// same line item are serialized; different items stay independent.
func (e *Engine) beginItem(productID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[productID]; busy {
		return false
	}
	e.inflight[productID] = struct{}{}
	return true
}

func (e *Engine) endItem(productID uint) {
	e.mu.Lock()
	delete(e.inflight, productID)
	e.mu.Unlock()
}
