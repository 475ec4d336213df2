// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-client/internal/api"
)

// LineItem is a single cart line. Quantity is always >= 1; a line whose
// quantity reaches 0 server-side disappears from the next snapshot instead
// of being retained.
type LineItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity for this line
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot is the authoritative, server-confirmed cart state at a point in
// time. Total is the server's figure; the client never substitutes a locally
// extrapolated value.
type Snapshot struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Subtotal recomputes the sum of line subtotals, used to detect drift
// between the server total and the transmitted lines.
func (s Snapshot) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// TotalQuantity returns the sum of all line quantities
func (s Snapshot) TotalQuantity() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// clone returns a deep copy so callers can't alias the engine's state
func (s Snapshot) clone() Snapshot {
	out := Snapshot{Total: s.Total}
	if s.Items != nil {
		out.Items = make([]LineItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// snapshotFromPayload converts the wire cart into the domain snapshot
func snapshotFromPayload(p *api.CartPayload) Snapshot {
	snap := Snapshot{
		Items: make([]LineItem, 0, len(p.Items)),
		Total: p.Total,
	}
	for _, item := range p.Items {
		snap.Items = append(snap.Items, LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return snap
}
