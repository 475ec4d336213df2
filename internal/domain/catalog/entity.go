// internal/domain/catalog/entity.go
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/pkg/errs"
)

// Entry is a catalog product as the remote service owns it
type Entry struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
}

// EntryForm is raw admin-form input. Numeric fields arrive as strings and
// are validated locally before any round trip.
type EntryForm struct {
	Name        string
	Description string
	Price       string
	Stock       string
	Category    string
	Image       string
}

// parse validates the form and converts it to the wire payload
func (f EntryForm) parse() (api.ProductPayload, error) {
	var p api.ProductPayload

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return p, fmt.Errorf("name: %w", errs.ErrRequired)
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		return p, fmt.Errorf("category: %w", errs.ErrRequired)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return p, fmt.Errorf("price: %w", errs.ErrNonNumeric)
	}
	if price.IsNegative() {
		return p, fmt.Errorf("price: %w", errs.ErrNegative)
	}

	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	if err != nil {
		return p, fmt.Errorf("stock: %w", errs.ErrNonNumeric)
	}
	if stock < 0 {
		return p, fmt.Errorf("stock: %w", errs.ErrNegative)
	}

	return api.ProductPayload{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		Stock:       stock,
		Category:    category,
		Image:       strings.TrimSpace(f.Image),
	}, nil
}

func entryFromPayload(p api.ProductPayload) Entry {
	return Entry{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Image:       p.Image,
	}
}
