package catalog

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/api/apitest"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/pkg/errs"
)

func newCoordinator(t *testing.T, asAdmin bool) (*Coordinator, *apitest.Server) {
	t.Helper()

	server := apitest.New()
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.API.BaseURL = server.URL()
	cfg.API.Timeout = 5 * time.Second

	client := api.NewClient(cfg, log)

	server.AddUser("user@example.com", "pw", asAdmin)
	tok := server.IssueToken("user@example.com", time.Now().Add(time.Hour))
	client.SetToken(tok)

	return NewCoordinator(client, log), server
}

func validForm() EntryForm {
	return EntryForm{
		Name:     "Widget",
		Price:    "19.99",
		Stock:    "5",
		Category: "tools",
	}
}

func TestCreate_LocalValidationWithoutRoundTrip(t *testing.T) {
	c, server := newCoordinator(t, true)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*EntryForm)
		wantErr error
	}{
		{"non-numeric price", func(f *EntryForm) { f.Price = "abc" }, errs.ErrNonNumeric},
		{"empty price", func(f *EntryForm) { f.Price = "" }, errs.ErrNonNumeric},
		{"negative price", func(f *EntryForm) { f.Price = "-1.00" }, errs.ErrNegative},
		{"non-numeric stock", func(f *EntryForm) { f.Stock = "lots" }, errs.ErrNonNumeric},
		{"fractional stock", func(f *EntryForm) { f.Stock = "1.5" }, errs.ErrNonNumeric},
		{"negative stock", func(f *EntryForm) { f.Stock = "-3" }, errs.ErrNegative},
		{"missing name", func(f *EntryForm) { f.Name = " " }, errs.ErrRequired},
		{"missing category", func(f *EntryForm) { f.Category = "" }, errs.ErrRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			_, err := c.Create(ctx, form)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, server.Count(http.MethodPost, "/products"), "malformed input must not reach the network")
}

func TestCreate_RefetchesListing(t *testing.T) {
	c, server := newCoordinator(t, true)
	ctx := context.Background()

	entry, err := c.Create(ctx, validForm())
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.True(t, entry.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, 1, server.Count(http.MethodPost, "/products"))
	assert.Equal(t, 1, server.Count(http.MethodGet, "/products"), "a mutation must be followed by a listing refetch")

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
	assert.Equal(t, 1, server.Count(http.MethodGet, "/products"), "refetched listing must be served from cache")
}

func TestList_CachesUntilInvalidated(t *testing.T) {
	c, server := newCoordinator(t, true)
	ctx := context.Background()

	server.SeedProduct("Widget", decimal.RequireFromString("10.00"), 3)

	_, err := c.List(ctx)
	require.NoError(t, err)
	_, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, server.Count(http.MethodGet, "/products"))

	c.Invalidate()
	_, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, server.Count(http.MethodGet, "/products"))
}

func TestUpdate(t *testing.T) {
	c, _ := newCoordinator(t, true)
	ctx := context.Background()

	created, err := c.Create(ctx, validForm())
	require.NoError(t, err)

	form := validForm()
	form.Price = "25.00"
	form.Stock = "2"
	updated, err := c.Update(ctx, created.ID, form)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, 2, updated.Stock)

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Price.Equal(decimal.RequireFromString("25.00")))

	_, err = c.Update(ctx, 999, validForm())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDelete(t *testing.T) {
	c, server := newCoordinator(t, true)
	ctx := context.Background()

	created, err := c.Create(ctx, validForm())
	require.NoError(t, err)
	server.ResetCounts()

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.Equal(t, 1, server.Count(http.MethodDelete, "/products/:id"))
	assert.Equal(t, 1, server.Count(http.MethodGet, "/products"))

	entries, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.ErrorIs(t, c.Delete(ctx, created.ID), errs.ErrNotFound)
}

func TestMutation_RequiresAdmin(t *testing.T) {
	c, _ := newCoordinator(t, false)
	ctx := context.Background()

	_, err := c.Create(ctx, validForm())
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	// Reading the catalog stays open to shoppers.
	_, err = c.List(ctx)
	require.NoError(t, err)
}

func TestZeroPriceAndStockAreValid(t *testing.T) {
	c, _ := newCoordinator(t, true)
	ctx := context.Background()

	form := validForm()
	form.Price = "0.00"
	form.Stock = "0"
	entry, err := c.Create(ctx, form)
	require.NoError(t, err)
	assert.True(t, entry.Price.IsZero())
	assert.Equal(t, 0, entry.Stock)
}
