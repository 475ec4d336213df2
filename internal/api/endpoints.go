// internal/api/endpoints.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Credentials is the login request payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the registration request payload
type Profile struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthUser is the identity returned by the remote auth service
type AuthUser struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// AuthResponse is the payload of successful login/registration
type AuthResponse struct {
	User  AuthUser `json:"user"`
	Token string   `json:"token"`
}

// CartItemPayload is a single cart line as transmitted by the remote cart service
type CartItemPayload struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// CartPayload is the authoritative cart state
type CartPayload struct {
	Items []CartItemPayload `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type cartResponse struct {
	Cart CartPayload `json:"cart"`
}

// ProductPayload is a catalog entry as transmitted by the remote catalog service
type ProductPayload struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
}

type productsResponse struct {
	Products []ProductPayload `json:"products"`
}

type productResponse struct {
	Product ProductPayload `json:"product"`
}

type addCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Login authenticates against POST /auth/login
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account via POST /auth/register
func (c *Client) Register(ctx context.Context, profile Profile) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCart retrieves the authoritative cart snapshot via GET /cart
func (c *Client) GetCart(ctx context.Context) (*CartPayload, error) {
	var out cartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out.Cart, nil
}

// AddCartItem requests a server-side addition via POST /cart/items
func (c *Client) AddCartItem(ctx context.Context, productID uint, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart/items", addCartItemRequest{ProductID: productID, Quantity: quantity}, nil)
}

// UpdateCartItem updates a line quantity via PUT /cart/items/:productId
func (c *Client) UpdateCartItem(ctx context.Context, productID uint, quantity int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/items/%d", productID), updateCartItemRequest{Quantity: quantity}, nil)
}

// RemoveCartItem removes a line via DELETE /cart/items/:productId
func (c *Client) RemoveCartItem(ctx context.Context, productID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d", productID), nil, nil)
}

// Checkout clears the remote cart atomically via POST /cart/checkout
func (c *Client) Checkout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/cart/checkout", nil, nil)
}

// ListProducts retrieves the catalog via GET /products
func (c *Client) ListProducts(ctx context.Context) ([]ProductPayload, error) {
	var out productsResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// CreateProduct creates a catalog entry via POST /products
func (c *Client) CreateProduct(ctx context.Context, p ProductPayload) (*ProductPayload, error) {
	var out productResponse
	if err := c.do(ctx, http.MethodPost, "/products", p, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// UpdateProduct updates a catalog entry via PUT /products/:id
func (c *Client) UpdateProduct(ctx context.Context, id uint, p ProductPayload) (*ProductPayload, error) {
	var out productResponse
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), p, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// DeleteProduct deletes a catalog entry via DELETE /products/:id
func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}
