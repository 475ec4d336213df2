// Package apitest provides an in-memory ShopNetic service for tests. It
// speaks the same wire contract as the real remote service: auth, catalog,
// cart and checkout endpoints with machine-readable error bodies.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-client/internal/api"
)

var signingKey = []byte("apitest-signing-key-not-a-secret")

type userRecord struct {
	ID       uint
	Email    string
	Password string
	IsAdmin  bool
}

type cartLine struct {
	ProductID uint
	Quantity  int
}

// Server is a fake remote ShopNetic service backed by in-memory tables
type Server struct {
	HTTP *httptest.Server

	mu          sync.Mutex
	users       map[string]*userRecord // by email
	tokens      map[string]uint        // token -> user id
	products    map[uint]api.ProductPayload
	carts       map[uint][]cartLine // by user id, ordered
	nextUserID  uint
	nextProduct uint
	counts      map[string]int

	// TotalOverride, when set, replaces the computed cart total in responses.
	TotalOverride *decimal.Decimal
}

// New starts a fake service. Callers must Close it.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		users:    make(map[string]*userRecord),
		tokens:   make(map[string]uint),
		products: make(map[uint]api.ProductPayload),
		carts:    make(map[uint][]cartLine),
		counts:   make(map[string]int),
	}

	router := gin.New()
	router.Use(s.countRequests)

	router.POST("/auth/login", s.login)
	router.POST("/auth/register", s.register)

	authed := router.Group("")
	authed.Use(s.requireAuth)
	{
		authed.GET("/cart", s.getCart)
		authed.POST("/cart/items", s.addCartItem)
		authed.PUT("/cart/items/:id", s.updateCartItem)
		authed.DELETE("/cart/items/:id", s.removeCartItem)
		authed.POST("/cart/checkout", s.checkout)

		authed.GET("/products", s.listProducts)

		admin := authed.Group("")
		admin.Use(s.requireAdmin)
		{
			admin.POST("/products", s.createProduct)
			admin.PUT("/products/:id", s.updateProduct)
			admin.DELETE("/products/:id", s.deleteProduct)
		}
	}

	s.HTTP = httptest.NewServer(router)
	return s
}

// Close shuts the fake service down
func (s *Server) Close() { s.HTTP.Close() }

// URL returns the base URL clients should dial
func (s *Server) URL() string { return s.HTTP.URL }

// AddUser seeds an account and returns its id
func (s *Server) AddUser(email, password string, isAdmin bool) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	s.users[email] = &userRecord{ID: s.nextUserID, Email: email, Password: password, IsAdmin: isAdmin}
	return s.nextUserID
}

// SeedProduct adds a catalog entry and returns its id
func (s *Server) SeedProduct(name string, price decimal.Decimal, stock int) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProduct++
	s.products[s.nextProduct] = api.ProductPayload{
		ID:       s.nextProduct,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "general",
	}
	return s.nextProduct
}

// RemoveProduct deletes a catalog entry behind the client's back, simulating
// a concurrent remote removal.
func (s *Server) RemoveProduct(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// RevokeAll invalidates every issued token, so the next authenticated call
// is refused with 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]uint)
}

// IssueToken mints a signed token for a seeded user without going through
// login. Expiry may be in the past to fabricate stale tokens.
func (s *Server) IssueToken(email string, expiresAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[email]
	if u == nil {
		panic("apitest: unknown user " + email)
	}
	tok := s.signToken(u, expiresAt)
	if expiresAt.After(time.Now()) {
		s.tokens[tok] = u.ID
	}
	return tok
}

// Count reports how many requests matched the given method and route pattern,
// e.g. Count("GET", "/cart").
func (s *Server) Count(method, routePattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+routePattern]
}

// ResetCounts clears the request counters
func (s *Server) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]int)
}

// ---- middleware ----

func (s *Server) countRequests(c *gin.Context) {
	c.Next()
	if pattern := c.FullPath(); pattern != "" {
		s.mu.Lock()
		s.counts[c.Request.Method+" "+pattern]++
		s.mu.Unlock()
	}
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if len(header) <= 7 || header[:7] != "Bearer " {
		s.fail(c, http.StatusUnauthorized, "unauthorized", "authorization required")
		return
	}
	token := header[7:]

	s.mu.Lock()
	userID, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		s.fail(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
		return
	}
	c.Set("user_id", userID)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	userID := c.GetUint("user_id")
	s.mu.Lock()
	isAdmin := false
	for _, u := range s.users {
		if u.ID == userID {
			isAdmin = u.IsAdmin
			break
		}
	}
	s.mu.Unlock()
	if !isAdmin {
		s.fail(c, http.StatusForbidden, "forbidden", "admin access required")
		return
	}
	c.Next()
}

func (s *Server) fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// ---- auth handlers ----

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid request data")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	if !ok || u.Password != req.Password {
		s.mu.Unlock()
		s.fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	token := s.signToken(u, time.Now().Add(time.Hour))
	s.tokens[token] = u.ID
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"user":  gin.H{"id": u.ID, "email": u.Email, "is_admin": u.IsAdmin},
		"token": token,
	})
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		s.fail(c, http.StatusConflict, "duplicate_user", "user already exists")
		return
	}
	s.nextUserID++
	u := &userRecord{ID: s.nextUserID, Email: req.Email, Password: req.Password}
	s.users[req.Email] = u
	token := s.signToken(u, time.Now().Add(time.Hour))
	s.tokens[token] = u.ID
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"user":  gin.H{"id": u.ID, "email": u.Email, "is_admin": u.IsAdmin},
		"token": token,
	})
}

// signToken mints the same claim shape the real service issues
func (s *Server) signToken(u *userRecord, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"user_id":    u.ID,
		"email":      u.Email,
		"is_admin":   u.IsAdmin,
		"token_type": "access",
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return tok
}

// ---- cart handlers ----

func (s *Server) getCart(c *gin.Context) {
	userID := c.GetUint("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"cart": s.cartPayload(userID)})
}

// cartPayload joins cart lines with the product table; lines whose product
// vanished are dropped, mirroring remote reconciliation. Callers hold s.mu.
func (s *Server) cartPayload(userID uint) api.CartPayload {
	payload := api.CartPayload{Items: []api.CartItemPayload{}, Total: decimal.Zero}
	kept := s.carts[userID][:0]
	for _, line := range s.carts[userID] {
		p, ok := s.products[line.ProductID]
		if !ok {
			continue
		}
		kept = append(kept, line)
		payload.Items = append(payload.Items, api.CartItemPayload{
			ProductID: line.ProductID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		})
		payload.Total = payload.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	s.carts[userID] = kept
	if s.TotalOverride != nil {
		payload.Total = *s.TotalOverride
	}
	return payload
}

type addItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func (s *Server) addCartItem(c *gin.Context) {
	userID := c.GetUint("user_id")
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid request data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[req.ProductID]
	if !ok {
		s.fail(c, http.StatusNotFound, "not_found", "product not found")
		return
	}

	existing := 0
	for _, line := range s.carts[userID] {
		if line.ProductID == req.ProductID {
			existing = line.Quantity
			break
		}
	}
	if existing+req.Quantity > p.Stock {
		s.fail(c, http.StatusConflict, "out_of_stock", fmt.Sprintf("insufficient stock, available: %d", p.Stock))
		return
	}

	if existing > 0 {
		for i := range s.carts[userID] {
			if s.carts[userID][i].ProductID == req.ProductID {
				s.carts[userID][i].Quantity += req.Quantity
			}
		}
	} else {
		s.carts[userID] = append(s.carts[userID], cartLine{ProductID: req.ProductID, Quantity: req.Quantity})
	}

	c.JSON(http.StatusOK, gin.H{"message": "item added"})
}

func (s *Server) updateCartItem(c *gin.Context) {
	userID := c.GetUint("user_id")
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product id")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid quantity")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[uint(productID)]
	if ok && req.Quantity > p.Stock {
		s.fail(c, http.StatusConflict, "out_of_stock", fmt.Sprintf("insufficient stock, available: %d", p.Stock))
		return
	}

	for i := range s.carts[userID] {
		if s.carts[userID][i].ProductID == uint(productID) {
			s.carts[userID][i].Quantity = req.Quantity
			c.JSON(http.StatusOK, gin.H{"message": "item updated"})
			return
		}
	}
	s.fail(c, http.StatusNotFound, "not_found", "item not in cart")
}

func (s *Server) removeCartItem(c *gin.Context) {
	userID := c.GetUint("user_id")
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == uint(productID) {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "item removed"})
			return
		}
	}
	s.fail(c, http.StatusNotFound, "not_found", "item not in cart")
}

func (s *Server) checkout(c *gin.Context) {
	userID := c.GetUint("user_id")

	s.mu.Lock()
	s.carts[userID] = nil
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "order placed"})
}

// ---- catalog handlers ----

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]api.ProductPayload, 0, len(s.products))
	for id := uint(1); id <= s.nextProduct; id++ {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) createProduct(c *gin.Context) {
	var p api.ProductPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product data")
		return
	}

	s.mu.Lock()
	s.nextProduct++
	p.ID = s.nextProduct
	s.products[p.ID] = p
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (s *Server) updateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product id")
		return
	}

	var p api.ProductPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[uint(id)]; !ok {
		s.fail(c, http.StatusNotFound, "not_found", "product not found")
		return
	}
	p.ID = uint(id)
	s.products[p.ID] = p
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "validation_failed", "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[uint(id)]; !ok {
		s.fail(c, http.StatusNotFound, "not_found", "product not found")
		return
	}
	delete(s.products, uint(id))
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
