// Package api is the HTTP transport capability consumed by the client core.
// It owns base URL handling, bearer auth, request ids and the mapping from
// remote responses to the sentinel errors in internal/pkg/errs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/pkg/auth"
	"github.com/your-org/storefront-client/internal/pkg/errs"
)

// Client talks to the remote ShopNetic service
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger

	mu    sync.RWMutex
	token string

	onUnauthorized func()
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.API.BaseURL,
		http:    &http.Client{Timeout: cfg.API.Timeout},
		log:     log,
	}
}

// SetToken arms the client with a bearer token. Called by the session store only.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token
func (c *Client) ClearToken() {
	c.SetToken("")
}

// OnUnauthorized registers a hook invoked whenever an authenticated call is
// refused with 401. The hook runs before the error is returned to the caller.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// errorBody is the machine-readable error envelope returned by the remote service
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do performs a JSON round trip and decodes the response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	authenticated := token != ""
	if authenticated {
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     method,
			"path":       path,
			"error":      err.Error(),
		}).Warn("Remote service unreachable")
		return fmt.Errorf("%w: %v", errs.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency":     time.Since(start),
	}).Debug("Remote call completed")

	if resp.StatusCode >= 400 {
		return c.mapError(resp, path, authenticated)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// mapError translates an error response into a sentinel from internal/pkg/errs
func (c *Client) mapError(resp *http.Response, path string, authenticated bool) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	sentinel := c.sentinelFor(resp.StatusCode, body.Code, path)

	if sentinel == errs.ErrUnauthorized && authenticated && resp.StatusCode == http.StatusUnauthorized {
		// Forced session teardown per the unauthorized-response policy.
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if body.Error != "" {
		return fmt.Errorf("%s: %w", body.Error, sentinel)
	}
	return sentinel
}

func (c *Client) sentinelFor(status int, code string, path string) error {
	switch {
	case status == http.StatusUnauthorized && strings.HasPrefix(path, "/auth/"):
		return errs.ErrInvalidCredentials
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return errs.ErrUnauthorized
	case status == http.StatusNotFound:
		return errs.ErrNotFound
	case status == http.StatusConflict && code == "duplicate_user":
		return errs.ErrDuplicateUser
	case status == http.StatusConflict && code == "out_of_stock":
		return errs.ErrOutOfStock
	case status >= 500:
		return errs.ErrServiceUnavailable
	default:
		return errs.ErrValidationFailed
	}
}
