package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/api/apitest"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/pkg/errs"
)

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second

	return api.NewClient(cfg, log)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	server := apitest.New()
	t.Cleanup(server.Close)
	server.AddUser("alice@example.com", "pw", false)

	client := newClient(t, server.URL())

	_, err := client.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "nope"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	resp, err := client.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestRegister_DuplicateUser(t *testing.T) {
	server := apitest.New()
	t.Cleanup(server.Close)
	server.AddUser("taken@example.com", "pw", false)

	client := newClient(t, server.URL())

	_, err := client.Register(context.Background(), api.Profile{Email: "taken@example.com", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrDuplicateUser)
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	server := apitest.New()
	t.Cleanup(server.Close)

	client := newClient(t, server.URL())

	_, err := client.GetCart(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestUnauthorizedHookFiresOncePerResponse(t *testing.T) {
	server := apitest.New()
	t.Cleanup(server.Close)
	server.AddUser("alice@example.com", "pw", false)

	client := newClient(t, server.URL())

	fired := 0
	client.OnUnauthorized(func() { fired++ })

	resp, err := client.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	client.SetToken(resp.Token)

	server.RevokeAll()
	_, err = client.GetCart(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, 1, fired)

	// A login failure is not an authenticated 401; the hook stays quiet.
	client.ClearToken()
	_, err = client.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "nope"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	assert.Equal(t, 1, fired)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":1,"email":"a@b.c","is_admin":false},"token":"t"}`))
	}))
	t.Cleanup(raw.Close)

	client := newClient(t, raw.URL)
	client.SetToken("tok-123")

	_, err := client.Login(context.Background(), api.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
}

func TestServerErrorMapsToServiceUnavailable(t *testing.T) {
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(raw.Close)

	client := newClient(t, raw.URL)
	client.SetToken("tok")

	_, err := client.GetCart(context.Background())
	require.ErrorIs(t, err, errs.ErrServiceUnavailable)
}

func TestTransportFailureMapsToServiceUnavailable(t *testing.T) {
	raw := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	raw.Close() // nothing is listening anymore

	client := newClient(t, raw.URL)

	_, err := client.ListProducts(context.Background())
	require.ErrorIs(t, err, errs.ErrServiceUnavailable)
}

func TestErrorMessageIsPreserved(t *testing.T) {
	server := apitest.New()
	t.Cleanup(server.Close)
	server.AddUser("alice@example.com", "pw", false)

	client := newClient(t, server.URL())

	_, err := client.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password", "the remote reason must surface verbatim")
}
