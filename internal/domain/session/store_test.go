package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
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

type env struct {
	server *apitest.Server
	client *api.Client
	tokens *FileTokenStore
	store  *Store
}

func newEnv(t *testing.T) *env {
	t.Helper()

	server := apitest.New()
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.API.BaseURL = server.URL()
	cfg.API.Timeout = 5 * time.Second

	client := api.NewClient(cfg, log)
	tokens := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	store := NewStore(client, tokens, log)
	client.OnUnauthorized(store.Invalidate)

	return &env{server: server, client: client, tokens: tokens, store: store}
}

// requireInvariant checks Authenticated == (User != nil) on every transition
func requireInvariant(t *testing.T, s Session) {
	t.Helper()
	require.Equal(t, s.Authenticated, s.User != nil, "session invariant violated")
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)

	s, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	requireInvariant(t, s)
	assert.True(t, s.Authenticated)
	assert.Equal(t, RoleShopper, s.User.Role)

	// Token must be persisted for the next process start.
	tok, err := e.tokens.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestLogin_AdminRole(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("root@example.com", "pw", true)

	s, err := e.store.Login(context.Background(), api.Credentials{Email: "root@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, s.User.Role)
	assert.True(t, s.IsAdmin())
}

func TestLogin_FailurePreservesPriorSession(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)

	prior, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	got, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	requireInvariant(t, got)
	assert.Equal(t, prior, got, "failed login must leave the prior session untouched")
	assert.Equal(t, prior, e.store.Current())
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	s, err := e.store.Register(context.Background(), api.Profile{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	requireInvariant(t, s)
	assert.Equal(t, RoleShopper, s.User.Role)

	_, err = e.store.Register(context.Background(), api.Profile{Email: "new@example.com", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrDuplicateUser)

	_, err = e.store.Register(context.Background(), api.Profile{Email: "", Password: ""})
	require.ErrorIs(t, err, errs.ErrValidationFailed)
}

func TestLogout_Idempotent(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)
	_, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	transitions := 0
	cancel := e.store.Subscribe(func(Session) { transitions++ })
	defer cancel()

	e.store.Logout()
	requireInvariant(t, e.store.Current())
	assert.False(t, e.store.Current().Authenticated)
	assert.Equal(t, 1, transitions)

	// Second call is a no-op: no transition, no notification.
	e.store.Logout()
	assert.Equal(t, 1, transitions)

	tok, err := e.tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSubscribe_SynchronousNotification(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)

	var observed []Session
	cancel := e.store.Subscribe(func(s Session) {
		observed = append(observed, s)
		// No stale-read window: Current already reflects the transition.
		assert.Equal(t, s, e.store.Current())
	})
	defer cancel()

	_, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	e.store.Logout()

	require.Len(t, observed, 2)
	assert.True(t, observed[0].Authenticated)
	assert.False(t, observed[1].Authenticated)
	for _, s := range observed {
		requireInvariant(t, s)
	}
}

func TestRestore_ValidToken(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("admin@example.com", "pw", true)
	tok := e.server.IssueToken("admin@example.com", time.Now().Add(time.Hour))
	require.NoError(t, e.tokens.Save(tok, time.Now().Add(time.Hour)))

	s := e.store.Restore()
	requireInvariant(t, s)
	assert.True(t, s.Authenticated)
	assert.Equal(t, RoleAdmin, s.User.Role)
	assert.Equal(t, "admin@example.com", s.User.Email)

	// The restored token must arm authenticated calls.
	_, err := e.client.GetCart(context.Background())
	assert.NoError(t, err)
}

func TestRestore_ExpiredToken(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)
	tok := e.server.IssueToken("alice@example.com", time.Now().Add(-time.Hour))
	require.NoError(t, e.tokens.Save(tok, time.Now().Add(-time.Hour)))

	s := e.store.Restore()
	requireInvariant(t, s)
	assert.False(t, s.Authenticated)

	// The unusable token is scrubbed from disk.
	saved, err := e.tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRestore_GarbageToken(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.tokens.Save("not-a-jwt", time.Now().Add(time.Hour)))

	s := e.store.Restore()
	requireInvariant(t, s)
	assert.False(t, s.Authenticated)
}

func TestRestore_NoToken(t *testing.T) {
	e := newEnv(t)

	s := e.store.Restore()
	requireInvariant(t, s)
	assert.False(t, s.Authenticated)
}

func TestUnauthorizedCallForcesSessionClear(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice@example.com", "pw", false)
	_, err := e.store.Login(context.Background(), api.Credentials{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	notified := false
	cancel := e.store.Subscribe(func(s Session) {
		notified = true
		assert.False(t, s.Authenticated)
	})
	defer cancel()

	// Server-side revocation: the next authenticated call is refused.
	e.server.RevokeAll()
	_, err = e.client.GetCart(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	requireInvariant(t, e.store.Current())
	assert.False(t, e.store.Current().Authenticated)
	assert.True(t, notified, "forced clear must notify subscribers")
}

func TestFileTokenStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)

	// Missing file is not an error.
	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.Save("tok-1", time.Now().Add(time.Hour)))
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice must not fail")

	tok, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
