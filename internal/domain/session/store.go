// internal/domain/session/store.go
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/pkg/auth"
)

// fallback expiry recorded when the server token carries no exp claim
const defaultTokenTTL = 24 * time.Hour

// Store owns the authentication state of the client. It is the only writer
// of session state; every other component reads through Current or Subscribe.
// Subscribers are notified synchronously after each completed transition, so
// there is no stale-read window between a transition and its observers.
type Store struct {
	client *api.Client
	tokens TokenStore
	log    *logrus.Logger

	mu      sync.RWMutex
	current Session
	subs    map[int]func(Session)
	nextSub int
}

// NewStore creates a new session store
func NewStore(client *api.Client, tokens TokenStore, log *logrus.Logger) *Store {
	return &Store{
		client:  client,
		tokens:  tokens,
		log:     log,
		current: Anonymous(),
		subs:    make(map[int]func(Session)),
	}
}

// Current returns the session as of the last completed transition
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers an observer for session transitions. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login authenticates against the remote auth service. A failed attempt
// leaves any prior session untouched.
func (s *Store) Login(ctx context.Context, creds api.Credentials) (Session, error) {
	resp, err := s.client.Login(ctx, creds)
	if err != nil {
		return s.Current(), fmt.Errorf("login failed: %w", err)
	}
	return s.establish(resp), nil
}

// Register creates an account and signs the new user in
func (s *Store) Register(ctx context.Context, profile api.Profile) (Session, error) {
	resp, err := s.client.Register(ctx, profile)
	if err != nil {
		return s.Current(), fmt.Errorf("registration failed: %w", err)
	}
	return s.establish(resp), nil
}

// Logout clears the persisted token and in-memory identity. Calling it on a
// logged-out store is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	if !s.current.Authenticated {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.teardown("logout")
}

// Invalidate forcibly clears the session after the remote service refused an
// authenticated call. Wired to the API client's unauthorized hook.
func (s *Store) Invalidate() {
	s.mu.Lock()
	if !s.current.Authenticated {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.log.Warn("Session invalidated by remote service")
	s.teardown("unauthorized")
}

// Restore rebuilds the session from the persisted token at process start.
// A well-formed, unexpired token authenticates the session optimistically;
// the first refused call afterwards tears it down again via Invalidate.
func (s *Store) Restore() Session {
	token, err := s.tokens.Load()
	if err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to load persisted token")
		return s.Current()
	}
	if token == "" {
		return s.Current()
	}

	claims, err := auth.ParseClaims(token)
	if err != nil {
		s.log.WithField("error", err.Error()).Info("Discarding unusable persisted token")
		if err := s.tokens.Clear(); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to clear token file")
		}
		return s.Current()
	}

	s.client.SetToken(token)
	next := ForUser(userFromClaims(claims))
	s.transition(next)
	return next
}

// establish persists the token and installs the authenticated session
func (s *Store) establish(resp *api.AuthResponse) Session {
	expiresAt := time.Now().UTC().Add(defaultTokenTTL)
	if claims, err := auth.ParseClaims(resp.Token); err == nil {
		expiresAt = claims.ExpiresAtOrDefault(defaultTokenTTL)
	}
	if err := s.tokens.Save(resp.Token, expiresAt); err != nil {
		// A failed save degrades persistence across restarts, not this session.
		s.log.WithField("error", err.Error()).Warn("Failed to persist session token")
	}

	s.client.SetToken(resp.Token)
	next := ForUser(userFromAuth(resp.User))
	s.transition(next)
	return next
}

// teardown clears token state and transitions to the anonymous session
func (s *Store) teardown(reason string) {
	s.client.ClearToken()
	if err := s.tokens.Clear(); err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to clear token file")
	}
	s.log.WithField("reason", reason).Info("Session cleared")
	s.transition(Anonymous())
}

// transition installs the next session and notifies subscribers synchronously
func (s *Store) transition(next Session) {
	s.mu.Lock()
	s.current = next
	observers := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

func userFromAuth(u api.AuthUser) User {
	return User{ID: u.ID, Email: u.Email, Role: roleFor(u.IsAdmin)}
}

func userFromClaims(c *auth.Claims) User {
	return User{ID: c.UserID, Email: c.Email, Role: roleFor(c.IsAdmin)}
}

func roleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleShopper
}
