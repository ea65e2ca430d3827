// Package session owns the client's authentication state: deriving it
// from stored tokens at startup, mutating it through login, register,
// logout and refresh, and steering navigation between the public and
// role areas. State is held by an injected Session value rather than
// package globals so it can be torn down and tested in isolation.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/auth"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/model"
)

// refreshLeeway is how close to expiry a stored access token may be
// before boot tries the refresh endpoint first.
const refreshLeeway = 30 * time.Second

// MinPasswordLength matches the backend's registration constraint;
// checking it locally avoids a doomed round trip.
const MinPasswordLength = 6

// ValidationError reports client-side input rejection. It never reaches
// the network.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Snapshot is the externally visible session state. Authenticated
// implies User != nil and a valid Role.
type Snapshot struct {
	Loading       bool
	Authenticated bool
	User          *model.UserProfile
	Role          model.Role
}

type Session struct {
	client *api.Client
	tokens keystore.Store
	nav    Navigator

	mu   sync.Mutex
	snap Snapshot
	area Area

	// lastRoute dedupes guard output: firing the guard again with the
	// same state and area must not re-issue the redirect.
	lastRoute string
}

func New(client *api.Client, tokens keystore.Store, nav Navigator) *Session {
	return &Session{
		client: client,
		tokens: tokens,
		nav:    nav,
		snap:   Snapshot{Loading: true},
		area:   AreaPublic,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetArea records the navigation group the user moved to and re-runs
// the guard against it.
func (s *Session) SetArea(area Area) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if area != s.area {
		s.area = area
		s.lastRoute = ""
	}
	s.guardLocked()
}

// Boot derives the session from the keystore. With a stored token and
// role it fetches the profile and lands authenticated; an unauthorized
// answer clears the stored credentials; any other failure lands
// signed out without touching them, so a later launch can recover.
// Boot never returns an error for auth-related failures, only for a
// broken keystore.
func (s *Session) Boot(ctx context.Context) error {
	token, err := s.tokens.Get(keystore.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	role := model.Role("")
	if raw, err := s.tokens.Get(keystore.KeyRole); err == nil {
		role = model.Role(raw)
	}

	if token == "" || !role.Valid() {
		s.settle(Snapshot{})
		return nil
	}

	// A stale access token with a refresh token on hand is worth one
	// refresh attempt; if that fails the stored token still gets its
	// chance against the profile endpoint.
	if refresh, err := s.tokens.Get(keystore.KeyRefreshToken); err == nil && refresh != "" {
		if auth.Stale(token, refreshLeeway) {
			if err := s.RefreshTokens(ctx); err == nil {
				if fresh, err := s.tokens.Get(keystore.KeyAccessToken); err == nil && fresh != "" {
					token = fresh
				}
			}
		}
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.clearTokens()
		}
		s.settle(Snapshot{})
		return nil
	}

	s.settle(Snapshot{Authenticated: true, User: user, Role: role})
	return nil
}

// Login authenticates with an account (email or phone) and password.
// Failures propagate typed: 401 means bad credentials. On success the
// token bundle is persisted before the profile fetch, and the public
// state flips only after both completed.
func (s *Session) Login(ctx context.Context, account, password string) error {
	if err := validateLogin(account, password); err != nil {
		return err
	}
	var bundle model.TokenBundle
	err := s.client.PostJSONPublic(ctx, "/auth/login", model.LoginRequest{
		Account:  account,
		Password: password,
	}, &bundle)
	if err != nil {
		return err
	}
	return s.adopt(ctx, bundle)
}

// Register creates an account and signs in with the returned bundle.
// A 409 propagates untouched: the account already exists.
func (s *Session) Register(ctx context.Context, req model.RegisterRequest) error {
	if err := validateRegister(req); err != nil {
		return err
	}
	var bundle model.TokenBundle
	if err := s.client.PostJSONPublic(ctx, "/auth/register", req, &bundle); err != nil {
		return err
	}
	return s.adopt(ctx, bundle)
}

// adopt persists a freshly issued bundle, fetches the profile and flips
// the session state, in that order. A failed profile fetch leaves the
// visible state untouched; the persisted tokens get resolved at next
// boot.
func (s *Session) adopt(ctx context.Context, bundle model.TokenBundle) error {
	if err := s.saveTokens(bundle); err != nil {
		return err
	}
	user, err := s.fetchProfile(ctx)
	if err != nil {
		return err
	}
	s.settle(Snapshot{Authenticated: true, User: user, Role: bundle.Role})
	return nil
}

// Logout clears the keystore before resetting in-memory state, so no
// call started after this point can read a stale token.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.clearTokens(); err != nil {
		return err
	}
	s.settle(Snapshot{})
	return nil
}

// RefreshProfile re-fetches the profile and replaces only the user
// field. A no-op when signed out.
func (s *Session) RefreshProfile(ctx context.Context) error {
	if !s.Snapshot().Authenticated {
		return nil
	}
	user, err := s.fetchProfile(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap.User = user
	s.mu.Unlock()
	return nil
}

// RefreshTokens trades the stored refresh token for a new bundle and
// writes it through.
func (s *Session) RefreshTokens(ctx context.Context) error {
	refresh, err := s.tokens.Get(keystore.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	if refresh == "" {
		return ValidationError("no refresh token stored")
	}
	var bundle model.TokenBundle
	err = s.client.PostJSONPublic(ctx, "/auth/refresh", map[string]string{
		"refresh_token": refresh,
	}, &bundle)
	if err != nil {
		return err
	}
	return s.saveTokens(bundle)
}

// UpdateAccessibility round-trips the accessibility settings.
func (s *Session) UpdateAccessibility(ctx context.Context, settings model.AccessibilitySettings) (model.AccessibilitySettings, error) {
	var updated model.AccessibilitySettings
	err := s.client.PatchJSON(ctx, "/users/me/accessibility", settings, &updated)
	return updated, err
}

func (s *Session) fetchProfile(ctx context.Context) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := s.client.GetJSON(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Session) saveTokens(bundle model.TokenBundle) error {
	if err := s.tokens.Set(keystore.KeyAccessToken, bundle.AccessToken); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	if err := s.tokens.Set(keystore.KeyRefreshToken, bundle.RefreshToken); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	if err := s.tokens.Set(keystore.KeyRole, string(bundle.Role)); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

func (s *Session) clearTokens() error {
	for _, key := range []string{keystore.KeyAccessToken, keystore.KeyRefreshToken, keystore.KeyRole} {
		if err := s.tokens.Delete(key); err != nil {
			return fmt.Errorf("clear tokens: %w", err)
		}
	}
	return nil
}

// settle installs a final (non-loading) state and runs the guard.
func (s *Session) settle(snap Snapshot) {
	snap.Loading = false
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.lastRoute = ""
	s.guardLocked()
}

func (s *Session) guardLocked() {
	route, ok := Redirect(s.snap, s.area)
	if !ok {
		s.lastRoute = ""
		return
	}
	if route == s.lastRoute {
		return
	}
	s.lastRoute = route
	if s.nav != nil {
		s.nav.RedirectTo(route)
	}
}

func validateLogin(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return ValidationError("account is required")
	}
	if password == "" {
		return ValidationError("password is required")
	}
	return nil
}

func validateRegister(req model.RegisterRequest) error {
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Phone) == "" {
		return ValidationError("phone or email is required")
	}
	if len(req.Password) < MinPasswordLength {
		return ValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !req.Role.Valid() {
		return ValidationError("role must be seeker or volunteer")
	}
	return nil
}
