// Package apitest runs an in-memory stand-in for the SeeForMe backend,
// used by package tests across the repo. It mirrors the real API's
// routes, status codes and error bodies closely enough to exercise the
// client's failure handling, but keeps all state in maps.
package apitest

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
)

// Secret signs the fake backend's JWTs. Tests never verify them outside
// this package.
const Secret = "apitest-secret"

type Account struct {
	ID       string
	Account  string
	Password string
	Role     model.Role
}

type claims struct {
	Type string `json:"type"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Backend struct {
	mu            sync.Mutex
	baseURL       string
	accounts      map[string]Account
	profiles      map[string]model.UserProfile
	requests      map[string]*model.HelpRequest
	replies       map[string][]model.Reply
	notifications []model.Notification
	uploads       map[string][]byte
	hits          int

	// FailReads forces 500 on every read endpoint, for fallback tests.
	FailReads bool
}

func New() *Backend {
	return &Backend{
		accounts: map[string]Account{},
		profiles: map[string]model.UserProfile{},
		requests: map[string]*model.HelpRequest{},
		replies:  map[string][]model.Reply{},
		uploads:  map[string][]byte{},
	}
}

// SetBaseURL is needed for presign responses, which carry absolute
// upload URLs. Call it with the httptest server URL.
func (b *Backend) SetBaseURL(u string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.baseURL = u
}

// SeedAccount registers an account and returns its user ID.
func (b *Backend) SeedAccount(acct Account) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	b.accounts[acct.Account] = acct
	b.profiles[acct.ID] = model.UserProfile{
		ID:        acct.ID,
		Role:      acct.Role,
		Email:     acct.Account,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	return acct.ID
}

// SeedRequest stores a help request, filling in an ID when absent.
func (b *Backend) SeedRequest(req model.HelpRequest) model.HelpRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = lifecycle.StatusOpen
	}
	b.requests[req.ID] = &req
	return req
}

// SetStatus rewrites a request's status behind the client's back, the
// way a concurrent claimant would.
func (b *Backend) SetStatus(requestID string, status lifecycle.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req, ok := b.requests[requestID]; ok {
		req.Status = status
	}
}

func (b *Backend) SeedNotifications(items ...model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, items...)
}

// Request returns a copy of the stored request.
func (b *Backend) Request(id string) (model.HelpRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requests[id]
	if !ok {
		return model.HelpRequest{}, false
	}
	return *req, true
}

// Hits counts every request the backend has served, so tests can assert
// that demo-mode actions never touch the network.
func (b *Backend) Hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits
}

// Token mints a signed access token for a seeded user.
func (b *Backend) Token(userID string, role model.Role, ttl time.Duration) string {
	return mustSign("access", userID, role, ttl)
}

// RefreshToken mints a signed refresh token for a seeded user.
func (b *Backend) RefreshToken(userID string, role model.Role, ttl time.Duration) string {
	return mustSign("refresh", userID, role, ttl)
}

func mustSign(typ, userID string, role model.Role, ttl time.Duration) string {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Type: typ,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(Secret))
	if err != nil {
		panic(err)
	}
	return signed
}

func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.countHits)

	r.Post("/auth/register", b.handleRegister)
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/refresh", b.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Get("/users/me", b.handleProfile)
		r.Patch("/users/me/accessibility", b.handleAccessibility)

		r.Post("/help-requests", b.handleCreateRequest)
		r.Get("/help-requests/hall", b.handleHall)
		r.Get("/help-requests/mine", b.handleMine)
		r.Get("/help-requests/{requestID}", b.handleGetRequest)
		r.Post("/help-requests/{requestID}/claim", b.handleClaim)
		r.Get("/help-requests/{requestID}/replies", b.handleListReplies)
		r.Post("/help-requests/{requestID}/replies", b.handleCreateReply)
		r.Post("/help-requests/{requestID}/cancel", b.handleCancel)
		r.Post("/help-requests/{requestID}/feedback", b.handleFeedback)

		r.Get("/notifications", b.handleNotifications)
		r.Post("/uploads/presign", b.handlePresign)
	})

	r.Put("/uploads/raw/{fileID}", b.handleRawUpload)

	return r
}

func (b *Backend) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}
