package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, typ string, ttl time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInspectReadsClaims(t *testing.T) {
	token := mintToken(t, "access", time.Hour)
	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "u1" || claims.Type != "access" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestStale(t *testing.T) {
	if Stale(mintToken(t, "access", time.Hour), time.Minute) {
		t.Fatal("fresh token reported stale")
	}
	if !Stale(mintToken(t, "access", -time.Minute), 0) {
		t.Fatal("expired token reported fresh")
	}
	if !Stale(mintToken(t, "access", 10*time.Second), time.Minute) {
		t.Fatal("token inside leeway reported fresh")
	}
}

func TestStaleOnOpaqueToken(t *testing.T) {
	// Non-JWT tokens cannot be inspected; callers treat them as stale
	// and fall through to the server for the real answer.
	if !Stale("tok123", 0) {
		t.Fatal("opaque token reported fresh")
	}
}

func TestExpiresAtMissing(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ExpiresAt(signed); err != ErrNoExpiry {
		t.Fatalf("expected ErrNoExpiry, got %v", err)
	}
}
