package upload

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/apitest"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/model"
)

func TestPutPresignsAndUploads(t *testing.T) {
	backend := apitest.New()
	server := httptest.NewServer(backend.Router())
	defer server.Close()
	backend.SetBaseURL(server.URL)

	userID := backend.SeedAccount(apitest.Account{Account: "s@seeforme.app", Password: "secret1", Role: model.RoleSeeker})
	store := keystore.NewMemStore()
	if err := store.Set(keystore.KeyAccessToken, backend.Token(userID, model.RoleSeeker, time.Hour)); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	client := api.New(server.URL, 5*time.Second, store)

	content := []byte("fake voice bytes")
	slot, err := New(client).Put(context.Background(), "note.m4a", "audio/mp4", content)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if slot.FileID == "" || slot.Category != "voice" {
		t.Fatalf("unexpected slot %+v", slot)
	}
	if !strings.HasPrefix(slot.UploadURL, server.URL) {
		t.Fatalf("upload URL %q is not absolute against the backend", slot.UploadURL)
	}

	stored, ok := backend.Upload(slot.FileID)
	if !ok {
		t.Fatalf("upload %s never arrived", slot.FileID)
	}
	if string(stored) != string(content) {
		t.Fatalf("stored bytes mismatch: %q", stored)
	}
}

func TestPutSurfacesPresignFailure(t *testing.T) {
	backend := apitest.New()
	server := httptest.NewServer(backend.Router())
	defer server.Close()
	backend.SetBaseURL(server.URL)

	// No token seeded: presign is behind auth.
	client := api.New(server.URL, 5*time.Second, keystore.NewMemStore())
	if _, err := New(client).Put(context.Background(), "note.m4a", "audio/mp4", []byte("x")); !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
