package keystore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := store.Set(KeyAccessToken, "tok123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(KeyRole, "seeker"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(KeyAccessToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "tok123" {
		t.Fatalf("expected tok123, got %q", got)
	}
}

func TestFileStoreMissingKeyIsEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	got, err := store.Get("never-set")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(KeyRefreshToken, "ref456"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(KeyRefreshToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := store.Get(KeyRefreshToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Fatalf("expected deleted key to read empty, got %q", got)
	}
	// Deleting again is a no-op, not an error.
	if err := store.Delete(KeyRefreshToken); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestFileStoreEncryptsAtRest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(KeyAccessToken, "plainly-visible-token"); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, dataFileName))
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	if bytes.Contains(raw, []byte("plainly-visible-token")) {
		t.Fatal("credential file contains plaintext token")
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(KeyRole, "volunteer"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	got, err := reopened.Get(KeyRole)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "volunteer" {
		t.Fatalf("expected volunteer after reopen, got %q", got)
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := store.Get("k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Get("k"); got != "" {
		t.Fatalf("expected empty after delete, got %q", got)
	}
}
