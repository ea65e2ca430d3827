package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SEEFORME_MODE", "prod")
	t.Setenv("SEEFORME_API_URL", "https://staging.seeforme.app/api/v1")
	t.Setenv("SEEFORME_REQUEST_TIMEOUT", "30s")
	t.Setenv("SEEFORME_POLL_INTERVAL", "5s")
	t.Setenv("SEEFORME_PAGE_SIZE", "50")

	cfg := Load()
	if cfg.Mode != "prod" {
		t.Fatalf("expected SEEFORME_MODE override, got %s", cfg.Mode)
	}
	if cfg.APIBaseURL != "https://staging.seeforme.app/api/v1" {
		t.Fatalf("expected SEEFORME_API_URL override, got %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected SEEFORME_REQUEST_TIMEOUT 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected SEEFORME_POLL_INTERVAL 5s, got %s", cfg.PollInterval)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("expected SEEFORME_PAGE_SIZE 50, got %d", cfg.PageSize)
	}
}

func TestDefaultBaseURLByMode(t *testing.T) {
	t.Setenv("SEEFORME_API_URL", "")

	t.Setenv("SEEFORME_MODE", "emulator")
	if cfg := Load(); cfg.APIBaseURL != "http://10.0.2.2:8000/api/v1" {
		t.Fatalf("unexpected emulator base URL %s", cfg.APIBaseURL)
	}

	t.Setenv("SEEFORME_MODE", "prod")
	if cfg := Load(); cfg.APIBaseURL != "https://api.seeforme.app/api/v1" {
		t.Fatalf("unexpected prod base URL %s", cfg.APIBaseURL)
	}

	t.Setenv("SEEFORME_MODE", "")
	if cfg := Load(); cfg.APIBaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("unexpected dev base URL %s", cfg.APIBaseURL)
	}
}
