package config

import (
	"os"
	"strconv"
	"time"
)

// Mode selects the default API base URL, mirroring how the app picks
// different hosts for emulator, local development and production builds.
const (
	ModeDev      = "dev"
	ModeEmulator = "emulator"
	ModeProd     = "prod"
)

type Config struct {
	Mode           string
	APIBaseURL     string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	PageSize       int
	CredentialDir  string
}

func Load() Config {
	mode := getenv("SEEFORME_MODE", ModeDev)
	return Config{
		Mode:           mode,
		APIBaseURL:     getenv("SEEFORME_API_URL", defaultBaseURL(mode)),
		RequestTimeout: getenvDuration("SEEFORME_REQUEST_TIMEOUT", 15*time.Second),
		PollInterval:   getenvDuration("SEEFORME_POLL_INTERVAL", 8*time.Second),
		PageSize:       getenvInt("SEEFORME_PAGE_SIZE", 20),
		CredentialDir:  getenv("SEEFORME_CREDENTIAL_DIR", ""),
	}
}

func defaultBaseURL(mode string) string {
	switch mode {
	case ModeProd:
		return "https://api.seeforme.app/api/v1"
	case ModeEmulator:
		// Android emulator reaches the host machine via 10.0.2.2.
		return "http://10.0.2.2:8000/api/v1"
	default:
		return "http://localhost:8000/api/v1"
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
