package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, key := range []string{
		"SERVER_PORT", "PORT", "COREBANK_API_BASE_URL",
		"FEED_OVERFETCH_MULTIPLIER", "FEED_OVERFETCH_FLOOR",
		"CORS_ALLOWED_ORIGINS", "SESSION_TTL_MINUTES",
	} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.FeedOverfetchMultiplier != 3 {
		t.Fatalf("expected default over-fetch multiplier 3, got %d", cfg.FeedOverfetchMultiplier)
	}
	if cfg.FeedOverfetchFloor != 50 {
		t.Fatalf("expected default over-fetch floor 50, got %d", cfg.FeedOverfetchFloor)
	}
	if cfg.SessionTTLMinutes != 1440 {
		t.Fatalf("expected default session TTL of 1440 minutes, got %d", cfg.SessionTTLMinutes)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 1 || origins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default allowed origins: %v", origins)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT to win over SERVER_PORT, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_TrimsBaseURLTrailingSlash(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "COREBANK_API_BASE_URL", "https://corebank.example.com/api/")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CoreBankAPIBaseURL != "https://corebank.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.CoreBankAPIBaseURL)
	}
}

func TestLoadConfig_InvalidOverfetchValuesFallBackToDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "FEED_OVERFETCH_MULTIPLIER", "0")
	setEnvWithCleanup(t, "FEED_OVERFETCH_FLOOR", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FeedOverfetchMultiplier != 3 {
		t.Fatalf("expected multiplier reset to 3, got %d", cfg.FeedOverfetchMultiplier)
	}
	if cfg.FeedOverfetchFloor != 50 {
		t.Fatalf("expected floor reset to 50, got %d", cfg.FeedOverfetchFloor)
	}
}

func TestLoadConfig_SplitsAllowedOrigins(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CORS_ALLOWED_ORIGINS", "https://app.lorettabank.co.za, http://localhost:3000 ,")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %v", origins)
	}
	if origins[0] != "https://app.lorettabank.co.za" || origins[1] != "http://localhost:3000" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
