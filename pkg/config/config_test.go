package config

import (
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CATALOG_PATH", "assets/fixed_catalog.yaml")
	t.Setenv("PARTNER_CODE", "aff_test")
	t.Setenv("OWNER_ID", "424242")
}

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected IsProd to be true")
	}
	if cfg.Bot.OwnerID != 424242 {
		t.Fatalf("unexpected owner id %d", cfg.Bot.OwnerID)
	}
	if cfg.Catalog.Path != "assets/fixed_catalog.yaml" {
		t.Fatalf("unexpected catalog path %q", cfg.Catalog.Path)
	}
	if cfg.Partner.Code != "aff_test" {
		t.Fatalf("unexpected partner code %q", cfg.Partner.Code)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Sessions.IdleTimeout != 30*time.Minute {
		t.Fatalf("expected 30m idle timeout, got %v", cfg.Sessions.IdleTimeout)
	}
	if cfg.Sessions.AggressiveTimeout != 5*time.Minute {
		t.Fatalf("expected 5m aggressive timeout, got %v", cfg.Sessions.AggressiveTimeout)
	}
	if cfg.Cart.DebounceWindow != 2*time.Second {
		t.Fatalf("expected 2s debounce, got %v", cfg.Cart.DebounceWindow)
	}
	if cfg.Cart.MaxQuantity != 99 {
		t.Fatalf("expected quantity cap 99, got %d", cfg.Cart.MaxQuantity)
	}
	if cfg.Data.CartsDir() != "data/carts" {
		t.Fatalf("unexpected carts dir %q", cfg.Data.CartsDir())
	}
	if cfg.Data.ProfilesDir() != "data/user_profiles" {
		t.Fatalf("unexpected profiles dir %q", cfg.Data.ProfilesDir())
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without endpoint")
	}
}

func TestLoad_SweepIntervalBound(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SESSION_IDLE_TIMEOUT", "10m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "9m")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when sweep interval exceeds half the idle timeout")
	}
}
