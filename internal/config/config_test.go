package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("CASHIER_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.AdminPassword != "" || cfg.CashierPassword != "" {
		t.Fatalf("expected no default bootstrap passwords, got %q / %q", cfg.AdminPassword, cfg.CashierPassword)
	}
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("SUMMARY_CACHE_TTL_SECONDS", "-5")

	cfg := Load()
	if cfg.TokenTTLMinutes != 480 {
		t.Fatalf("expected token TTL fallback 480, got %d", cfg.TokenTTLMinutes)
	}
	if cfg.SummaryCacheTTLSeconds != 60 {
		t.Fatalf("expected summary TTL fallback 60, got %d", cfg.SummaryCacheTTLSeconds)
	}
}

func TestAddressUsesPort(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Address())
	}
}
