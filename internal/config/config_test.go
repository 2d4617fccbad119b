package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
}

func TestLoadClampsTaxRate(t *testing.T) {
	t.Setenv("TAX_RATE_PERCENT", "250")
	cfg := Load()
	if cfg.TaxRatePercent != 0 {
		t.Fatalf("expected out-of-range tax rate to fall back to 0, got %v", cfg.TaxRatePercent)
	}

	t.Setenv("TAX_RATE_PERCENT", "11")
	cfg = Load()
	if cfg.TaxRatePercent != 11 {
		t.Fatalf("expected tax rate 11, got %v", cfg.TaxRatePercent)
	}
}
