package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.UploadMaxBatch != 10 || cfg.UploadMaxBytes != 5*1024*1024 {
		t.Fatalf("unexpected upload limits %+v", cfg)
	}
	if cfg.Pricing.TaxRate.String() != "0.08" || cfg.Pricing.FlatShippingFee.String() != "9.99" {
		t.Fatalf("unexpected pricing %+v", cfg.Pricing)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := FromEnv()
	if cfg.Pricing.TaxRate.String() != "0.1" {
		t.Fatalf("expected tax override, got %s", cfg.Pricing.TaxRate)
	}
	if cfg.Pricing.FreeShippingThreshold.String() != "75" {
		t.Fatalf("expected default threshold on bad input, got %s", cfg.Pricing.FreeShippingThreshold)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}
