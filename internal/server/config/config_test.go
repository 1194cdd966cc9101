package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if cfg.EndpointAddr != ":8080" {
		t.Fatalf("unexpected endpoint: %q", cfg.EndpointAddr)
	}
	if cfg.SessionTokenValidityDuration != 24*time.Hour {
		t.Fatalf("unexpected session validity: %v", cfg.SessionTokenValidityDuration)
	}
	if cfg.ResetTokenValidityDuration != time.Hour {
		t.Fatalf("unexpected reset validity: %v", cfg.ResetTokenValidityDuration)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	if cfg.SecretKey == "" || cfg.DatabaseDSN == "" {
		t.Fatalf("defaults must not be empty: %+v", cfg)
	}
}
