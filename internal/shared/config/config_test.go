package config

import (
	"testing"
	"time"
)

// TestLoadDefaults tests the development defaults
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Org.ID != "org-h1-hospital" {
		t.Errorf("Expected default org id, got %s", cfg.Org.ID)
	}
	if cfg.FHIR.Timeout != 15*time.Second {
		t.Errorf("Expected default timeout 15s, got %s", cfg.FHIR.Timeout)
	}
	if cfg.Risk.HeartRateEmergencyHigh != 150 {
		t.Errorf("Expected default emergency threshold 150, got %v", cfg.Risk.HeartRateEmergencyHigh)
	}
}

// TestLoadOverrides tests env var overrides
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("FHIR_BASE_URL", "https://fhir.example.org/r4")
	t.Setenv("FHIR_TIMEOUT", "20s")
	t.Setenv("RISK_HR_EMERGENCY_HIGH", "160")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.FHIR.BaseURL != "https://fhir.example.org/r4" {
		t.Errorf("Unexpected base url %s", cfg.FHIR.BaseURL)
	}
	if cfg.FHIR.Timeout != 20*time.Second {
		t.Errorf("Expected timeout 20s, got %s", cfg.FHIR.Timeout)
	}
	if cfg.Risk.HeartRateEmergencyHigh != 160 {
		t.Errorf("Expected threshold 160, got %v", cfg.Risk.HeartRateEmergencyHigh)
	}
}

// TestLoadBadValuesFallBack tests that malformed values keep defaults
func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("FHIR_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected fallback port 8080, got %d", cfg.Server.Port)
	}
	if cfg.FHIR.Timeout != 15*time.Second {
		t.Errorf("Expected fallback timeout, got %s", cfg.FHIR.Timeout)
	}
}
