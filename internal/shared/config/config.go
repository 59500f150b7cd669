package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	FHIR   FHIRConfig
	Org    OrgConfig
	Risk   RiskConfig
	Ingest IngestConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// FHIRConfig holds the remote FHIR store connection settings.
type FHIRConfig struct {
	// BaseURL is the root of the FHIR R4 endpoint, without a trailing slash
	BaseURL string
	// Timeout bounds a single bundle submission
	Timeout time.Duration
}

// OrgConfig identifies the issuing care organization. The organization
// resource is upserted with these values on every submission.
type OrgConfig struct {
	ID   string
	Name string
}

// RiskConfig holds the classifier thresholds. Values outside the emergency
// band classify as emergency, outside the preventive band as preventive.
type RiskConfig struct {
	HeartRateEmergencyHigh  float64
	HeartRateEmergencyLow   float64
	HeartRatePreventiveHigh float64
	HeartRatePreventiveLow  float64
	SpO2Emergency           float64
	SpO2Preventive          float64
}

// IngestConfig bounds the vitals ingest route.
type IngestConfig struct {
	RateLimitPerSecond int
	RateLimitBurst     int
}

func Load() (*Config, error) {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvInt("SERVER_PORT", 8080),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		FHIR: FHIRConfig{
			BaseURL: getEnv("FHIR_BASE_URL", "http://localhost:8090/fhir"),
			Timeout: getEnvDuration("FHIR_TIMEOUT", 15*time.Second),
		},
		Org: OrgConfig{
			ID:   getEnv("ORG_ID", "org-h1-hospital"),
			Name: getEnv("ORG_NAME", "H1 Smart Hospital"),
		},
		Risk: RiskConfig{
			HeartRateEmergencyHigh:  getEnvFloat("RISK_HR_EMERGENCY_HIGH", 150),
			HeartRateEmergencyLow:   getEnvFloat("RISK_HR_EMERGENCY_LOW", 40),
			HeartRatePreventiveHigh: getEnvFloat("RISK_HR_PREVENTIVE_HIGH", 120),
			HeartRatePreventiveLow:  getEnvFloat("RISK_HR_PREVENTIVE_LOW", 50),
			SpO2Emergency:           getEnvFloat("RISK_SPO2_EMERGENCY", 88),
			SpO2Preventive:          getEnvFloat("RISK_SPO2_PREVENTIVE", 92),
		},
		Ingest: IngestConfig{
			RateLimitPerSecond: getEnvInt("INGEST_RATE_LIMIT_RPS", 10),
			RateLimitBurst:     getEnvInt("INGEST_RATE_LIMIT_BURST", 20),
		},
	}

	if cfg.FHIR.BaseURL == "" {
		return nil, fmt.Errorf("FHIR_BASE_URL must not be empty")
	}
	if cfg.Org.ID == "" {
		return nil, fmt.Errorf("ORG_ID must not be empty")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
