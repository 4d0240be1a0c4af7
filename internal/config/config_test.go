package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("UNPAUSE_TOKEN", "")
	t.Setenv("CONTEXT_WINDOW_SIZE", "")
	t.Setenv("GENERATOR_TIMEOUT", "")
	t.Setenv("OPERATOR_NUMBERS", "")
	t.Setenv("SESSION_CACHE_ENABLED", "")
	t.Setenv("SESSION_CACHE_TTL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.UnpauseToken != "**" {
		t.Fatalf("expected default unpause token, got %q", cfg.UnpauseToken)
	}
	if cfg.ContextWindowSize != 10 {
		t.Fatalf("expected window of 10, got %d", cfg.ContextWindowSize)
	}
	if cfg.GeneratorTimeout != 30*time.Second {
		t.Fatalf("expected 30s generator timeout, got %s", cfg.GeneratorTimeout)
	}
	if cfg.ContactPhoneFallback != "809-244-0055" {
		t.Fatalf("expected default contact phone, got %s", cfg.ContactPhoneFallback)
	}
	if len(cfg.OperatorNumbers) != 0 {
		t.Fatalf("expected no operators, got %v", cfg.OperatorNumbers)
	}
	if cfg.SessionCacheEnabled {
		t.Fatalf("expected session cache off by default")
	}
	if cfg.SessionCacheTTL != 2*time.Second {
		t.Fatalf("expected 2s session cache ttl, got %s", cfg.SessionCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_BACKEND", "DynamoDB")
	t.Setenv("BOOKINGS_BACKEND", "firestore")
	t.Setenv("CONTEXT_WINDOW_SIZE", "4")
	t.Setenv("GENERATOR_TIMEOUT", "5s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("OPERATOR_NUMBERS", " 8095551234, ,8295550000 ")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SessionBackend != "dynamodb" {
		t.Fatalf("expected lower-cased backend, got %s", cfg.SessionBackend)
	}
	if cfg.BookingsBackend != "firestore" {
		t.Fatalf("expected firestore bookings, got %s", cfg.BookingsBackend)
	}
	if cfg.ContextWindowSize != 4 {
		t.Fatalf("expected window override, got %d", cfg.ContextWindowSize)
	}
	if cfg.GeneratorTimeout != 5*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.GeneratorTimeout)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if len(cfg.OperatorNumbers) != 2 || cfg.OperatorNumbers[1] != "8295550000" {
		t.Fatalf("unexpected operator list %v", cfg.OperatorNumbers)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CONTEXT_WINDOW_SIZE", "ten")
	t.Setenv("GENERATOR_TIMEOUT", "soon")
	cfg := Load()
	if cfg.ContextWindowSize != 10 {
		t.Fatalf("expected fallback window, got %d", cfg.ContextWindowSize)
	}
	if cfg.GeneratorTimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.GeneratorTimeout)
	}
}

func TestLoadHTTPLimits(t *testing.T) {
	t.Setenv("API_RATE_LIMIT", "0.5")
	t.Setenv("API_RATE_BURST", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://autoclinicrd.com")
	cfg := Load()
	if cfg.APIRateLimit != 0.5 {
		t.Fatalf("expected rate override, got %v", cfg.APIRateLimit)
	}
	if cfg.APIRateBurst != 10 {
		t.Fatalf("expected default burst, got %d", cfg.APIRateBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Fatalf("expected one origin, got %v", cfg.CORSAllowedOrigins)
	}
}
