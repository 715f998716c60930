package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "development")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m access TTL, got %s", cfg.JWT.AccessTokenTTL)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("expected 15s request timeout, got %s", cfg.Server.RequestTimeout)
	}
	if cfg.Clinic.IOPMax != 80 {
		t.Errorf("expected IOP max 80, got %v", cfg.Clinic.IOPMax)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLINIC_IOP_MAX", "60")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Clinic.IOPMax != 60 {
		t.Errorf("expected IOP max 60, got %v", cfg.Clinic.IOPMax)
	}
	if got := cfg.CORS.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", got)
	}
	if cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m access TTL, got %s", cfg.JWT.AccessTokenTTL)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing to be enabled")
	}
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("SERVER_PORT", "abc")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("TRACING_ENABLED", "maybe")
	t.Setenv("CLINIC_IOP_MAX", "high")

	_, err := Load()
	if err == nil {
		t.Fatal("expected malformed values to be rejected")
	}
	for _, want := range []string{
		`SERVER_PORT="abc" is not an integer`,
		"JWT_ACCESS_TTL",
		"TRACING_ENABLED",
		"CLINIC_IOP_MAX",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestLoad_ProductionRules(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_SSLMODE", "disable")

	_, err := Load()
	if err == nil {
		t.Fatal("expected production validation errors")
	}
	for _, want := range []string{"at least 32 characters", "DB_PASSWORD is required", "DB_SSLMODE=disable"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestLoad_RateLimitsMustBePositive(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_AUTH_RPM", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected rate limit validation errors")
	}
	for _, want := range []string{"RATE_LIMIT_BURST", "RATE_LIMIT_AUTH_RPM"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "clinic", User: "u", Password: "p", SSLMode: "disable"}
	if !strings.Contains(d.DSN(), "host=db") || !strings.Contains(d.DSN(), "dbname=clinic") {
		t.Errorf("unexpected DSN: %s", d.DSN())
	}

	d.URL = "postgres://u:p@db:5432/clinic"
	if d.DSN() != d.URL {
		t.Errorf("expected URL to take precedence, got %s", d.DSN())
	}
}
