package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BUSINESS_TIMEZONE", "")
	t.Setenv("DEFAULT_BUFFER_MINUTES", "")
	t.Setenv("RESCHEDULE_FEE_CENTS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BusinessTimezone != "America/Sao_Paulo" {
		t.Fatalf("expected default timezone, got %s", cfg.BusinessTimezone)
	}
	if cfg.DefaultBufferMinutes != 15 {
		t.Fatalf("expected default buffer 15, got %d", cfg.DefaultBufferMinutes)
	}
	if cfg.SlotStrideMinutes != 30 {
		t.Fatalf("expected default stride 30, got %d", cfg.SlotStrideMinutes)
	}
	if cfg.CancellationWindowHours != 24 || cfg.LateCancellationPercent != 50 || cfg.PastCancellationPercent != 100 {
		t.Fatalf("unexpected cancellation defaults: %+v", cfg)
	}
	if cfg.RescheduleWindowHours != 12 || cfg.RescheduleFeeCents != 3000 {
		t.Fatalf("unexpected reschedule defaults: %d %d", cfg.RescheduleWindowHours, cfg.RescheduleFeeCents)
	}
	if cfg.OutboxPollInterval != 2*time.Second {
		t.Fatalf("expected default outbox interval, got %s", cfg.OutboxPollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("DEFAULT_BUFFER_MINUTES", "0")
	t.Setenv("RESCHEDULE_FEE_CENTS", "4500")
	t.Setenv("PUBLIC_RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("OUTBOX_POLL_INTERVAL", "10s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.UseMemoryStore {
		t.Fatal("expected memory store enabled")
	}
	if cfg.DefaultBufferMinutes != 0 {
		t.Fatalf("expected explicit zero buffer, got %d", cfg.DefaultBufferMinutes)
	}
	if cfg.RescheduleFeeCents != 4500 {
		t.Fatalf("expected fee override, got %d", cfg.RescheduleFeeCents)
	}
	if cfg.PublicRateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.PublicRateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.OutboxPollInterval != 10*time.Second {
		t.Fatalf("expected outbox interval override, got %s", cfg.OutboxPollInterval)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{BusinessTimezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
}
