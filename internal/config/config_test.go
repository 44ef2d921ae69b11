package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("AGENDA_API_BASE_URL", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("REALTIME_TRANSPORT", "")
	t.Setenv("OPEN_DAYS_COUNT", "")
	t.Setenv("OPEN_DAYS_WINDOW", "")
	t.Setenv("HTTP_TIMEOUT", "")
	cfg := Load()
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("expected default api base url, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionStore != "file" {
		t.Fatalf("expected file session store, got %s", cfg.SessionStore)
	}
	if cfg.RealtimeTransport != "supabase" {
		t.Fatalf("expected supabase realtime transport, got %s", cfg.RealtimeTransport)
	}
	if cfg.RealtimeTable != "agendamentos" {
		t.Fatalf("expected agendamentos table, got %s", cfg.RealtimeTable)
	}
	if cfg.OpenDaysCount != 5 || cfg.OpenDaysWindow != 30 {
		t.Fatalf("expected 5 open days in 30, got %d in %d", cfg.OpenDaysCount, cfg.OpenDaysWindow)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected default http timeout, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AGENDA_API_BASE_URL", "http://localhost:3000/")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SESSION_STORE", " Redis ")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("OPEN_DAYS_COUNT", "7")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("OPEN_DAYS_WINDOW", "not-a-number")
	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "http://localhost:3000" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected normalized session store, got %q", cfg.SessionStore)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.OpenDaysCount != 7 {
		t.Fatalf("expected open days override, got %d", cfg.OpenDaysCount)
	}
	if cfg.OpenDaysWindow != 30 {
		t.Fatalf("expected invalid int to fall back to default, got %d", cfg.OpenDaysWindow)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("expected http timeout override, got %s", cfg.HTTPTimeout)
	}
	if got := cfg.RealtimeURL(); got != "wss://abc.supabase.co/realtime/v1/websocket" {
		t.Fatalf("unexpected realtime url %s", got)
	}
}

func TestRealtimeURLEmptyWithoutSupabase(t *testing.T) {
	cfg := &Config{}
	if cfg.RealtimeURL() != "" {
		t.Fatalf("expected empty realtime url")
	}
	cfg.SupabaseURL = "http://127.0.0.1:54321"
	if got := cfg.RealtimeURL(); got != "ws://127.0.0.1:54321/realtime/v1/websocket" {
		t.Fatalf("unexpected realtime url %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("AGENDA_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENDA_DOTENV_PROBE", "")
	os.Unsetenv("AGENDA_DOTENV_PROBE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("AGENDA_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}
