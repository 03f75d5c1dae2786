package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"STUDIO_HTTP_PORT",
			"STUDIO_SQLITE_DSN",
			"STUDIO_SESSION_TTL",
			"STUDIO_LOG_FILE",
			"STUDIO_CALENDAR_SYNC_EVERY",
			"STUDIO_ADMIN_USERNAME",
			"STUDIO_ADMIN_PASSWORD",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("STUDIO_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:studio.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret to be %q, got %q", secret, cfg.SessionSecret)
		}
		if cfg.CalendarSyncEvery != 5*time.Minute {
			t.Fatalf("expected default sync interval 5m, got %s", cfg.CalendarSyncEvery)
		}
		if cfg.LogFile != "" {
			t.Fatalf("expected empty log file default, got %q", cfg.LogFile)
		}
		if cfg.AdminUsername != "admin" {
			t.Fatalf("expected default admin username, got %q", cfg.AdminUsername)
		}
		if cfg.AdminPassword != "" {
			t.Fatalf("expected bootstrap to be disabled by default, got %q", cfg.AdminPassword)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"STUDIO_SESSION_SECRET",
			"STUDIO_HTTP_PORT",
			"STUDIO_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "missing required environment variables: STUDIO_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("STUDIO_SESSION_SECRET", "secret-value")
		t.Setenv("STUDIO_HTTP_PORT", "9090")
		t.Setenv("STUDIO_SQLITE_DSN", "file:/tmp/studio.db")
		t.Setenv("STUDIO_SESSION_TTL", "12h")
		t.Setenv("STUDIO_LOG_FILE", "/var/log/studio/studio.log")
		t.Setenv("STUDIO_CALENDAR_SYNC_EVERY", "90s")
		t.Setenv("STUDIO_ADMIN_USERNAME", "Owner")
		t.Setenv("STUDIO_ADMIN_PASSWORD", "first-run-password")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/studio.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LogFile != "/var/log/studio/studio.log" {
			t.Fatalf("unexpected log file: %q", cfg.LogFile)
		}
		if cfg.CalendarSyncEvery != 90*time.Second {
			t.Fatalf("expected sync interval 90s, got %s", cfg.CalendarSyncEvery)
		}
		if cfg.AdminUsername != "owner" {
			t.Fatalf("expected lowercased admin username, got %q", cfg.AdminUsername)
		}
		if cfg.AdminPassword != "first-run-password" {
			t.Fatalf("unexpected admin password: %q", cfg.AdminPassword)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("STUDIO_SESSION_SECRET", "secret-value")
		t.Setenv("STUDIO_HTTP_PORT", "not-a-port")
		t.Setenv("STUDIO_CALENDAR_SYNC_EVERY", "-1m")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed values")
		}
		expected := "invalid environment variable values: STUDIO_HTTP_PORT, STUDIO_CALENDAR_SYNC_EVERY"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}
