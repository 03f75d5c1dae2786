package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the studio
// management service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	SessionSecret     string
	SessionTTL        time.Duration
	LogFile           string
	CalendarSyncEvery time.Duration
	AdminUsername     string
	AdminPassword     string
}

// Load parses configuration values from the current process environment.
//
// Optional fields receive defaults; required values and malformed entries are
// accumulated and reported together so operators see every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:studio.db?_foreign_keys=on",
		SessionTTL:        24 * time.Hour,
		CalendarSyncEvery: 5 * time.Minute,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("STUDIO_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "STUDIO_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("STUDIO_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("STUDIO_SESSION_SECRET")); secret == "" {
		missing = append(missing, "STUDIO_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("STUDIO_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "STUDIO_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	// Empty means log to stderr without rotation.
	cfg.LogFile = strings.TrimSpace(os.Getenv("STUDIO_LOG_FILE"))

	if syncValue := strings.TrimSpace(os.Getenv("STUDIO_CALENDAR_SYNC_EVERY")); syncValue != "" {
		every, err := time.ParseDuration(syncValue)
		if err != nil || every <= 0 {
			invalid = append(invalid, "STUDIO_CALENDAR_SYNC_EVERY")
		} else {
			cfg.CalendarSyncEvery = every
		}
	}

	cfg.AdminUsername = strings.ToLower(strings.TrimSpace(os.Getenv("STUDIO_ADMIN_USERNAME")))
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	// Empty disables the first-run admin bootstrap.
	cfg.AdminPassword = os.Getenv("STUDIO_ADMIN_PASSWORD")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
