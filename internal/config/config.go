// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

const (
	defaultTimezone   = "UTC"
	defaultDigestHour = 20
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DataBackend          string
	DatabaseURL          string
	LogLevel             string
	LogFormat            string
	LogHashSalt          string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	DisplayTimezone      string
	ExtremaMode          ledger.ExtremaMode
	UndatedPolicy        ledger.UndatedPolicy
	OTelExporter         string
	DailyDigestEnabled   bool
	DigestHour           int

	parseErrs []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DataBackend:      strings.ToLower(envOr("DATA_BACKEND", BackendPostgres)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        strings.ToLower(envOr("LOG_FORMAT", "console")),
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		OTelExporter:     strings.ToLower(envOr("OTEL_EXPORTER", "none")),
	}

	cfg.DisplayTimezone = defaultTimezone
	if tz := os.Getenv("DISPLAY_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.DisplayTimezone = tz
		}
	}

	if mode, err := ledger.ParseExtremaMode(os.Getenv("EXTREMA_MODE")); err != nil {
		cfg.parseErrs = append(cfg.parseErrs, err.Error())
	} else {
		cfg.ExtremaMode = mode
	}

	if policy, err := ledger.ParseUndatedPolicy(os.Getenv("UNDATED_POLICY")); err != nil {
		cfg.parseErrs = append(cfg.parseErrs, err.Error())
	} else {
		cfg.UndatedPolicy = policy
	}

	cfg.DailyDigestEnabled = os.Getenv("DAILY_DIGEST_ENABLED") == "true"
	cfg.DigestHour = defaultDigestHour
	if hourStr := os.Getenv("DIGEST_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.DigestHour = h
		}
	}

	if whitelistStr := os.Getenv("WHITELISTED_USER_IDS"); whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	if whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES"); whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimPrefix(strings.TrimSpace(username), "@")
			if username == "" {
				continue
			}
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	errs := slices.Clone(c.parseErrs)

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("DATA_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.DataBackend))
	}

	switch c.OTelExporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be none, stdout or otlp, got %q", c.OTelExporter))
	}

	if c.LogHashSalt != "" && len(c.LogHashSalt) < 32 {
		errs = append(errs, "LOG_HASH_SALT must be at least 32 characters")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Location returns the display timezone. It never fails because Load only
// keeps zones that resolve.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
