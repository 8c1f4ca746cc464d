package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	maxExpiryWindowDays = 3650
)

// Config holds application configuration values.
type Config struct {
	Secret            string
	HTTPPort          string
	Store             string
	DatabaseDSN       string
	CatalogCSV        string
	SeedDemo          bool
	OTPCode           string
	OTPResendCooldown time.Duration
	ExpiryWindow      time.Duration
	Location          *time.Location
	CORSOrigins       []string
	LogLevel          string
}

// Load reads configuration from environment variables with reasonable
// defaults. Values that are set but malformed are errors.
func Load() (Config, error) {
	cfg := Config{
		Secret:      env("SECRET", "dev_secret"),
		HTTPPort:    env("HTTP_PORT", "8080"),
		Store:       strings.ToLower(env("STORE", StoreMemory)),
		DatabaseDSN: env("DATABASE_DSN", "pharmadesk.db"),
		CatalogCSV:  env("CATALOG_CSV", "assets/medicines.csv"),
		LogLevel:    strings.ToLower(os.Getenv("LOG_LEVEL")),
	}

	var errs []error

	// Validate that port is numeric.
	if port, err := strconv.Atoi(cfg.HTTPPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT value %q", cfg.HTTPPort))
	}

	if cfg.Store != StoreMemory && cfg.Store != StoreSQLite {
		errs = append(errs, fmt.Errorf("invalid STORE value %q: want %s or %s", cfg.Store, StoreMemory, StoreSQLite))
	}

	seed, err := strconv.ParseBool(env("SEED_DEMO", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid SEED_DEMO value: %w", err))
	}
	cfg.SeedDemo = seed

	// An explicitly empty OTP_CODE switches to random codes.
	if code, ok := os.LookupEnv("OTP_CODE"); ok {
		cfg.OTPCode = strings.TrimSpace(code)
	} else {
		cfg.OTPCode = "123456"
	}
	if cfg.OTPCode != "" && !isOTP(cfg.OTPCode) {
		errs = append(errs, fmt.Errorf("invalid OTP_CODE value %q: want 6 digits", cfg.OTPCode))
	}

	cooldown, err := time.ParseDuration(env("OTP_RESEND_COOLDOWN", "30s"))
	if err != nil || cooldown < 0 {
		errs = append(errs, fmt.Errorf("invalid OTP_RESEND_COOLDOWN value %q", os.Getenv("OTP_RESEND_COOLDOWN")))
	}
	cfg.OTPResendCooldown = cooldown

	days, err := strconv.Atoi(env("EXPIRY_WINDOW_DAYS", "30"))
	if err != nil || days <= 0 || days > maxExpiryWindowDays {
		errs = append(errs, fmt.Errorf("invalid EXPIRY_WINDOW_DAYS value %q: want 1 to %d", os.Getenv("EXPIRY_WINDOW_DAYS"), maxExpiryWindowDays))
		days = 0
	}
	cfg.ExpiryWindow = time.Duration(days) * 24 * time.Hour

	loc, err := time.LoadLocation(env("TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE value: %w", err))
	}
	cfg.Location = loc

	for _, origin := range strings.Split(env("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func isOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
