// Package config holds the explicit runtime configuration of the scoring
// service. The configuration is loaded once from the environment at
// startup, validated, and then passed by reference into the components.
// There are no package-level singletons.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// BonusMode selects how the first-solver bonus is computed.
type BonusMode string

const (
	// BonusModeFixed awards the configured value as-is.
	BonusModeFixed BonusMode = "fixed"
	// BonusModePercent awards floor(points * value / 100).
	BonusModePercent BonusMode = "percent"
)

// maxBackoffSeconds is the fixed upper bound of a single rate limit
// lockout.
const maxBackoffSeconds = 3600

var placeholderSecrets = map[string]bool{
	"super-long-random-secret": true,
	"change-me":                true,
	"changeme":                 true,
	"replace-me":               true,
	"your-secret-key":          true,
}

// Config is the full configuration surface of the scoring service.
type Config struct {
	// SessionSecret signs participant session tokens.
	SessionSecret string
	// TokenTTLMinutes is the lifetime of issued session tokens.
	TokenTTLMinutes int

	// RateLimitEnabled toggles the submission rate limiter globally.
	RateLimitEnabled bool
	// RateLimitMaxAttempts is the number of attempts admitted per
	// window. The attempt exceeding this maximum is denied.
	RateLimitMaxAttempts int
	// RateLimitWindowSeconds is the length of the counting window.
	RateLimitWindowSeconds int
	// RateLimitLockSeconds is the base lockout length. The effective
	// lockout is the base multiplied by 2 raised to the violation count,
	// capped at one hour.
	RateLimitLockSeconds int

	// FirstSolverBonusEnabled toggles the first-solver bonus.
	FirstSolverBonusEnabled bool
	// FirstSolverBonusMode selects fixed or percent bonus computation.
	FirstSolverBonusMode BonusMode
	// FirstSolverBonusValue is the bonus amount or percentage.
	FirstSolverBonusValue int
}

// LoadFromEnv reads the configuration from CTF_* environment variables,
// applying defaults for everything but the session secret.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SessionSecret: strings.TrimSpace(os.Getenv("CTF_JWT_SECRET")),
	}
	var err error
	cfg.TokenTTLMinutes, err = intFromEnv("CTF_TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitEnabled, err = boolFromEnv("CTF_RATE_LIMIT_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitMaxAttempts, err = intFromEnv("CTF_RATE_LIMIT_MAX_ATTEMPTS", 15)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindowSeconds, err = intFromEnv("CTF_RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitLockSeconds, err = intFromEnv("CTF_RATE_LIMIT_LOCK_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.FirstSolverBonusEnabled, err = boolFromEnv("CTF_FIRST_SOLVER_BONUS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	mode, err := stringFromEnv("CTF_FIRST_SOLVER_BONUS_MODE", string(BonusModePercent))
	if err != nil {
		return nil, err
	}
	cfg.FirstSolverBonusMode = BonusMode(mode)
	cfg.FirstSolverBonusValue, err = intFromEnv("CTF_FIRST_SOLVER_BONUS_VALUE", 20)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all configured values against their allowed bounds.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("no session secret specified in the environment (CTF_JWT_SECRET)")
	}
	if placeholderSecrets[c.SessionSecret] {
		return fmt.Errorf("the session secret must not use a placeholder value")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("the session secret must be at least 32 characters, but was %d",
			len(c.SessionSecret))
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("the token TTL must be positive, but was %d", c.TokenTTLMinutes)
	}
	if c.RateLimitMaxAttempts < 1 || c.RateLimitMaxAttempts > 100000 {
		return fmt.Errorf("the maximum attempts per window must be between 1 and 100000, but was %d",
			c.RateLimitMaxAttempts)
	}
	if c.RateLimitWindowSeconds < 1 || c.RateLimitWindowSeconds > 86400 {
		return fmt.Errorf("the rate limit window must be between 1 and 86400 seconds, but was %d",
			c.RateLimitWindowSeconds)
	}
	if c.RateLimitLockSeconds < 1 || c.RateLimitLockSeconds > 86400 {
		return fmt.Errorf("the base lockout must be between 1 and 86400 seconds, but was %d",
			c.RateLimitLockSeconds)
	}
	if c.FirstSolverBonusValue < 0 {
		return fmt.Errorf("the first-solver bonus value must not be negative, but was %d",
			c.FirstSolverBonusValue)
	}
	switch c.FirstSolverBonusMode {
	case BonusModeFixed:
		if c.FirstSolverBonusValue > 100000 {
			return fmt.Errorf("the fixed first-solver bonus must not exceed 100000, but was %d",
				c.FirstSolverBonusValue)
		}
	case BonusModePercent:
		if c.FirstSolverBonusValue > 1000 {
			return fmt.Errorf("the percent first-solver bonus must not exceed 1000, but was %d",
				c.FirstSolverBonusValue)
		}
	default:
		return fmt.Errorf("unknown first-solver bonus mode '%s'", c.FirstSolverBonusMode)
	}
	return nil
}

// MaxBackoffSeconds returns the fixed lockout cap.
func (c *Config) MaxBackoffSeconds() int {
	return maxBackoffSeconds
}

func stringFromEnv(key, fallback string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("the value of %s couldn't be parsed as a number: %s", key, value)
	}
	return parsed, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("the value of %s couldn't be parsed as a boolean: %s", key, value)
	}
	return parsed, nil
}
