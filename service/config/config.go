package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names read by Load.
const (
	EnvSolanaRPCURL       = "SOLANA_RPC_URL"
	EnvRPCURL             = "RPC_URL"
	EnvSenderKeypair      = "TEST_SENDER_KEYPAIR"
	EnvDestinationKeypair = "DESTINATION_KEYPAIR"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvProfile            = "PREFLIGHT_PROFILE"
	EnvNATSURL            = "NATS_URL"
)

// ConfigurationError reports a required environment variable that is unset
// or empty. Vars holds every accepted name when alternatives exist.
type ConfigurationError struct {
	Vars []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Vars) == 1 {
		return fmt.Sprintf("environment variable %s is not set", e.Vars[0])
	}
	return fmt.Sprintf("%s environment variable must be set", strings.Join(e.Vars, " or "))
}

// Config holds the settings for one preflight run, loaded from environment
// variables. Flags in cmd/preflight override individual fields.
type Config struct {
	// Solana configuration
	RPCURL string

	// Signer identities are read from these variables
	SenderKeyVar      string
	DestinationKeyVar string

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Optional requirements profile (YAML); defaults apply when empty
	ProfilePath string

	// Optional NATS server for publishing reports
	NATSURL string
}

// Load reads configuration from environment variables and validates it.
// All problems are reported together.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	rpcURL, err := ResolveRPCURL()
	if err != nil {
		errs = append(errs, err)
	}
	cfg.RPCURL = rpcURL

	cfg.SenderKeyVar = EnvSenderKeypair
	cfg.DestinationKeyVar = EnvDestinationKeypair

	// Logging is validated when the logger is built, after flag overrides.
	cfg.LogLevel = getEnvOrDefault(EnvLogLevel, "error")
	cfg.LogFormat = getEnvOrDefault(EnvLogFormat, "json")
	cfg.ProfilePath = os.Getenv(EnvProfile)
	cfg.NATSURL = os.Getenv(EnvNATSURL)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return cfg, nil
}

// ResolveRPCURL returns SOLANA_RPC_URL, falling back to RPC_URL.
// The URL is not validated; a malformed URL surfaces as a transport error.
func ResolveRPCURL() (string, error) {
	for _, key := range []string{EnvSolanaRPCURL, EnvRPCURL} {
		if value := os.Getenv(key); value != "" {
			return value, nil
		}
	}
	return "", &ConfigurationError{Vars: []string{EnvSolanaRPCURL, EnvRPCURL}}
}

// RequireEnv returns the value of key or a ConfigurationError when it is
// unset or empty.
func RequireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", &ConfigurationError{Vars: []string{key}}
	}
	return value, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are skipped and variables already set are never overridden.
// It returns the files that were actually loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// LoadLogging reads LOG_LEVEL (default "error") and LOG_FORMAT (default
// "json") and validates them.
func LoadLogging() (level, format string, err error) {
	level = getEnvOrDefault(EnvLogLevel, "error")
	format = getEnvOrDefault(EnvLogFormat, "json")
	if err := ValidateLogging(level, format); err != nil {
		return level, format, err
	}
	return level, format, nil
}

// ValidateLogging checks a log level and format pair.
func ValidateLogging(level, format string) error {
	var errs []error
	switch level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%s: invalid level %q", EnvLogLevel, level))
	}
	switch format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%s: invalid format %q (want json or text)", EnvLogFormat, format))
	}
	return errors.Join(errs...)
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
