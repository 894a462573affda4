package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	cleanupEnv(t)
	t.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Equal(t, "TEST_SENDER_KEYPAIR", cfg.SenderKeyVar)
	assert.Equal(t, "DESTINATION_KEYPAIR", cfg.DestinationKeyVar)
	assert.Equal(t, "error", cfg.LogLevel) // Default
	assert.Equal(t, "json", cfg.LogFormat) // Default
	assert.Empty(t, cfg.ProfilePath)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoad_CustomValues(t *testing.T) {
	cleanupEnv(t)
	t.Setenv("RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("PREFLIGHT_PROFILE", "/etc/preflight/devnet.yaml")
	t.Setenv("NATS_URL", "nats://nats.example.com:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.devnet.solana.com", cfg.RPCURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/etc/preflight/devnet.yaml", cfg.ProfilePath)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
}

func TestLoad_MissingRPCURL(t *testing.T) {
	cleanupEnv(t)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL or RPC_URL environment variable must be set")

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"SOLANA_RPC_URL", "RPC_URL"}, cfgErr.Vars)
}

func TestLoad_DefersLoggingValidation(t *testing.T) {
	cleanupEnv(t)
	t.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	t.Setenv("LOG_LEVEL", "verbose")

	// The CLI may still override the level with a flag.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "verbose", cfg.LogLevel)

	_, _, err = LoadLogging()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr string
	}{
		{level: "debug", format: "json"},
		{level: "error", format: "text"},
		{level: "trace", format: "json", wantErr: "invalid level"},
		{level: "info", format: "logfmt", wantErr: "invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			err := ValidateLogging(tt.level, tt.format)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadLogging_Defaults(t *testing.T) {
	cleanupEnv(t)

	level, format, err := LoadLogging()
	require.NoError(t, err)
	assert.Equal(t, "error", level)
	assert.Equal(t, "json", format)
}

func TestResolveRPCURL(t *testing.T) {
	t.Run("primary wins over fallback", func(t *testing.T) {
		cleanupEnv(t)
		t.Setenv("SOLANA_RPC_URL", "https://primary.example.com")
		t.Setenv("RPC_URL", "https://fallback.example.com")

		url, err := ResolveRPCURL()
		require.NoError(t, err)
		assert.Equal(t, "https://primary.example.com", url)
	})

	t.Run("fallback used when primary empty", func(t *testing.T) {
		cleanupEnv(t)
		t.Setenv("SOLANA_RPC_URL", "")
		t.Setenv("RPC_URL", "https://fallback.example.com")

		url, err := ResolveRPCURL()
		require.NoError(t, err)
		assert.Equal(t, "https://fallback.example.com", url)
	})

	t.Run("malformed url is not validated", func(t *testing.T) {
		cleanupEnv(t)
		t.Setenv("SOLANA_RPC_URL", "not a url")

		url, err := ResolveRPCURL()
		require.NoError(t, err)
		assert.Equal(t, "not a url", url)
	})
}

func TestRequireEnv(t *testing.T) {
	cleanupEnv(t)

	_, err := RequireEnv("TEST_SENDER_KEYPAIR")
	require.Error(t, err)
	assert.Equal(t, "environment variable TEST_SENDER_KEYPAIR is not set", err.Error())

	t.Setenv("TEST_SENDER_KEYPAIR", "abc")
	value, err := RequireEnv("TEST_SENDER_KEYPAIR")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestLoadDotEnv(t *testing.T) {
	cleanupEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RPC_URL=https://from-dotenv.example.com\nLOG_LEVEL=warn\n"), 0o600))

	// Pre-set variables are never overridden.
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("RPC_URL", "")
	os.Unsetenv("RPC_URL")

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "https://from-dotenv.example.com", os.Getenv("RPC_URL"))
	assert.Equal(t, "info", os.Getenv("LOG_LEVEL"))
}

func TestDefaultRequirements(t *testing.T) {
	req := DefaultRequirements()

	assert.Equal(t, "USDC", req.TokenSymbol)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", req.TokenMint)
	assert.Equal(t, int32(6), req.TokenDecimals)
	assert.Equal(t, int32(9), req.NativeDecimals)
	assert.True(t, req.RequiredToken.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, req.RequiredNative.Equal(decimal.RequireFromString("0.01")))
	assert.NoError(t, req.Validate())
}

func TestParseRequirements_Overrides(t *testing.T) {
	profile := []byte(`
token:
  symbol: USDT
  mint: Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB
  decimals: 6
native:
  decimals: 9
required:
  token: "1.5"
  native: "0.002"
`)

	req, err := ParseRequirements(profile)
	require.NoError(t, err)

	assert.Equal(t, "USDT", req.TokenSymbol)
	assert.Equal(t, "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", req.TokenMint)
	assert.Equal(t, SPLTokenProgram, req.TokenProgram) // untouched default
	assert.Equal(t, "SOL", req.NativeSymbol)           // untouched default
	assert.True(t, req.RequiredToken.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, req.RequiredNative.Equal(decimal.RequireFromString("0.002")))
}

func TestParseRequirements_InvalidAmount(t *testing.T) {
	_, err := ParseRequirements([]byte("required:\n  token: lots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required.token")
}

func TestParseRequirements_NegativeThreshold(t *testing.T) {
	_, err := ParseRequirements([]byte("required:\n  native: \"-1\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RequiredNative cannot be negative")
}

func TestLoadRequirements_EmptyPathUsesDefaults(t *testing.T) {
	req, err := LoadRequirements("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRequirements().TokenMint, req.TokenMint)
}

func TestLoadRequirements_MissingFile(t *testing.T) {
	_, err := LoadRequirements(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read profile")
}

// cleanupEnv clears all environment variables read by Load for the
// duration of the test.
func cleanupEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvSolanaRPCURL,
		EnvRPCURL,
		EnvSenderKeypair,
		EnvDestinationKeypair,
		EnvLogLevel,
		EnvLogFormat,
		EnvProfile,
		EnvNATSURL,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadRequirements_DevnetProfile(t *testing.T) {
	req, err := LoadRequirements(filepath.Join("..", "..", "profiles", "devnet.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", req.TokenMint)
	assert.Equal(t, SPLTokenProgram, req.TokenProgram)
	assert.Equal(t, USDCDecimals, req.TokenDecimals)
	assert.True(t, req.RequiredToken.Equal(DefaultRequirements().RequiredToken))
}
