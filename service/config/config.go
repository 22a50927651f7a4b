package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Public cluster endpoints used when SOLANA_RPC_URLS is not set.
var defaultRPCURLs = map[string]string{
	"devnet":       "https://api.devnet.solana.com",
	"testnet":      "https://api.testnet.solana.com",
	"mainnet":      "https://api.mainnet-beta.solana.com",
	"mainnet-beta": "https://api.mainnet-beta.solana.com",
}

// DefaultRPCURL returns the public RPC endpoint for a cluster name.
func DefaultRPCURL(cluster string) (string, bool) {
	url, ok := defaultRPCURLs[cluster]
	return url, ok
}

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Bearer token for the transfer and airdrop endpoints. Required with a hot wallet.
	APIToken string

	// Browser origins allowed to call the API. Empty allows none.
	CORSAllowedOrigins []string

	// NATS configuration. Empty disables result notifications.
	NATSURL string

	// Solana configuration
	SolanaCluster   string
	SolanaRPCURLs   []string
	ExplorerBaseURL string

	// Token configuration
	DefaultTokenMint string
	TokenSymbol      string

	// Faucet configuration
	AirdropLamports uint64

	// Confirmation configuration
	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration

	// Hot wallet used by the HTTP server
	WalletKeypairPath string
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.APIToken = os.Getenv("API_TOKEN")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// NATS configuration
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Solana configuration
	cfg.SolanaCluster = getEnvOrDefault("SOLANA_CLUSTER", "devnet")
	if _, ok := defaultRPCURLs[cfg.SolanaCluster]; !ok {
		errs = append(errs, fmt.Errorf("SOLANA_CLUSTER must be one of devnet, testnet, mainnet; got %q", cfg.SolanaCluster))
	}

	cfg.SolanaRPCURLs = splitList(os.Getenv("SOLANA_RPC_URLS"))
	if len(cfg.SolanaRPCURLs) == 0 {
		if url, ok := defaultRPCURLs[cfg.SolanaCluster]; ok {
			cfg.SolanaRPCURLs = []string{url}
		}
	}

	cfg.ExplorerBaseURL = getEnvOrDefault("EXPLORER_BASE_URL", "https://solscan.io")

	// Token configuration
	cfg.DefaultTokenMint = getEnvOrDefault("DEFAULT_TOKEN_MINT", "Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr")
	cfg.TokenSymbol = getEnvOrDefault("TOKEN_SYMBOL", "USDC")

	// Faucet configuration
	lamports, err := parseUint("AIRDROP_LAMPORTS", 2_000_000_000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.AirdropLamports = lamports
	}

	// Confirmation configuration
	timeout, err := parseDuration("CONFIRM_TIMEOUT", "90s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmTimeout = timeout
	}

	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "500ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	cfg.WalletKeypairPath = os.Getenv("WALLET_KEYPAIR_PATH")

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SolanaRPCURLs) == 0 {
		errs = append(errs, fmt.Errorf("SolanaRPCURLs is required"))
	}

	for _, u := range c.SolanaRPCURLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			errs = append(errs, fmt.Errorf("RPC URL %q must be http or https", u))
		}
	}

	if c.DefaultTokenMint == "" {
		errs = append(errs, fmt.Errorf("DefaultTokenMint is required"))
	}

	if c.AirdropLamports == 0 {
		errs = append(errs, fmt.Errorf("AirdropLamports must be positive"))
	}

	if c.ConfirmTimeout < 0 {
		errs = append(errs, fmt.Errorf("ConfirmTimeout cannot be negative"))
	}

	if c.ConfirmPollInterval < 50*time.Millisecond {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval must be at least 50ms"))
	}

	if c.WalletKeypairPath != "" && c.APIToken == "" {
		errs = append(errs, fmt.Errorf("APIToken is required when a hot wallet is configured"))
	}

	if c.ConfirmTimeout > 0 && c.ConfirmTimeout < c.ConfirmPollInterval {
		errs = append(errs, fmt.Errorf("ConfirmTimeout (%v) cannot be shorter than ConfirmPollInterval (%v)",
			c.ConfirmTimeout, c.ConfirmPollInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseUint parses an unsigned integer from an environment variable or uses a default.
func parseUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
