// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/money"
)

// DefaultTokenAddress is the MNEE ERC-20 contract on Ethereum mainnet.
const DefaultTokenAddress = "0x8ccedbAe4916b79da7F3F612EfB2EB93A2bFD6cF"

// Config holds all deployment-time settings. Guardrail thresholds are
// process-wide constants, never derived from request input.
type Config struct {
	Host       string `env:"HOST" envDefault:"0.0.0.0"`
	Port       int    `env:"PORT" envDefault:"8000"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	// DryRun selects the simulated settlement backend. A dry-run deployment
	// can never be escalated to live per-request.
	DryRun bool `env:"DRY_RUN" envDefault:"true"`

	// Guardrails.
	DailyLimit     decimal.Decimal `env:"DAILY_TIP_LIMIT" envDefault:"10"`
	TipAmount      decimal.Decimal `env:"TIP_AMOUNT" envDefault:"0.1"`
	CooldownWindow time.Duration   `env:"COOLDOWN_WINDOW" envDefault:"5m"`

	// Timezone defines the calendar day for the daily cap.
	Timezone string `env:"SERVICE_TIMEZONE" envDefault:"UTC"`

	DemoRecipient string `env:"DEMO_RECIPIENT_ADDRESS" envDefault:"0x136e49195511f4ca36d9582b203953d6d8b599f6"`

	// Ledger backend.
	LedgerDriver string `env:"LEDGER_DRIVER" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/ledger.db"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	// Live settlement backend.
	EthereumRPCURL    string `env:"ETHEREUM_RPC_URL"`
	RelayerAddress    string `env:"RELAYER_ADDRESS"`
	RelayerPrivateKey string `env:"RELAYER_PRIVATE_KEY"`
	TokenAddress      string `env:"MNEE_TOKEN_ADDRESS"`

	// Content scoring oracle.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	// Event publishing (disabled when no brokers are configured).
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"disbursements.committed"`

	// Operator auth for the reset endpoint. When AdminSecretHash is empty
	// the reset endpoint stays open (demo deployments).
	AdminSecretHash string        `env:"ADMIN_SECRET_HASH"`
	AdminSigningKey string        `env:"ADMIN_SIGNING_KEY"`
	AdminTokenTTL   time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"1h"`

	loc *time.Location
}

// Load reads .env (if present) and the process environment, then validates.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.loc = loc

	if cfg.TokenAddress == "" {
		cfg.TokenAddress = DefaultTokenAddress
	}
	if err := money.Validate(cfg.TipAmount); err != nil {
		return nil, fmt.Errorf("invalid TIP_AMOUNT: %w", err)
	}
	if cfg.DailyLimit.Sign() < 0 {
		return nil, fmt.Errorf("DAILY_TIP_LIMIT must not be negative, got %s", cfg.DailyLimit)
	}
	if cfg.CooldownWindow < 0 {
		return nil, fmt.Errorf("COOLDOWN_WINDOW must not be negative, got %s", cfg.CooldownWindow)
	}
	switch cfg.LedgerDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.LedgerDriver)
	}
	if cfg.LedgerDriver == "postgres" && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required when LEDGER_DRIVER=postgres")
	}

	return cfg, nil
}

// Location returns the time zone used for calendar-day boundaries.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Mode returns the deployment-time settlement mode.
func (c *Config) Mode() models.SettlementMode {
	if c.DryRun {
		return models.ModeSimulated
	}
	return models.ModeLive
}

// MissingForLive enumerates required keys that are absent for live mode.
// Live settings are never silently defaulted; the status endpoint surfaces
// this list to the caller.
func (c *Config) MissingForLive() []string {
	required := map[string]string{
		"ETHEREUM_RPC_URL":    c.EthereumRPCURL,
		"RELAYER_ADDRESS":     c.RelayerAddress,
		"RELAYER_PRIVATE_KEY": c.RelayerPrivateKey,
	}
	var missing []string
	// Stable order for clients and tests.
	for _, key := range []string{"ETHEREUM_RPC_URL", "RELAYER_ADDRESS", "RELAYER_PRIVATE_KEY"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
