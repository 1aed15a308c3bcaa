package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.DryRun {
		t.Error("expected DRY_RUN to default to true")
	}
	if !cfg.DailyLimit.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected default daily limit 10, got %s", cfg.DailyLimit)
	}
	if !cfg.TipAmount.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("expected default tip amount 0.1, got %s", cfg.TipAmount)
	}
	if cfg.CooldownWindow.Minutes() != 5 {
		t.Errorf("expected default cooldown 5m, got %s", cfg.CooldownWindow)
	}
	if cfg.TokenAddress != DefaultTokenAddress {
		t.Errorf("expected default token address, got %s", cfg.TokenAddress)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("expected UTC default, got %s", cfg.Location())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero tip amount", "TIP_AMOUNT", "0"},
		{"negative daily limit", "DAILY_TIP_LIMIT", "-1"},
		{"unknown ledger driver", "LEDGER_DRIVER", "etcd"},
		{"bad timezone", "SERVICE_TIMEZONE", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected Load to fail with %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestPostgresRequiresDSN(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Error("expected Load to fail without POSTGRES_DSN")
	}

	t.Setenv("POSTGRES_DSN", "postgres://localhost/relay?sslmode=disable")
	if _, err := Load(); err != nil {
		t.Errorf("expected Load to succeed with DSN set, got %v", err)
	}
}

func TestMissingForLive(t *testing.T) {
	cfg := &Config{}
	missing := cfg.MissingForLive()
	want := []string{"ETHEREUM_RPC_URL", "RELAYER_ADDRESS", "RELAYER_PRIVATE_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing keys, got %v", len(want), missing)
	}
	for i, key := range want {
		if missing[i] != key {
			t.Errorf("missing[%d] = %s, want %s", i, missing[i], key)
		}
	}

	cfg.EthereumRPCURL = "https://eth.example"
	cfg.RelayerAddress = "0xabc"
	cfg.RelayerPrivateKey = "deadbeef"
	if got := cfg.MissingForLive(); len(got) != 0 {
		t.Errorf("expected no missing keys, got %v", got)
	}
}
