package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mneepulse/relay/internal/auth"
	"github.com/mneepulse/relay/internal/config"
	"github.com/mneepulse/relay/internal/events"
	"github.com/mneepulse/relay/internal/events/kafka"
	"github.com/mneepulse/relay/internal/guardrail"
	"github.com/mneepulse/relay/internal/relay"
	"github.com/mneepulse/relay/internal/scoring"
	"github.com/mneepulse/relay/internal/server"
	"github.com/mneepulse/relay/internal/settlement"
	"github.com/mneepulse/relay/internal/storage"
	"github.com/mneepulse/relay/internal/storage/postgres"
	"github.com/mneepulse/relay/internal/storage/sqlite"
	"github.com/mneepulse/relay/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize ledger store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Ledger store initialized", "driver", cfg.LedgerDriver)

	simulated := settlement.NewSimulated(cfg.RelayerAddress, cfg.TokenAddress)
	var adapter settlement.Adapter = simulated
	if !cfg.DryRun {
		if missing := cfg.MissingForLive(); len(missing) > 0 {
			// The process still starts; the status endpoint reports what
			// is missing and transfers fail with ErrUnavailable.
			slog.Warn("Live mode requested with incomplete configuration", "missing", missing)
		}
		adapter = settlement.NewEthereum(cfg.EthereumRPCURL, cfg.RelayerAddress, cfg.RelayerPrivateKey, cfg.TokenAddress)
	}
	slog.Info("Settlement adapter selected", "mode", cfg.Mode())

	scorer, err := scoring.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("Failed to initialize scoring oracle", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		slog.Info("Event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	guard := guardrail.New(store, cfg.DailyLimit, cfg.CooldownWindow, cfg.Location())
	orch := relay.NewOrchestrator(store, guard, adapter, simulated, publisher, cfg.Mode(), cfg.RelayerAddress)
	tokens := auth.NewTokenManager(cfg.AdminSecretHash, cfg.AdminSigningKey, cfg.AdminTokenTTL)

	srv := server.New(cfg, store, orch, adapter, scorer, tokens)

	// h2c lets gRPC-style and HTTP/2 clients connect without TLS termination
	// in front of the process.
	handler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	slog.Info("Relay server starting",
		"address", addr,
		"mode", cfg.Mode(),
		"daily_limit", cfg.DailyLimit,
		"tip_amount", cfg.TipAmount,
		"cooldown", cfg.CooldownWindow,
	)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.LedgerDriver {
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return sqlite.New(cfg.DBPath)
	}
}
