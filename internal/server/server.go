// Package server exposes the relay over HTTP: JSON handlers for the
// disbursement, payment, scoring and admin surfaces, plus logging, CORS and
// Prometheus middleware.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mneepulse/relay/internal/auth"
	"github.com/mneepulse/relay/internal/config"
	"github.com/mneepulse/relay/internal/relay"
	"github.com/mneepulse/relay/internal/scoring"
	"github.com/mneepulse/relay/internal/settlement"
	"github.com/mneepulse/relay/internal/storage"
)

// Server holds the wired dependencies behind the HTTP surface.
type Server struct {
	cfg     *config.Config
	store   storage.Store
	orch    *relay.Orchestrator
	adapter settlement.Adapter
	scorer  scoring.Scorer
	tokens  *auth.TokenManager
}

// New creates a server. adapter is the primary settlement adapter the status
// probe reports on.
func New(
	cfg *config.Config,
	store storage.Store,
	orch *relay.Orchestrator,
	adapter settlement.Adapter,
	scorer scoring.Scorer,
	tokens *auth.TokenManager,
) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		orch:    orch,
		adapter: adapter,
		scorer:  scorer,
		tokens:  tokens,
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/ai/status", s.handleAIStatus)
	mux.HandleFunc("GET /v1/disbursements", s.handleListDisbursements)
	mux.HandleFunc("GET /v1/payments", s.handleListPayments)
	mux.HandleFunc("POST /v1/scout/run", s.handleScoutRun)
	mux.HandleFunc("POST /v1/scout/evaluate", s.handleScoutEvaluate)
	mux.HandleFunc("POST /v1/payments", s.handleCreatePayment)
	mux.HandleFunc("POST /v1/admin/token", s.handleAdminToken)
	mux.HandleFunc("POST /v1/admin/reset", s.handleAdminReset)
	mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(corsMiddleware(s.cfg.CORSOrigin, mux))
}
