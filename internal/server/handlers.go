package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/auth"
	"github.com/mneepulse/relay/internal/guardrail"
	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/relay"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, Details: details})
}

// writeDisburseError maps orchestrator errors onto the HTTP surface.
func (s *Server) writeDisburseError(w http.ResponseWriter, err error) {
	var rejected *relay.RejectedError
	if errors.As(err, &rejected) {
		writeRejection(w, rejected.Decision)
		return
	}

	var failure *relay.SettlementFailure
	if errors.As(err, &failure) {
		disbursementOutcomes.WithLabelValues(string(models.OutcomeFailed)).Inc()
		writeError(w, http.StatusInternalServerError, "SETTLEMENT_FAILURE", failure.Error(), map[string]any{
			"request_id": failure.RequestID,
		})
		return
	}

	var inconsistency *relay.InconsistencyError
	if errors.As(err, &inconsistency) {
		writeError(w, http.StatusInternalServerError, "LEDGER_INCONSISTENCY",
			"transfer succeeded but could not be recorded; manual reconciliation required",
			map[string]any{"request_id": inconsistency.RequestID},
		)
		return
	}

	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
}

func writeRejection(w http.ResponseWriter, decision guardrail.Decision) {
	guardrailRejections.WithLabelValues(string(decision.Reason)).Inc()

	details := map[string]any{"reason": decision.Reason}
	switch decision.Reason {
	case guardrail.ReasonDailyCap:
		details["today_total"] = decision.TodayTotal
		details["daily_limit"] = decision.Limit
	case guardrail.ReasonCooldown:
		details["recipient"] = decision.Recipient
		details["cooldown"] = decision.Window.String()
	}
	writeError(w, http.StatusTooManyRequests, "GUARDRAIL_REJECTED", decision.String(), details)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.adapter.Status(r.Context())
	if err != nil {
		details := map[string]any{}
		if missing := s.cfg.MissingForLive(); len(missing) > 0 {
			details["missing_config"] = missing
		}
		writeError(w, http.StatusInternalServerError, "CONFIGURATION_MISSING",
			"settlement backend unavailable: "+err.Error(), details)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scorer.Status(r.Context()))
}

func (s *Server) handleListDisbursements(w http.ResponseWriter, r *http.Request) {
	var (
		records []*models.Disbursement
		err     error
	)
	if recipient := r.URL.Query().Get("recipient"); recipient != "" {
		records, err = s.store.ListDisbursementsByRecipient(r.Context(), recipient)
	} else {
		records, err = s.store.ListDisbursements(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if records == nil {
		records = []*models.Disbursement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"disbursements": records,
		"count":         len(records),
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"count":    len(payments),
	})
}

func (s *Server) handleScoutRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.orch.Disburse(r.Context(), relay.DisburseRequest{
		Recipient: s.cfg.DemoRecipient,
		Amount:    s.cfg.TipAmount,
		Source:    models.SourceScout,
	})
	if err != nil {
		s.writeDisburseError(w, err)
		return
	}
	disbursementOutcomes.WithLabelValues(string(record.Outcome)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"disbursement": record})
}

type evaluateRequest struct {
	Content          string `json:"content"`
	RecipientAddress string `json:"recipient_address"`
}

func (s *Server) handleScoutEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "content is required", nil)
		return
	}
	recipient := req.RecipientAddress
	if recipient == "" {
		recipient = s.cfg.DemoRecipient
	}

	// Guardrails gate the oracle call: a proposal the engine would reject
	// never spends a scoring request.
	decision, err := s.orch.Precheck(r.Context(), recipient, s.cfg.TipAmount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if !decision.Allowed {
		writeRejection(w, decision)
		return
	}

	eval := s.scorer.Score(r.Context(), req.Content)
	if !eval.Qualified {
		writeJSON(w, http.StatusOK, map[string]any{
			"evaluation": eval,
			"qualified":  false,
			"message":    "content did not meet the quality threshold",
		})
		return
	}

	record, err := s.orch.Disburse(r.Context(), relay.DisburseRequest{
		Recipient:    recipient,
		Amount:       s.cfg.TipAmount,
		Source:       models.SourceScoutAI,
		SourceDetail: eval.Reason,
	})
	if err != nil {
		s.writeDisburseError(w, err)
		return
	}
	disbursementOutcomes.WithLabelValues(string(record.Outcome)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluation":   eval,
		"qualified":    true,
		"disbursement": record,
	})
}

type paymentRequest struct {
	MerchantAddress string          `json:"merchant_address"`
	Amount          decimal.Decimal `json:"amount"`
	Simulate        bool            `json:"simulate"`
	ForceLive       bool            `json:"force_live"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.MerchantAddress) == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "merchant_address is required", nil)
		return
	}
	if req.Amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be positive", nil)
		return
	}

	payment, err := s.orch.PayMerchant(r.Context(), relay.PaymentRequest{
		MerchantAddress: req.MerchantAddress,
		Amount:          req.Amount,
		Simulate:        req.Simulate,
		ForceLive:       req.ForceLive,
	})
	if err != nil {
		s.writeDisburseError(w, err)
		return
	}
	paymentsTotal.WithLabelValues(string(payment.Mode)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

type tokenRequest struct {
	Secret string `json:"secret"`
}

func (s *Server) handleAdminToken(w http.ResponseWriter, r *http.Request) {
	if !s.tokens.Enabled() {
		writeError(w, http.StatusNotFound, "NOT_CONFIGURED", "operator auth is not configured", nil)
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}

	token, err := s.tokens.Exchange(req.Secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin secret", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
	})
}

func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	// An open admin surface is a demo deployment; a configured secret
	// requires a valid operator token.
	if s.tokens.Enabled() {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", auth.ErrMissingToken.Error(), nil)
			return
		}
		if _, err := s.tokens.Validate(token); err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", auth.ErrInvalidToken.Error(), nil)
			return
		}
	}

	if err := s.store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	slog.Warn("Ledger reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
