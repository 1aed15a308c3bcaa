// Package relay implements the disbursement orchestrator: the single entry
// point that evaluates guardrails, delegates to the settlement adapter, and
// commits the outcome to the ledger.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/events"
	"github.com/mneepulse/relay/internal/guardrail"
	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/money"
	"github.com/mneepulse/relay/internal/settlement"
	"github.com/mneepulse/relay/internal/storage"
)

// DisburseRequest is one proposed guardrail-checked disbursement.
type DisburseRequest struct {
	Recipient    string
	Amount       decimal.Decimal
	Source       string
	SourceDetail string

	// ForceSimulated routes this transfer to the simulated adapter
	// regardless of the deployment mode. The reverse escalation does not
	// exist: a dry-run deployment's primary adapter is already simulated.
	ForceSimulated bool
}

// PaymentRequest is one manual merchant payment. Payments are not governed
// by guardrails.
type PaymentRequest struct {
	MerchantAddress string
	Amount          decimal.Decimal

	// Simulate requests the simulated adapter for this payment (demo flows).
	Simulate bool

	// ForceLive overrides Simulate and self-transfer detection, but never a
	// dry-run deployment.
	ForceLive bool
}

// Orchestrator coordinates the evaluate -> transfer -> append sequence.
// The sequence runs under a single mutex so guardrail decisions and ledger
// appends are linearized; history reads never take the mutex.
type Orchestrator struct {
	store     storage.Store
	guard     *guardrail.Engine
	adapter   settlement.Adapter
	simulated settlement.Adapter
	publisher events.Publisher

	deployMode     models.SettlementMode
	relayerAddress string

	mu sync.Mutex
}

// NewOrchestrator wires the orchestrator. The simulated adapter backs the
// per-request escape hatch even on live deployments.
func NewOrchestrator(
	store storage.Store,
	guard *guardrail.Engine,
	adapter settlement.Adapter,
	simulated settlement.Adapter,
	publisher events.Publisher,
	deployMode models.SettlementMode,
	relayerAddress string,
) *Orchestrator {
	return &Orchestrator{
		store:          store,
		guard:          guard,
		adapter:        adapter,
		simulated:      simulated,
		publisher:      publisher,
		deployMode:     deployMode,
		relayerAddress: relayerAddress,
	}
}

// Precheck evaluates the guardrails without taking the serialization lock.
// It lets callers avoid expensive work (like an oracle call) for proposals
// that would be rejected anyway; Disburse re-evaluates authoritatively.
func (o *Orchestrator) Precheck(ctx context.Context, recipient string, amount decimal.Decimal) (guardrail.Decision, error) {
	return o.guard.Evaluate(ctx, recipient, money.Normalize(amount))
}

// Disburse runs the full guardrail-checked disbursement. It returns the
// appended record on success; a *RejectedError when a guardrail declined the
// proposal (nothing persisted); the failed record plus a *SettlementFailure
// when the backend rejected the transfer; or a *InconsistencyError when the
// transfer succeeded but the append did not.
func (o *Orchestrator) Disburse(ctx context.Context, req DisburseRequest) (*models.Disbursement, error) {
	amount := money.Normalize(req.Amount)
	if err := money.Validate(amount); err != nil {
		return nil, fmt.Errorf("invalid disbursement amount: %w", err)
	}

	adapter, mode := o.adapter, o.deployMode
	if req.ForceSimulated {
		adapter, mode = o.simulated, models.ModeSimulated
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	decision, err := o.guard.Evaluate(ctx, req.Recipient, amount)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		slog.Info("Disbursement rejected",
			"recipient", req.Recipient,
			"amount", amount,
			"reason", decision.Reason,
		)
		return nil, &RejectedError{Decision: decision}
	}

	// Once the transfer is submitted there is no cancelling it; the detached
	// context keeps a caller timeout from dropping the ledger trace.
	detached := context.WithoutCancel(ctx)

	receipt, transferErr := adapter.Transfer(detached, req.Recipient, amount)

	record := &models.Disbursement{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Source:       req.Source,
		SourceDetail: req.SourceDetail,
		Recipient:    req.Recipient,
		Amount:       amount,
		Mode:         mode,
	}
	if transferErr != nil {
		record.Outcome = models.OutcomeFailed
		record.Reference = "FAILED-" + record.ID
	} else {
		record.Outcome = models.OutcomeCommitted
		record.Reference = receipt.Reference
		record.Mode = receipt.Mode
	}

	if err := o.store.AppendDisbursement(detached, record); err != nil {
		requestID := uuid.New().String()
		if transferErr == nil {
			slog.Error("LEDGER INCONSISTENCY: transfer succeeded but append failed",
				"request_id", requestID,
				"recipient", record.Recipient,
				"amount", record.Amount,
				"reference", record.Reference,
				"mode", record.Mode,
				"error", err,
			)
			return nil, &InconsistencyError{
				RequestID: requestID,
				Recipient: record.Recipient,
				Amount:    record.Amount,
				Reference: record.Reference,
				Err:       err,
			}
		}
		slog.Error("Failed transfer could not be recorded",
			"request_id", requestID,
			"recipient", record.Recipient,
			"error", err,
			"transfer_error", transferErr,
		)
		return nil, &SettlementFailure{RequestID: requestID, Err: fmt.Errorf("%v (and recording failed: %w)", transferErr, err)}
	}

	if transferErr != nil {
		requestID := uuid.New().String()
		slog.Warn("Disbursement failed at settlement",
			"request_id", requestID,
			"recipient", record.Recipient,
			"amount", record.Amount,
			"error", transferErr,
		)
		return record, &SettlementFailure{RequestID: requestID, Err: transferErr}
	}

	slog.Info("Disbursement committed",
		"id", record.ID,
		"recipient", record.Recipient,
		"amount", record.Amount,
		"mode", record.Mode,
		"reference", record.Reference,
	)
	o.publishCommitted(detached, record)
	return record, nil
}

// PayMerchant executes an ungoverned merchant payment. Self-transfers and
// demo payments route to the simulated adapter unless the caller forces a
// live transfer on a live deployment.
func (o *Orchestrator) PayMerchant(ctx context.Context, req PaymentRequest) (*models.Payment, error) {
	amount := money.Normalize(req.Amount)
	if err := money.Validate(amount); err != nil {
		return nil, fmt.Errorf("invalid payment amount: %w", err)
	}

	selfTransfer := o.relayerAddress != "" && sameAddress(o.relayerAddress, req.MerchantAddress)
	adapter := o.adapter
	if (req.Simulate || selfTransfer) && !req.ForceLive {
		adapter = o.simulated
	}

	detached := context.WithoutCancel(ctx)

	receipt, err := adapter.Transfer(detached, req.MerchantAddress, amount)
	if err != nil {
		requestID := uuid.New().String()
		slog.Error("Merchant payment failed",
			"request_id", requestID,
			"merchant", req.MerchantAddress,
			"amount", amount,
			"error", err,
		)
		return nil, &SettlementFailure{RequestID: requestID, Err: err}
	}

	payment := &models.Payment{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		MerchantAddress: req.MerchantAddress,
		Amount:          amount,
		Mode:            receipt.Mode,
		Reference:       receipt.Reference,
	}

	if err := o.store.AppendPayment(detached, payment); err != nil {
		requestID := uuid.New().String()
		slog.Error("LEDGER INCONSISTENCY: payment succeeded but append failed",
			"request_id", requestID,
			"merchant", payment.MerchantAddress,
			"amount", payment.Amount,
			"reference", payment.Reference,
			"error", err,
		)
		return nil, &InconsistencyError{
			RequestID: requestID,
			Recipient: payment.MerchantAddress,
			Amount:    payment.Amount,
			Reference: payment.Reference,
			Err:       err,
		}
	}

	slog.Info("Merchant payment recorded",
		"id", payment.ID,
		"merchant", payment.MerchantAddress,
		"amount", payment.Amount,
		"mode", payment.Mode,
	)
	return payment, nil
}

func (o *Orchestrator) publishCommitted(ctx context.Context, record *models.Disbursement) {
	err := o.publisher.Publish(ctx, events.DisbursementCommitted{
		DisbursementID: record.ID,
		Recipient:      record.Recipient,
		Amount:         record.Amount,
		Mode:           string(record.Mode),
		Reference:      record.Reference,
		Source:         record.Source,
		OccurredAt:     record.CreatedAt,
	})
	if err != nil {
		slog.Warn("Failed to publish disbursement event", "id", record.ID, "error", err)
	}
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
