package relay

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/guardrail"
)

// RejectedError reports a guardrail rejection. It is a normal decision
// outcome carried as an error so callers can distinguish it from settlement
// failures; no ledger write happened and no settlement call was made.
type RejectedError struct {
	Decision guardrail.Decision
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("disbursement rejected: %s", e.Decision)
}

// SettlementFailure reports a transfer the backend rejected. A failed-outcome
// ledger record was appended; the backend message stays in this error and the
// request id correlates logs with the caller-visible response.
type SettlementFailure struct {
	RequestID string
	Err       error
}

func (e *SettlementFailure) Error() string {
	return fmt.Sprintf("settlement failure (request %s): %v", e.RequestID, e.Err)
}

func (e *SettlementFailure) Unwrap() error { return e.Err }

// InconsistencyError is the one fatal class: a transfer succeeded but the
// ledger append did not, meaning money moved with no record. It carries
// everything an operator needs to reconcile manually.
type InconsistencyError struct {
	RequestID string
	Recipient string
	Amount    decimal.Decimal
	Reference string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf(
		"ledger inconsistency (request %s): transfer %s of %s MNEE to %s succeeded but was not recorded: %v",
		e.RequestID, e.Reference, e.Amount, e.Recipient, e.Err,
	)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }
