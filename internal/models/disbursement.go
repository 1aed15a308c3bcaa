package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementMode identifies which settlement path produced a record.
type SettlementMode string

const (
	// ModeSimulated means no external network was contacted; the reference
	// is a synthesized placeholder.
	ModeSimulated SettlementMode = "simulated"

	// ModeLive means the transfer was submitted to the settlement network
	// and the reference is a backend-assigned transaction hash.
	ModeLive SettlementMode = "live"
)

// Outcome is the terminal state of a disbursement attempt.
// Guardrail rejections never reach the ledger and have no Outcome.
type Outcome string

const (
	// OutcomeCommitted means the settlement backend reported success.
	OutcomeCommitted Outcome = "committed"

	// OutcomeFailed means the backend rejected or errored on the transfer.
	// Failed attempts are still recorded for audit.
	OutcomeFailed Outcome = "failed"
)

// Disbursement source tags.
const (
	SourceScout   = "scout"
	SourceScoutAI = "scout-ai"
	SourceManual  = "manual"
)

// Disbursement is one attempted transfer of MNEE to a recipient.
type Disbursement struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// CreatedAt is when the orchestrator committed the record, after the
	// settlement backend returned.
	CreatedAt time.Time `json:"created_at"`

	// Source is the logical initiator tag (scout, scout-ai, manual).
	Source string `json:"source"`

	// SourceDetail carries optional initiator context, such as the AI
	// qualification rationale for scout-ai disbursements.
	SourceDetail string `json:"source_detail,omitempty"`

	// Recipient is the destination address. Comparisons against it are
	// case-insensitive; the stored value preserves the caller's casing.
	Recipient string `json:"recipient"`

	// Amount is the MNEE amount, normalized to 8 decimal places.
	Amount decimal.Decimal `json:"amount"`

	// Mode records which settlement variant executed the transfer.
	Mode SettlementMode `json:"mode"`

	// Reference is the backend transaction hash, or a placeholder for
	// simulated and failed attempts.
	Reference string `json:"reference"`

	// Outcome is committed or failed.
	Outcome Outcome `json:"outcome"`
}

// Payment is a manual merchant payment. Payments share the ledger document
// with disbursements but form a separate, ungoverned sequence.
type Payment struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// CreatedAt is when the payment was recorded.
	CreatedAt time.Time `json:"created_at"`

	// MerchantAddress is the destination address for the payment.
	MerchantAddress string `json:"merchant_address"`

	// Amount is the MNEE amount (1 MNEE = 1 USD).
	Amount decimal.Decimal `json:"amount"`

	// Mode records which settlement variant executed the transfer.
	Mode SettlementMode `json:"mode"`

	// Reference is the backend transaction hash or a demo placeholder.
	Reference string `json:"reference"`
}
