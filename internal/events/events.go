// Package events publishes committed-disbursement notifications for
// downstream consumers. Publishing is best-effort; a publish failure never
// affects the disbursement outcome.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DisbursementCommitted is emitted after a disbursement record with a
// committed outcome is appended to the ledger.
type DisbursementCommitted struct {
	DisbursementID string          `json:"disbursement_id"`
	Recipient      string          `json:"recipient"`
	Amount         decimal.Decimal `json:"amount"`
	Mode           string          `json:"mode"`
	Reference      string          `json:"reference"`
	Source         string          `json:"source"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Publisher delivers events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, event DisbursementCommitted) error
	Close() error
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event DisbursementCommitted) error { return nil }

func (Noop) Close() error { return nil }
