// Package storage provides abstractions for the durable disbursement ledger.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
)

// Store is the append-only ledger backing both the audit history and the
// guardrail decisions. Every read must reflect every prior successful append
// observed by the same process (read-your-writes); implementations may assume
// a single active relayer process.
//
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the orchestrator or guardrail engine.
type Store interface {
	// AppendDisbursement durably persists one disbursement record.
	// Records are immutable; the store never updates them.
	AppendDisbursement(ctx context.Context, d *models.Disbursement) error

	// ListDisbursements returns all disbursement records ordered by
	// CreatedAt descending, ties broken by insertion order (most recent
	// insertion first).
	ListDisbursements(ctx context.Context) ([]*models.Disbursement, error)

	// ListDisbursementsByRecipient filters the full history by a
	// case-insensitive recipient match, newest first.
	ListDisbursementsByRecipient(ctx context.Context, recipient string) ([]*models.Disbursement, error)

	// SumCommittedSince returns the sum of Amount over committed records
	// with CreatedAt >= since.
	SumCommittedSince(ctx context.Context, since time.Time) (decimal.Decimal, error)

	// HasCommittedToRecipientSince reports whether any committed record
	// matches the recipient (case-insensitive) with CreatedAt >= since.
	HasCommittedToRecipientSince(ctx context.Context, recipient string, since time.Time) (bool, error)

	// AppendPayment persists one merchant payment record.
	AppendPayment(ctx context.Context, p *models.Payment) error

	// ListPayments returns all payment records, newest first.
	ListPayments(ctx context.Context) ([]*models.Payment, error)

	// Reset clears all records atomically. Demo and test use only; it must
	// never be reachable from a guardrail-protected path.
	Reset(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
