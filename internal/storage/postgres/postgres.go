// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface for deployments that outgrow the embedded database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS disbursements (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL,
    source TEXT NOT NULL,
    source_detail TEXT NOT NULL DEFAULT '',
    recipient TEXT NOT NULL,
    recipient_lc TEXT NOT NULL,
    amount TEXT NOT NULL,
    mode TEXT NOT NULL,
    reference TEXT NOT NULL,
    outcome TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL,
    merchant_address TEXT NOT NULL,
    amount TEXT NOT NULL,
    mode TEXT NOT NULL,
    reference TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_disbursements_created_at ON disbursements(created_at);
CREATE INDEX IF NOT EXISTS idx_disbursements_recipient_lc ON disbursements(recipient_lc, created_at);
`

// PostgresStore implements storage.Store using PostgreSQL. It mirrors the
// SQLite layout: amounts as canonical decimal strings, timestamps as Unix
// nanoseconds, seq for insertion-order tie-breaking.
type PostgresStore struct {
	db *sql.DB
}

// New opens a connection with the given DSN, verifies it, and ensures the
// schema exists.
func New(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) AppendDisbursement(ctx context.Context, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO disbursements (id, created_at, source, source_detail, recipient, recipient_lc, amount, mode, reference, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.CreatedAt.UnixNano(), d.Source, d.SourceDetail, d.Recipient,
		strings.ToLower(d.Recipient), d.Amount.String(), string(d.Mode), d.Reference, string(d.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to insert disbursement: %w", err)
	}
	return nil
}

const disbursementColumns = "id, created_at, source, source_detail, recipient, amount, mode, reference, outcome"

func (s *PostgresStore) queryDisbursements(ctx context.Context, query string, args ...any) ([]*models.Disbursement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disbursements: %w", err)
	}
	defer rows.Close()

	var out []*models.Disbursement
	for rows.Next() {
		d := &models.Disbursement{}
		var createdAt int64
		var amount, mode, outcome string
		if err := rows.Scan(&d.ID, &createdAt, &d.Source, &d.SourceDetail, &d.Recipient, &amount, &mode, &d.Reference, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q for record %s: %w", amount, d.ID, err)
		}
		d.CreatedAt = time.Unix(0, createdAt).UTC()
		d.Amount = parsed
		d.Mode = models.SettlementMode(mode)
		d.Outcome = models.Outcome(outcome)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate disbursements: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListDisbursements(ctx context.Context) ([]*models.Disbursement, error) {
	return s.queryDisbursements(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements ORDER BY created_at DESC, seq DESC")
}

func (s *PostgresStore) ListDisbursementsByRecipient(ctx context.Context, recipient string) ([]*models.Disbursement, error) {
	return s.queryDisbursements(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE recipient_lc = $1 ORDER BY created_at DESC, seq DESC",
		strings.ToLower(recipient))
}

func (s *PostgresStore) SumCommittedSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT amount FROM disbursements WHERE outcome = $1 AND created_at >= $2",
		string(models.OutcomeCommitted), since.UnixNano())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query committed amounts: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		sum = sum.Add(parsed)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) HasCommittedToRecipientSince(ctx context.Context, recipient string, since time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM disbursements WHERE outcome = $1 AND recipient_lc = $2 AND created_at >= $3 LIMIT 1",
		string(models.OutcomeCommitted), strings.ToLower(recipient), since.UnixNano(),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check recent disbursements: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) AppendPayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, created_at, merchant_address, amount, mode, reference)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CreatedAt.UnixNano(), p.MerchantAddress, p.Amount.String(), string(p.Mode), p.Reference,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, merchant_address, amount, mode, reference FROM payments ORDER BY created_at DESC, seq DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var createdAt int64
		var amount, mode string
		if err := rows.Scan(&p.ID, &createdAt, &p.MerchantAddress, &amount, &mode, &p.Reference); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q for payment %s: %w", amount, p.ID, err)
		}
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		p.Amount = parsed
		p.Mode = models.SettlementMode(mode)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM disbursements"); err != nil {
		return fmt.Errorf("failed to clear disbursements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM payments"); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
