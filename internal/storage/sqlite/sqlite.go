// Package sqlite provides a SQLite-backed implementation of the storage.Store
// interface using the pure Go driver (no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite. Amounts are stored as
// canonical decimal strings and summed in Go, so no float arithmetic touches
// ledger values. Timestamps are stored as Unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore at the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and guarantees that reads
	// observe every prior append made through this store.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendDisbursement persists a disbursement record, generating the ID and
// CreatedAt if unset.
func (s *SQLiteStore) AppendDisbursement(ctx context.Context, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO disbursements (id, created_at, source, source_detail, recipient, recipient_lc, amount, mode, reference, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CreatedAt.UnixNano(), d.Source, d.SourceDetail, d.Recipient,
		strings.ToLower(d.Recipient), d.Amount.String(), string(d.Mode), d.Reference, string(d.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to insert disbursement: %w", err)
	}
	return nil
}

const disbursementColumns = "id, created_at, source, source_detail, recipient, amount, mode, reference, outcome"

func scanDisbursement(rows *sql.Rows) (*models.Disbursement, error) {
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
	return d, nil
}

func (s *SQLiteStore) queryDisbursements(ctx context.Context, query string, args ...any) ([]*models.Disbursement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disbursements: %w", err)
	}
	defer rows.Close()

	var out []*models.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate disbursements: %w", err)
	}
	return out, nil
}

// ListDisbursements returns all records, newest first, insertion order
// breaking timestamp ties.
func (s *SQLiteStore) ListDisbursements(ctx context.Context) ([]*models.Disbursement, error) {
	return s.queryDisbursements(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements ORDER BY created_at DESC, seq DESC")
}

// ListDisbursementsByRecipient filters by case-insensitive recipient match.
func (s *SQLiteStore) ListDisbursementsByRecipient(ctx context.Context, recipient string) ([]*models.Disbursement, error) {
	return s.queryDisbursements(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE recipient_lc = ? ORDER BY created_at DESC, seq DESC",
		strings.ToLower(recipient))
}

// SumCommittedSince sums committed amounts with CreatedAt >= since.
func (s *SQLiteStore) SumCommittedSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT amount FROM disbursements WHERE outcome = ? AND created_at >= ?",
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

// HasCommittedToRecipientSince reports whether the recipient received a
// committed disbursement at or after the given instant.
func (s *SQLiteStore) HasCommittedToRecipientSince(ctx context.Context, recipient string, since time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM disbursements WHERE outcome = ? AND recipient_lc = ? AND created_at >= ? LIMIT 1",
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

// AppendPayment persists a merchant payment record.
func (s *SQLiteStore) AppendPayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, created_at, merchant_address, amount, mode, reference)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt.UnixNano(), p.MerchantAddress, p.Amount.String(), string(p.Mode), p.Reference,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPayments returns all payment records, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context) ([]*models.Payment, error) {
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

// Reset clears all records atomically.
func (s *SQLiteStore) Reset(ctx context.Context) error {
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
