package sqlite

import "database/sql"

// schema contains the SQL statements to set up the ledger tables.
// These run on startup to ensure tables exist. The seq column preserves
// insertion order for tie-breaking when timestamps collide.
const schema = `
CREATE TABLE IF NOT EXISTS disbursements (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
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
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    merchant_address TEXT NOT NULL,
    amount TEXT NOT NULL,
    mode TEXT NOT NULL,
    reference TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_disbursements_created_at ON disbursements(created_at);
CREATE INDEX IF NOT EXISTS idx_disbursements_recipient_lc ON disbursements(recipient_lc, created_at);
CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
