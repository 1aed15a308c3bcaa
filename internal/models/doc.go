// Package models defines the core domain records for the Pulse relay.
//
// The ledger holds two transaction classes:
//   - Disbursement: a guardrail-checked transfer attempt (committed or failed)
//   - Payment: a manual merchant payment, tracked but not governed by guardrails
//
// Records are immutable once appended. Corrections require a new record; the
// store never updates or deletes individual rows.
package models
