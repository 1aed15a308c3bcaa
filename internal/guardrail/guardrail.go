// Package guardrail decides whether a proposed disbursement is allowed,
// using the ledger store as the sole source of truth.
package guardrail

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/storage"
)

// Reason identifies why a proposal was rejected.
type Reason string

const (
	// ReasonDailyCap means committing the proposal would push the day's
	// committed total over the configured limit.
	ReasonDailyCap Reason = "daily_cap"

	// ReasonCooldown means the recipient already received a committed
	// disbursement within the cooldown window.
	ReasonCooldown Reason = "cooldown"
)

// Decision is the outcome of evaluating one proposal. A rejection is a
// normal decision, not an error; the numeric context travels with it for
// client display.
type Decision struct {
	Allowed bool
	Reason  Reason

	// Daily-cap context.
	TodayTotal decimal.Decimal
	Limit      decimal.Decimal

	// Cooldown context.
	Recipient string
	Window    time.Duration
}

// String renders the decision for logs and client error messages.
func (d Decision) String() string {
	switch {
	case d.Allowed:
		return "allowed"
	case d.Reason == ReasonDailyCap:
		return fmt.Sprintf("daily tip limit reached (%s of %s MNEE committed today)", d.TodayTotal, d.Limit)
	case d.Reason == ReasonCooldown:
		return fmt.Sprintf("already tipped %s within the last %s", d.Recipient, d.Window)
	default:
		return "rejected"
	}
}

// Engine evaluates proposals against the configured thresholds. It holds no
// state of its own; every call derives its view from the store.
type Engine struct {
	store  storage.Store
	limit  decimal.Decimal
	window time.Duration
	loc    *time.Location
	now    func() time.Time
}

// New creates an engine with the given daily limit, cooldown window, and the
// time zone that defines the calendar day.
func New(store storage.Store, limit decimal.Decimal, window time.Duration, loc *time.Location) *Engine {
	return &Engine{
		store:  store,
		limit:  limit,
		window: window,
		loc:    loc,
		now:    time.Now,
	}
}

// Limit returns the configured daily cap.
func (e *Engine) Limit() decimal.Decimal { return e.limit }

// Window returns the configured cooldown window.
func (e *Engine) Window() time.Duration { return e.window }

// Evaluate checks the daily cap first, then the cooldown, so concurrent
// violations always report the same reason.
func (e *Engine) Evaluate(ctx context.Context, recipient string, amount decimal.Decimal) (Decision, error) {
	now := e.now().In(e.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)

	todayTotal, err := e.store.SumCommittedSince(ctx, dayStart)
	if err != nil {
		return Decision{}, fmt.Errorf("guardrail: summing today's committed total: %w", err)
	}
	if todayTotal.Add(amount).GreaterThan(e.limit) {
		return Decision{
			Reason:     ReasonDailyCap,
			TodayTotal: todayTotal,
			Limit:      e.limit,
		}, nil
	}

	tipped, err := e.store.HasCommittedToRecipientSince(ctx, recipient, now.Add(-e.window))
	if err != nil {
		return Decision{}, fmt.Errorf("guardrail: checking recipient cooldown: %w", err)
	}
	if tipped {
		return Decision{
			Reason:    ReasonCooldown,
			Recipient: recipient,
			Window:    e.window,
		}, nil
	}

	return Decision{Allowed: true, TodayTotal: todayTotal, Limit: e.limit}, nil
}
