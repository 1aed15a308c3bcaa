package guardrail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "guardrail-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func commit(t *testing.T, store *sqlite.SQLiteStore, recipient, amount string, at time.Time) {
	t.Helper()
	err := store.AppendDisbursement(context.Background(), &models.Disbursement{
		CreatedAt: at,
		Source:    models.SourceScout,
		Recipient: recipient,
		Amount:    decimal.RequireFromString(amount),
		Mode:      models.ModeSimulated,
		Reference: "DEMO-ref",
		Outcome:   models.OutcomeCommitted,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
}

func TestEvaluateAllowed(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(10), 5*time.Minute, time.UTC)

	decision, err := engine.Evaluate(context.Background(), "0xNew", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allowed, got %s", decision)
	}
}

func TestEvaluateDailyCap(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(10), 5*time.Minute, time.UTC)
	ctx := context.Background()
	now := time.Now().UTC()

	// 100 tips of 0.1 within today fill the cap exactly.
	for i := 0; i < 100; i++ {
		commit(t, store, "0xBulk", "0.1", now.Add(-time.Duration(i)*time.Second))
	}

	decision, err := engine.Evaluate(ctx, "0xNext", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected daily cap rejection once the cap is full")
	}
	if decision.Reason != ReasonDailyCap {
		t.Errorf("expected reason %s, got %s", ReasonDailyCap, decision.Reason)
	}
	if !decision.TodayTotal.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected today total 10, got %s", decision.TodayTotal)
	}
	if !decision.Limit.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected limit 10, got %s", decision.Limit)
	}
}

func TestEvaluateAllowsExactCapFill(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(10), 5*time.Minute, time.UTC)
	now := time.Now().UTC()

	// 99 committed tips: one more 0.1 lands exactly on the cap and is allowed.
	for i := 0; i < 99; i++ {
		commit(t, store, "0xBulk", "0.1", now.Add(-time.Duration(i)*time.Second))
	}

	decision, err := engine.Evaluate(context.Background(), "0xLast", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected the cap-filling tip to be allowed, got %s", decision)
	}
}

func TestEvaluateCooldown(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(10), 5*time.Minute, time.UTC)
	ctx := context.Background()
	now := time.Now().UTC()
	amount := decimal.RequireFromString("0.1")

	commit(t, store, "0xRepeat", "0.1", now.Add(-3*time.Minute))

	decision, err := engine.Evaluate(ctx, "0XREPEAT", amount)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Allowed || decision.Reason != ReasonCooldown {
		t.Errorf("expected cooldown rejection 3m after a tip, got %s", decision)
	}
	if decision.Window != 5*time.Minute {
		t.Errorf("expected window 5m in decision, got %s", decision.Window)
	}

	store2 := newTestStore(t)
	engine2 := New(store2, decimal.NewFromInt(10), 5*time.Minute, time.UTC)
	commit(t, store2, "0xRepeat", "0.1", now.Add(-6*time.Minute))

	decision, err = engine2.Evaluate(ctx, "0xRepeat", amount)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected tip to be allowed 6m after the last one, got %s", decision)
	}
}

func TestDailyCapCheckedBeforeCooldown(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(1), 5*time.Minute, time.UTC)
	now := time.Now().UTC()

	// Same recipient, moments ago: both guardrails would reject, the
	// daily-cap reason must win.
	commit(t, store, "0xBoth", "1", now.Add(-time.Minute))

	decision, err := engine.Evaluate(context.Background(), "0xBoth", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision.Reason != ReasonDailyCap {
		t.Errorf("expected daily cap to be reported first, got %s", decision.Reason)
	}
}

func TestYesterdayDoesNotCountTowardCap(t *testing.T) {
	store := newTestStore(t)
	engine := New(store, decimal.NewFromInt(10), 5*time.Minute, time.UTC)
	now := time.Now().UTC()

	commit(t, store, "0xPast", "10", now.Add(-48*time.Hour))

	decision, err := engine.Evaluate(context.Background(), "0xToday", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected old records to be outside today's window, got %s", decision)
	}
}
