package settlement

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
)

func TestSimulatedTransferSucceeds(t *testing.T) {
	adapter := NewSimulated("0xRelayer", "0xToken")

	receipt, err := adapter.Transfer(context.Background(), "0xRecipient", decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Mode != models.ModeSimulated {
		t.Errorf("expected simulated mode, got %s", receipt.Mode)
	}
	if receipt.Reference == "" {
		t.Error("expected a synthesized reference")
	}
}

func TestSimulatedReferencesAreUnique(t *testing.T) {
	adapter := NewSimulated("0xRelayer", "0xToken")
	ctx := context.Background()
	amount := decimal.RequireFromString("0.1")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		receipt, err := adapter.Transfer(ctx, "0xRecipient", amount)
		if err != nil {
			t.Fatalf("Transfer %d failed: %v", i, err)
		}
		if seen[receipt.Reference] {
			t.Fatalf("duplicate reference %s on call %d", receipt.Reference, i)
		}
		seen[receipt.Reference] = true
	}
}

func TestSimulatedRejectsInvalidAmount(t *testing.T) {
	adapter := NewSimulated("0xRelayer", "0xToken")

	_, err := adapter.Transfer(context.Background(), "0xRecipient", decimal.Zero)
	if err == nil {
		t.Fatal("expected zero amount to fail")
	}
	if _, ok := err.(*TransferError); !ok {
		t.Errorf("expected *TransferError, got %T", err)
	}
}

func TestSimulatedStatusHasNoNetworkDependencies(t *testing.T) {
	adapter := NewSimulated("0xRelayer", "0xToken")

	status, err := adapter.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Mode != models.ModeSimulated {
		t.Errorf("expected simulated mode, got %s", status.Mode)
	}
	if status.RelayerAddress != "0xRelayer" || status.TokenAddress != "0xToken" {
		t.Errorf("expected configuration placeholders, got %+v", status)
	}
}
