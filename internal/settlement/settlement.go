// Package settlement abstracts the value-transfer backend behind a two
// operation contract so the orchestrator never sees chain-specific details.
//
// Two variants exist: a simulated adapter that fabricates successful receipts
// without touching any network, and a live adapter that moves MNEE through
// the ERC-20 contract on Ethereum. The variant is selected once at process
// startup; callers may additionally force-route individual transfers to the
// simulated variant, never the reverse.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
)

// ErrUnavailable marks a backend that is unreachable or missing required
// connection parameters. It degrades the status probe; it is not fatal.
var ErrUnavailable = errors.New("settlement backend unavailable")

// TransferError wraps a backend rejection of a transfer attempt
// (insufficient funds, invalid address, RPC failure, reverted receipt).
type TransferError struct {
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transfer failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("transfer failed: %s", e.Message)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Receipt is the result of a successful transfer.
type Receipt struct {
	// Reference is the backend-assigned identifier: a transaction hash for
	// live transfers, a synthesized placeholder for simulated ones.
	Reference string

	// Mode records which variant produced the receipt.
	Mode models.SettlementMode
}

// Status describes the backend as seen by the status probe.
type Status struct {
	Mode           models.SettlementMode `json:"mode"`
	Network        string                `json:"network,omitempty"`
	ChainID        int64                 `json:"chain_id,omitempty"`
	RelayerAddress string                `json:"relayer_address,omitempty"`
	RelayerETH     string                `json:"relayer_eth,omitempty"`
	RelayerMNEE    string                `json:"relayer_mnee,omitempty"`
	TokenAddress   string                `json:"token_address,omitempty"`
	TokenDecimals  uint8                 `json:"token_decimals,omitempty"`
}

// Adapter is the capability set every settlement variant implements.
type Adapter interface {
	// Status reports the relayer identity and balances. The live variant
	// contacts the network; failures return ErrUnavailable-wrapped errors.
	Status(ctx context.Context) (*Status, error)

	// Transfer moves the given amount to the destination address and
	// blocks until the backend's confirmation threshold is reached.
	// Failures are *TransferError.
	Transfer(ctx context.Context, to string, amount decimal.Decimal) (*Receipt, error)
}
