package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/money"
)

// Ensure SimulatedAdapter implements Adapter
var _ Adapter = (*SimulatedAdapter)(nil)

// SimulatedAdapter fabricates successful transfers without contacting any
// network. It backs dry-run deployments, the per-request simulation escape
// hatch, and tests.
type SimulatedAdapter struct {
	relayerAddress string
	tokenAddress   string
}

// NewSimulated creates a simulated adapter. The addresses are
// configuration-derived placeholders reported by Status.
func NewSimulated(relayerAddress, tokenAddress string) *SimulatedAdapter {
	return &SimulatedAdapter{
		relayerAddress: relayerAddress,
		tokenAddress:   tokenAddress,
	}
}

// Status reports placeholders without any network call.
func (a *SimulatedAdapter) Status(ctx context.Context) (*Status, error) {
	return &Status{
		Mode:           models.ModeSimulated,
		Network:        "ethereum-mainnet",
		RelayerAddress: a.relayerAddress,
		TokenAddress:   a.tokenAddress,
	}, nil
}

// Transfer always succeeds with a unique synthesized reference. The amount
// still passes validation and the fixed-point conversion path so simulated
// runs exercise the same arithmetic as live ones.
func (a *SimulatedAdapter) Transfer(ctx context.Context, to string, amount decimal.Decimal) (*Receipt, error) {
	if err := money.Validate(amount); err != nil {
		return nil, &TransferError{Message: err.Error()}
	}

	nonce := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return &Receipt{
		Reference: fmt.Sprintf("DEMO-%d-%s", time.Now().UnixMilli(), nonce),
		Mode:      models.ModeSimulated,
	}, nil
}
