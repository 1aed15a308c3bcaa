package settlement

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/mneepulse/relay/internal/models"
	"github.com/mneepulse/relay/internal/money"
)

// Ensure EthereumAdapter implements Adapter
var _ Adapter = (*EthereumAdapter)(nil)

// Subset of the ERC-20 interface the relayer needs.
const erc20ABI = `[
  {"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const nativeDecimals = 18

// EthereumAdapter executes live MNEE transfers through the ERC-20 contract.
// The connection is established lazily on first use so a misconfigured
// deployment still starts and reports degraded status instead of crashing.
// The token's decimal precision is fetched once and cached for the process
// lifetime.
type EthereumAdapter struct {
	rpcURL        string
	relayerConfig string
	privateKeyHex string
	tokenAddress  string

	mu       sync.Mutex
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	relayer  common.Address
	chainID  int64
	decimals uint8
	hasDec   bool
}

// NewEthereum creates a live adapter from connection parameters. Parameters
// are validated on first use, not here, so the enumeration of missing keys
// stays visible through the status endpoint.
func NewEthereum(rpcURL, relayerAddress, privateKeyHex, tokenAddress string) *EthereumAdapter {
	return &EthereumAdapter{
		rpcURL:        rpcURL,
		relayerConfig: relayerAddress,
		privateKeyHex: privateKeyHex,
		tokenAddress:  tokenAddress,
	}
}

// connect dials the RPC endpoint and prepares the signer and bound contract.
// Callers must hold a.mu.
func (a *EthereumAdapter) connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	var missing []string
	if a.rpcURL == "" {
		missing = append(missing, "ETHEREUM_RPC_URL")
	}
	if a.privateKeyHex == "" {
		missing = append(missing, "RELAYER_PRIVATE_KEY")
	}
	if a.tokenAddress == "" {
		missing = append(missing, "MNEE_TOKEN_ADDRESS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing configuration: %s", ErrUnavailable, strings.Join(missing, ", "))
	}
	if !common.IsHexAddress(a.tokenAddress) {
		return fmt.Errorf("%w: invalid token address %q", ErrUnavailable, a.tokenAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(a.privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("%w: parsing relayer private key: %v", ErrUnavailable, err)
	}

	client, err := ethclient.DialContext(ctx, a.rpcURL)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %v", ErrUnavailable, a.rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: fetching chain id: %v", ErrUnavailable, err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: parsing token ABI: %v", ErrUnavailable, err)
	}

	a.client = client
	a.key = key
	a.relayer = crypto.PubkeyToAddress(key.PublicKey)
	a.chainID = chainID.Int64()
	a.contract = bind.NewBoundContract(common.HexToAddress(a.tokenAddress), parsed, client, client, client)
	return nil
}

// tokenDecimals returns the cached decimal precision, fetching it from the
// contract on first call. Callers must hold a.mu.
func (a *EthereumAdapter) tokenDecimals(ctx context.Context) (uint8, error) {
	if a.hasDec {
		return a.decimals, nil
	}

	var out []interface{}
	if err := a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("%w: fetching token decimals: %v", ErrUnavailable, err)
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected decimals type %T", ErrUnavailable, out[0])
	}
	a.decimals = dec
	a.hasDec = true
	return dec, nil
}

// Status connects to the network and reports the relayer identity, the
// native balance covering gas, and the token balance.
func (a *EthereumAdapter) Status(ctx context.Context) (*Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	dec, err := a.tokenDecimals(ctx)
	if err != nil {
		return nil, err
	}

	ethBal, err := a.client.BalanceAt(ctx, a.relayer, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching native balance: %v", ErrUnavailable, err)
	}

	var out []interface{}
	if err := a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", a.relayer); err != nil {
		return nil, fmt.Errorf("%w: fetching token balance: %v", ErrUnavailable, err)
	}
	tokenBal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected balance type %T", ErrUnavailable, out[0])
	}

	return &Status{
		Mode:           models.ModeLive,
		Network:        "ethereum-mainnet",
		ChainID:        a.chainID,
		RelayerAddress: a.relayer.Hex(),
		RelayerETH:     decimal.NewFromBigInt(ethBal, -nativeDecimals).String(),
		RelayerMNEE:    decimal.NewFromBigInt(tokenBal, -int32(dec)).String(),
		TokenAddress:   a.tokenAddress,
		TokenDecimals:  dec,
	}, nil
}

// Transfer converts the amount to token units at the backend's precision,
// submits the ERC-20 transfer, and waits for it to be mined.
func (a *EthereumAdapter) Transfer(ctx context.Context, to string, amount decimal.Decimal) (*Receipt, error) {
	if err := money.Validate(amount); err != nil {
		return nil, &TransferError{Message: err.Error()}
	}
	if !common.IsHexAddress(to) {
		return nil, &TransferError{Message: fmt.Sprintf("invalid Ethereum address: %s", to)}
	}

	a.mu.Lock()
	if err := a.connect(ctx); err != nil {
		a.mu.Unlock()
		return nil, &TransferError{Message: "backend unavailable", Err: err}
	}
	dec, err := a.tokenDecimals(ctx)
	if err != nil {
		a.mu.Unlock()
		return nil, &TransferError{Message: "backend unavailable", Err: err}
	}

	opts, err := bind.NewKeyedTransactorWithChainID(a.key, big.NewInt(a.chainID))
	if err != nil {
		a.mu.Unlock()
		return nil, &TransferError{Message: "building transactor", Err: err}
	}
	opts.Context = ctx

	units := money.ToTokenUnits(amount, dec)
	tx, err := a.contract.Transact(opts, "transfer", common.HexToAddress(to), units)
	a.mu.Unlock()
	if err != nil {
		return nil, &TransferError{Message: "submitting transfer", Err: err}
	}

	// The mutex is released while waiting: mining can take many seconds and
	// the status probe must stay responsive.
	receipt, err := bind.WaitMined(ctx, a.client, tx)
	if err != nil {
		return nil, &TransferError{Message: fmt.Sprintf("waiting for transaction %s", tx.Hash().Hex()), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &TransferError{Message: fmt.Sprintf("transaction %s reverted", tx.Hash().Hex())}
	}

	return &Receipt{
		Reference: tx.Hash().Hex(),
		Mode:      models.ModeLive,
	}, nil
}
