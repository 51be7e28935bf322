package provider

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
)

var (
	// SimChainID is the chain id of every simulated chain.
	SimChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is the balance of the sender account, 1,000,000 Ether.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

// SimChainConfig configures NewSimChain.
type SimChainConfig struct {
	// Optional: Unfunded leaves the sender without a balance so submissions fail with
	// insufficient funds.
	Unfunded bool
	// Optional: Alloc adds accounts to the genesis state, e.g. contract code at a fixed address.
	Alloc types.GenesisAlloc
	// Optional: BlockTime mines a block at every interval. By default blocks are only mined by
	// Commit and by the chain's Confirm function.
	BlockTime time.Duration
	// Optional: ErrorABIs name reverts by the custom errors they declare.
	ErrorABIs []abi.ABI
}

// NewSimChain returns an evm.Chain backed by go-ethereum's in memory simulated backend and the
// SimClient behind it. The sender account is generated and prefunded.
func NewSimChain(t *testing.T, cfg SimChainConfig) (evm.Chain, *SimClient) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate sender key")

	sender, err := bind.NewKeyedTransactorWithChainID(key, SimChainID)
	require.NoError(t, err)

	genesis := types.GenesisAlloc{}
	for addr, acc := range cfg.Alloc {
		genesis[addr] = acc
	}
	if !cfg.Unfunded {
		genesis[sender.From] = types.Account{Balance: prefundAmountWei}
	}

	backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50_000_000))
	backend.Commit()
	t.Cleanup(func() { _ = backend.Close() })

	if cfg.BlockTime > 0 {
		startAutoMine(t, backend, cfg.BlockTime)
	}

	client := NewSimClient(t, backend)
	name := evm.ChainName(SimChainID.Uint64())

	return evm.Chain{
		ChainID: SimChainID.Uint64(),
		Client:  client,
		Sender:  sender,
		Confirm: func(tx *types.Transaction) (uint64, error) {
			if tx == nil {
				return 0, fmt.Errorf("tx was nil, nothing to confirm on %s", name)
			}

			// Mine the transaction.
			client.Commit()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			receipt, err := bind.WaitMined(ctx, client, tx)
			if err != nil {
				return 0, fmt.Errorf("tx %s failed to confirm on %s: %w", tx.Hash().Hex(), name, err)
			}

			return checkReceipt(ctx, client, sender.From, tx, receipt, name, cfg.ErrorABIs)
		},
	}, client
}

// startAutoMine commits a block every blockTime until the test is done.
func startAutoMine(t *testing.T, backend *simulated.Backend, blockTime time.Duration) {
	t.Helper()

	ctx := t.Context()
	ticker := time.NewTicker(blockTime)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				backend.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()
}
