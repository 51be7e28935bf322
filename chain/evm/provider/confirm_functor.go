package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
)

// ConfirmFunctor creates the confirmation function of a chain.
type ConfirmFunctor interface {
	// Generate returns a function that waits for transactions sent by from to be mined.
	Generate(ctx context.Context, chainID uint64, client evm.OnchainClient, from common.Address) (evm.ConfirmFunc, error)
}

// ConfirmFuncGeth returns a ConfirmFunctor that polls the node for the transaction receipt.
func ConfirmFuncGeth(waitMinedTimeout time.Duration, opts ...func(*confirmFuncGeth)) ConfirmFunctor {
	cf := &confirmFuncGeth{
		tickInterval:     1 * time.Second, // the same value we have in bind.WaitMined hardcoded in "go-ethereum"
		waitMinedTimeout: waitMinedTimeout,
	}
	for _, o := range opts {
		o(cf)
	}

	return cf
}

// WithTickInterval sets how often the receipt is polled.
func WithTickInterval(interval time.Duration) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		o.tickInterval = interval
	}
}

// WithErrorABIs names reverts with the custom errors declared in abis.
func WithErrorABIs(abis ...abi.ABI) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		o.errorABIs = append(o.errorABIs, abis...)
	}
}

type confirmFuncGeth struct {
	tickInterval     time.Duration
	waitMinedTimeout time.Duration
	errorABIs        []abi.ABI
}

// Generate returns a function that waits for the receipt and turns a reverted receipt into an
// error carrying the revert reason when the node reports one.
func (g *confirmFuncGeth) Generate(
	ctx context.Context, chainID uint64, client evm.OnchainClient, from common.Address,
) (evm.ConfirmFunc, error) {
	name := evm.ChainName(chainID)

	return func(tx *types.Transaction) (uint64, error) {
		if tx == nil {
			return 0, fmt.Errorf("tx was nil, nothing to confirm on %s", name)
		}

		ctxTimeout, cancel := context.WithTimeout(ctx, g.waitMinedTimeout)
		defer cancel()

		receipt, err := WaitMinedWithInterval(ctxTimeout, g.tickInterval, client, tx.Hash())
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm on %s: %w", tx.Hash().Hex(), name, err)
		}
		if receipt == nil {
			return 0, fmt.Errorf("receipt was nil for tx %s on %s", tx.Hash().Hex(), name)
		}

		return checkReceipt(ctxTimeout, client, from, tx, receipt, name, g.errorABIs)
	}, nil
}

// checkReceipt returns the block number of a successful receipt, or the revert reason of a
// failed one.
func checkReceipt(
	ctx context.Context,
	caller ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
	name string,
	abis []abi.ABI,
) (uint64, error) {
	if receipt.Status == types.ReceiptStatusSuccessful {
		return receipt.BlockNumber.Uint64(), nil
	}

	reason, err := revertReason(ctx, caller, from, tx, receipt, abis)
	if err == nil && reason != "" {
		return 0, fmt.Errorf("tx %s reverted on %s: %s", tx.Hash().Hex(), name, reason)
	}

	return 0, fmt.Errorf("tx %s reverted, could not decode error reason on %s", tx.Hash().Hex(), name)
}

// WaitMinedWithInterval polls for the receipt every tick, which is faster than bind.WaitMined on
// networks with instant blocks.
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}
