package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
)

// ConfirmFunc is a function that takes a transaction, waits for the transaction to be confirmed,
// and returns the block number and an error.
type ConfirmFunc func(tx *types.Transaction) (uint64, error)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	ChainID(ctx context.Context) (*big.Int, error)
}

// Chain is the chain a wallet is connected to: the client, the account that signs and the
// confirmation strategy.
type Chain struct {
	// ChainID is the active chain of the wallet.
	ChainID uint64

	Client OnchainClient
	// Sender signs and pays for submissions. Its From address is always passed to gas estimation.
	Sender *bind.TransactOpts
	// Confirm is optional. When nil a submission counts as accepted once the node takes it.
	Confirm ConfirmFunc
}

// Name returns the display name of the chain.
func (c Chain) Name() string {
	return ChainName(c.ChainID)
}

// String returns chain name and id "<name> (<id>)".
func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.Name(), c.ChainID)
}

// Ready reports whether the chain has a client and a sender account.
func (c Chain) Ready() bool {
	return c.Client != nil && c.Sender != nil && c.Sender.Signer != nil
}
