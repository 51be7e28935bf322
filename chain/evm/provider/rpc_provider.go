package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/pkg/logger"
)

// RPCChainConfig holds the configuration of a chain reached over JSON-RPC.
type RPCChainConfig struct {
	// Required: Signer generates the sender account. Use TransactorFromRaw for a configured key.
	Signer SignerGenerator
	// Required: At least one RPC must be provided to connect to the EVM node.
	RPCs []evm.RPC
	// Optional: ChainID pins the chain the endpoints must serve. When zero the chain reported by
	// the primary endpoint is used as the active chain.
	ChainID uint64
	// Optional: ConfirmFunctor generates the confirmation function. Without it submissions are
	// not waited for.
	ConfirmFunctor ConfirmFunctor
	// Optional: ClientOpts are additional options for the MultiClient.
	ClientOpts []func(client *evm.MultiClient)
	// Optional: Logger defaults to a production zap logger.
	Logger logger.Logger
}

func (c RPCChainConfig) validate() error {
	if c.Signer == nil {
		return errors.New("signer generator is required")
	}
	if len(c.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}

	return nil
}

// NewRPCChain dials the configured RPCs and returns the chain with its sender and confirm function.
func NewRPCChain(ctx context.Context, cfg RPCChainConfig) (evm.Chain, error) {
	if err := cfg.validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("failed to validate chain config: %w", err)
	}

	if cfg.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to create default logger: %w", err)
		}
		cfg.Logger = lggr
	}

	client, err := evm.NewMultiClient(cfg.Logger, evm.RPCConfig{
		ChainID: cfg.ChainID,
		RPCs:    cfg.RPCs,
	}, cfg.ClientOpts...)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to create multi-client: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return evm.Chain{}, fmt.Errorf("chain id %s out of range", chainID)
	}

	sender, err := cfg.Signer.Generate(new(big.Int).Set(chainID))
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to generate sender: %w", err)
	}

	chain := evm.Chain{
		ChainID: chainID.Uint64(),
		Client:  client,
		Sender:  sender,
	}

	if cfg.ConfirmFunctor != nil {
		chain.Confirm, err = cfg.ConfirmFunctor.Generate(ctx, chain.ChainID, client, sender.From)
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to generate confirm function: %w", err)
		}
	}

	return chain, nil
}
