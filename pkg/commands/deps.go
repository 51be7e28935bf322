package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/chain/evm/provider"
	"github.com/cogni-dao/proposal-launcher/config"
	"github.com/cogni-dao/proposal-launcher/pkg/logger"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

// ConfigLoaderFunc loads the configuration from path. An empty path loads from the environment.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// ChainLoaderFunc connects to the configured chain and returns it with the sender account.
type ChainLoaderFunc func(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error)

// Deps holds the injectable dependencies of the commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ChainLoader connects to the chain.
	// Default: an RPC chain with failover over the configured endpoints.
	ChainLoader ChainLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ChainLoader == nil {
		d.ChainLoader = defaultChainLoader
	}
}

// defaultChainLoader dials the configured RPCs and signs with the configured sender key.
func defaultChainLoader(ctx context.Context, cfg *config.Config, lggr logger.Logger) (evm.Chain, error) {
	if cfg.Chain.SenderKey == "" {
		return evm.Chain{}, errors.New("no sender key configured")
	}

	timeout := cfg.Chain.ConfirmTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfirmTimeout
	}

	confirm := provider.ConfirmFuncGeth(timeout,
		provider.WithTickInterval(time.Second),
		provider.WithErrorABIs(proposal.FaucetMinterABI),
	)

	chain, err := provider.NewRPCChain(ctx, provider.RPCChainConfig{
		Signer:         provider.TransactorFromRaw(cfg.Chain.SenderKey),
		RPCs:           cfg.Chain.Endpoints(),
		ChainID:        cfg.Chain.ChainID,
		ConfirmFunctor: confirm,
		Logger:         lggr,
	})
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to connect to chain: %w", err)
	}

	return chain, nil
}
