package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"

	"github.com/cogni-dao/proposal-launcher/pkg/logger"
)

const (
	// Default retry configuration for RPC calls
	RPCDefaultRetryAttempts = 1
	RPCDefaultRetryDelay    = 1000 * time.Millisecond
	RPCDefaultRetryTimeout  = 10 * time.Second

	// Default retry configuration for dialing RPC endpoints
	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 10 * time.Second

	// Default timeout for health checks
	RPCDefaultHealthCheckTimeout = 2 * time.Second
)

// RPC is a named JSON-RPC endpoint.
type RPC struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

// RPCConfig lists the endpoints of one chain. The first RPC is the primary, the rest are backups.
type RPCConfig struct {
	// ChainID is the chain every endpoint must serve. Zero accepts whatever the endpoint reports.
	ChainID uint64
	RPCs    []RPC
}

type RetryConfig struct {
	Attempts     uint
	Delay        time.Duration
	Timeout      time.Duration
	DialAttempts uint
	DialDelay    time.Duration
	DialTimeout  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     RPCDefaultRetryAttempts,
		Delay:        RPCDefaultRetryDelay,
		Timeout:      RPCDefaultRetryTimeout,
		DialAttempts: RPCDefaultDialRetryAttempts,
		DialDelay:    RPCDefaultDialRetryDelay,
		DialTimeout:  RPCDefaultDialTimeout,
	}
}

// WithRetryConfig overrides the default retry configuration.
func WithRetryConfig(cfg RetryConfig) func(*MultiClient) {
	return func(mc *MultiClient) {
		mc.RetryConfig = cfg
	}
}

var _ OnchainClient = (*MultiClient)(nil)

// MultiClient is an OnchainClient that fails over from the primary RPC to its backups. Operations
// a submission depends on go through retryWithBackups; everything else uses the primary directly.
type MultiClient struct {
	*ethclient.Client
	Backups     []*ethclient.Client
	RetryConfig RetryConfig

	lggr      logger.Logger
	chainID   uint64
	chainName string
	mu        sync.RWMutex
}

// NewMultiClient dials every configured RPC, dropping the ones that fail to dial, fail the health
// check or serve a different chain. At least one endpoint must survive.
func NewMultiClient(lggr logger.Logger, cfg RPCConfig, opts ...func(client *MultiClient)) (*MultiClient, error) {
	if len(cfg.RPCs) == 0 {
		return nil, errors.New("no RPCs provided, need at least one")
	}

	mc := MultiClient{
		lggr:        lggr.Named("multiclient"),
		chainID:     cfg.ChainID,
		chainName:   ChainName(cfg.ChainID),
		RetryConfig: defaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&mc)
	}

	clients := make([]*ethclient.Client, 0, len(cfg.RPCs))
	for i, r := range cfg.RPCs {
		client, err := mc.dialWithRetry(r)
		if err != nil {
			mc.lggr.Warnf("failed to dial client %d for RPC '%s' - %s, trying with the next one: %v", i, r.Name, mc.chainName, err)

			continue
		}
		if err := mc.rpcHealthCheck(context.Background(), client); err != nil {
			mc.lggr.Warnf("health check failed for client %d for RPC '%s' - %s, trying with the next one: %v", i, r.Name, mc.chainName, err)
			client.Close()

			continue
		}
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		return nil, errors.New("no valid RPC clients created")
	}

	mc.Client = clients[0]
	mc.Backups = clients[1:]

	return &mc, nil
}

// rpcHealthCheck checks that the endpoint answers eth_blockNumber and serves the configured chain.
func (mc *MultiClient) rpcHealthCheck(ctx context.Context, client *ethclient.Client) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, RPCDefaultHealthCheckTimeout)
	defer cancel()

	if _, err := client.BlockNumber(timeoutCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if mc.chainID == 0 {
		return nil
	}

	id, err := client.ChainID(timeoutCtx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if !id.IsUint64() || !IsCorrectChain(id.Uint64(), mc.chainID) {
		return fmt.Errorf("endpoint serves chain %s, want %d", id, mc.chainID)
	}

	return nil
}

func (mc *MultiClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return mc.retryWithBackups(ctx, "SendTransaction", func(ct context.Context, client *ethclient.Client) error {
		return client.SendTransaction(ct, tx)
	})
}

func (mc *MultiClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return withBackups(ctx, mc, "CallContract", func(ct context.Context, client *ethclient.Client) ([]byte, error) {
		return client.CallContract(ct, msg, blockNumber)
	})
}

func (mc *MultiClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return withBackups(ctx, mc, "CodeAt", func(ct context.Context, client *ethclient.Client) ([]byte, error) {
		return client.CodeAt(ct, account, blockNumber)
	})
}

func (mc *MultiClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return withBackups(ctx, mc, "HeaderByNumber", func(ct context.Context, client *ethclient.Client) (*types.Header, error) {
		return client.HeaderByNumber(ct, number)
	})
}

func (mc *MultiClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return withBackups(ctx, mc, "SuggestGasPrice", func(ct context.Context, client *ethclient.Client) (*big.Int, error) {
		return client.SuggestGasPrice(ct)
	})
}

func (mc *MultiClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return withBackups(ctx, mc, "SuggestGasTipCap", func(ct context.Context, client *ethclient.Client) (*big.Int, error) {
		return client.SuggestGasTipCap(ct)
	})
}

func (mc *MultiClient) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return withBackups(ctx, mc, "PendingCodeAt", func(ct context.Context, client *ethclient.Client) ([]byte, error) {
		return client.PendingCodeAt(ct, account)
	})
}

func (mc *MultiClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return withBackups(ctx, mc, "PendingNonceAt", func(ct context.Context, client *ethclient.Client) (uint64, error) {
		return client.PendingNonceAt(ct, account)
	})
}

func (mc *MultiClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return withBackups(ctx, mc, "EstimateGas", func(ct context.Context, client *ethclient.Client) (uint64, error) {
		return client.EstimateGas(ct, call)
	})
}

func (mc *MultiClient) ChainID(ctx context.Context) (*big.Int, error) {
	return withBackups(ctx, mc, "ChainID", func(ct context.Context, client *ethclient.Client) (*big.Int, error) {
		return client.ChainID(ct)
	})
}

// WaitMined waits for a transaction to be mined on any of the clients and returns the receipt.
// Note: retryConfig timeout settings are not used for this operation, a timeout can be set in the context.
func (mc *MultiClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	mc.lggr.Debugf("Waiting for tx %s to be mined for chain %s", tx.Hash().Hex(), mc.chainName)
	resultCh := make(chan *types.Receipt)
	doneCh := make(chan struct{})

	waitMined := func(client *ethclient.Client) {
		receipt, err := bind.WaitMined(ctx, client, tx)
		if err != nil {
			mc.lggr.Warnf("WaitMined error %v with chain %s", err, mc.chainName)
			return
		}
		select {
		case resultCh <- receipt:
		case <-doneCh:
		}
	}

	for _, client := range mc.clients() {
		go waitMined(client)
	}

	select {
	case receipt := <-resultCh:
		close(doneCh)
		mc.lggr.Debugf("Tx %s mined with chain %s", tx.Hash().Hex(), mc.chainName)

		return receipt, nil
	case <-ctx.Done():
		close(doneCh)

		return nil, ctx.Err()
	}
}

// withBackups is retryWithBackups for operations that return a value.
func withBackups[T any](
	ctx context.Context, mc *MultiClient, opName string, op func(context.Context, *ethclient.Client) (T, error),
) (T, error) {
	var result T
	err := mc.retryWithBackups(ctx, opName, func(ct context.Context, client *ethclient.Client) error {
		var err error
		result, err = op(ct, client)

		return err
	})

	return result, err
}

func (mc *MultiClient) retryWithBackups(ctx context.Context, opName string, op func(context.Context, *ethclient.Client) error) error {
	var err error
	traceID := uuid.New()

	for rpcIndex, client := range mc.clients() {
		retryCount := 0
		err2 := retry.Do(func() error {
			timeoutCtx, cancel := ensureTimeout(ctx, mc.RetryConfig.Timeout)
			defer cancel()

			err = op(timeoutCtx, client)
			if err != nil {
				mc.lggr.Warnf("traceID %q: chain %q: op: %q: client index %d: failed execution - retryable error '%s'", traceID.String(), mc.chainName, opName, rpcIndex, maybeDataErr(err))
				return err
			}

			mc.reorderRPCs(rpcIndex)

			return nil
		},
			retry.Context(ctx),
			retry.Attempts(mc.RetryConfig.Attempts),
			retry.Delay(mc.RetryConfig.Delay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(uint, error) { retryCount++ }),
		)
		if err2 == nil {
			if retryCount > 0 {
				mc.lggr.Infof("traceID %q: chain %q: op: %q: client index %d: successfully executed after %d retry", traceID.String(), mc.chainName, opName, rpcIndex, retryCount)
			}

			return nil
		}
		if ctx.Err() != nil {
			break
		}
		mc.lggr.Infof("traceID %q: chain %q: op: %q: client index %d: failed, trying next client", traceID.String(), mc.chainName, opName, rpcIndex)
	}

	return errors.Join(err, fmt.Errorf("all backup clients failed for chain %q", mc.chainName))
}

func (mc *MultiClient) dialWithRetry(r RPC) (*ethclient.Client, error) {
	if r.URL == "" {
		return nil, fmt.Errorf("RPC %q has no url", r.Name)
	}

	traceID := uuid.New()
	var client *ethclient.Client
	retryCount := 0
	err := retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), mc.RetryConfig.DialTimeout)
		defer cancel()

		var err error
		mc.lggr.Debugf("traceID %q: chain %q: rpc: %q: dialing endpoint", traceID.String(), mc.chainName, r.Name)
		client, err = ethclient.DialContext(ctx, r.URL)
		if err != nil {
			mc.lggr.Warnf("traceID %q: chain %q: rpc: %q: dialing failed - retryable error: %v", traceID.String(), mc.chainName, r.Name, err)
			return err
		}

		return nil
	},
		retry.Attempts(mc.RetryConfig.DialAttempts),
		retry.Delay(mc.RetryConfig.DialDelay),
		retry.OnRetry(func(uint, error) { retryCount++ }),
	)
	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("failed to dial RPC %s for chain %s after retries", r.Name, mc.chainName))
	}
	if retryCount > 0 {
		mc.lggr.Infof("traceID %q: chain %q: rpc: %q: successfully dialed after %d retries", traceID.String(), mc.chainName, r.Name, retryCount)
	}

	return client, nil
}

// ensureTimeout checks if the parent context has a deadline.
// If it does, it returns a new cancelable context using the parent's deadline.
// If it doesn't, it creates a new context with the specified timeout.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := parent.Deadline(); hasDeadline {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, timeout)
}

// reorderRPCs promotes the backup at rpcIndex to primary after it served a call. The backups that
// failed before it and the old primary move to the end of the list.
func (mc *MultiClient) reorderRPCs(rpcIndex int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if rpcIndex < 1 || rpcIndex > len(mc.Backups) {
		return
	}

	promoted := rpcIndex - 1
	reordered := make([]*ethclient.Client, 0, len(mc.Backups))
	reordered = append(reordered, mc.Backups[promoted+1:]...)
	reordered = append(reordered, mc.Backups[:promoted]...)
	reordered = append(reordered, mc.Client)

	mc.Client = mc.Backups[promoted]
	mc.Backups = reordered
}

func (mc *MultiClient) clients() []*ethclient.Client {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return append([]*ethclient.Client{mc.Client}, mc.Backups...)
}

// maybeDataErr appends the revert data of a JSON-RPC error to its message.
func maybeDataErr(err error) error {
	var d rpc.DataError
	if errors.As(err, &d) {
		return fmt.Errorf("%s: %v", d.Error(), d.ErrorData())
	}

	return err
}
