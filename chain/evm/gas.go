package evm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// GasBufferNumerator and GasBufferDenominator scale raw estimates by 1.3.
	GasBufferNumerator   = 13
	GasBufferDenominator = 10
	// MaxGasLimit is the hard ceiling on any submission gas limit.
	MaxGasLimit uint64 = 900_000
)

// ErrMissingSender is returned when a call has no sender account. Estimation without a sender
// simulates the wrong msg.sender and yields meaningless results.
var ErrMissingSender = errors.New("gas estimation requires an explicit sender account")

// GasEstimator is the subset of a chain client used for gas estimation.
type GasEstimator interface {
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
}

// CallSpec describes a contract call. The same spec is used for estimation and submission so both
// see identical calldata.
type CallSpec struct {
	From   common.Address
	To     common.Address
	ABI    abi.ABI
	Method string
	Args   []any
	Value  *big.Int
}

// Calldata packs the method selector and arguments.
func (c CallSpec) Calldata() ([]byte, error) {
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", c.Method, err)
	}

	return data, nil
}

// CallMsg builds the estimation message for c with the given calldata.
func (c CallSpec) CallMsg(data []byte) ethereum.CallMsg {
	to := c.To

	return ethereum.CallMsg{
		From:  c.From,
		To:    &to,
		Value: c.Value,
		Data:  data,
	}
}

// GasPlan is a raw estimate with its safety buffer and ceiling applied.
type GasPlan struct {
	Estimate   uint64
	WithBuffer uint64
	// Capped is the gas limit to submit with.
	Capped uint64
}

// NewGasPlan applies the 1.3x buffer using truncating integer arithmetic and clamps the result to
// MaxGasLimit. WithBuffer saturates at the uint64 maximum.
func NewGasPlan(estimate uint64) GasPlan {
	buffered := new(big.Int).SetUint64(estimate)
	buffered.Mul(buffered, big.NewInt(GasBufferNumerator))
	buffered.Quo(buffered, big.NewInt(GasBufferDenominator))

	withBuffer := uint64(math.MaxUint64)
	if buffered.IsUint64() {
		withBuffer = buffered.Uint64()
	}

	return GasPlan{
		Estimate:   estimate,
		WithBuffer: withBuffer,
		Capped:     min(withBuffer, MaxGasLimit),
	}
}

// EstimateGas estimates spec with its sender and returns the gas plan. Estimation errors are
// returned as is for the caller to surface; there is no retry and no fallback estimate.
func EstimateGas(ctx context.Context, client GasEstimator, spec CallSpec) (GasPlan, error) {
	if spec.From == (common.Address{}) {
		return GasPlan{}, ErrMissingSender
	}

	data, err := spec.Calldata()
	if err != nil {
		return GasPlan{}, err
	}

	return EstimateCalldata(ctx, client, spec, data)
}

// EstimateCalldata is EstimateGas for calldata that was already packed from spec.
func EstimateCalldata(ctx context.Context, client GasEstimator, spec CallSpec, data []byte) (GasPlan, error) {
	if spec.From == (common.Address{}) {
		return GasPlan{}, ErrMissingSender
	}

	est, err := client.EstimateGas(ctx, spec.CallMsg(data))
	if err != nil {
		return GasPlan{}, fmt.Errorf("failed to estimate gas for %s on %s: %w", spec.Method, spec.To.Hex(), err)
	}

	return NewGasPlan(est), nil
}
