package evm

import (
	"context"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testABIJSON = `[{"type":"function","name":"ping","stateMutability":"nonpayable",` +
	`"inputs":[{"name":"n","type":"uint256"}],"outputs":[]}]`

// recordingEstimator returns a fixed estimate and records the messages it was asked about.
type recordingEstimator struct {
	gas   uint64
	err   error
	calls []ethereum.CallMsg
}

func (e *recordingEstimator) EstimateGas(_ context.Context, call ethereum.CallMsg) (uint64, error) {
	e.calls = append(e.calls, call)

	return e.gas, e.err
}

func testCallSpec(t *testing.T) CallSpec {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(testABIJSON))
	require.NoError(t, err)

	return CallSpec{
		From:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		ABI:    parsed,
		Method: "ping",
		Args:   []any{big.NewInt(1)},
	}
}

func TestNewGasPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		give           uint64
		wantWithBuffer uint64
		wantCapped     uint64
	}{
		{name: "small", give: 100_000, wantWithBuffer: 130_000, wantCapped: 130_000},
		{name: "truncates", give: 21_001, wantWithBuffer: 27_301, wantCapped: 27_301},
		{name: "at cap", give: 692_307, wantWithBuffer: 899_999, wantCapped: 899_999},
		{name: "over cap", give: 1_000_000, wantWithBuffer: 1_300_000, wantCapped: MaxGasLimit},
		{name: "zero", give: 0, wantWithBuffer: 0, wantCapped: 0},
		{name: "saturates", give: math.MaxUint64, wantWithBuffer: math.MaxUint64, wantCapped: MaxGasLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NewGasPlan(tt.give)
			assert.Equal(t, tt.give, got.Estimate)
			assert.Equal(t, tt.wantWithBuffer, got.WithBuffer)
			assert.Equal(t, tt.wantCapped, got.Capped)
			assert.LessOrEqual(t, got.Capped, MaxGasLimit)
		})
	}
}

func TestEstimateGas(t *testing.T) {
	t.Parallel()

	spec := testCallSpec(t)
	est := &recordingEstimator{gas: 50_000}

	got, err := EstimateGas(t.Context(), est, spec)
	require.NoError(t, err)
	assert.Equal(t, GasPlan{Estimate: 50_000, WithBuffer: 65_000, Capped: 65_000}, got)

	require.Len(t, est.calls, 1)
	assert.Equal(t, spec.From, est.calls[0].From)
	assert.Equal(t, spec.To, *est.calls[0].To)

	want, err := spec.Calldata()
	require.NoError(t, err)
	assert.Equal(t, want, est.calls[0].Data)
}

func TestEstimateGas_MissingSender(t *testing.T) {
	t.Parallel()

	spec := testCallSpec(t)
	spec.From = common.Address{}
	est := &recordingEstimator{gas: 50_000}

	_, err := EstimateGas(t.Context(), est, spec)
	require.ErrorIs(t, err, ErrMissingSender)
	assert.Empty(t, est.calls, "estimator must not be called without a sender")
}

func TestEstimateGas_EstimatorError(t *testing.T) {
	t.Parallel()

	spec := testCallSpec(t)
	est := &recordingEstimator{err: assert.AnError}

	_, err := EstimateGas(t.Context(), est, spec)
	require.ErrorIs(t, err, assert.AnError)
	require.ErrorContains(t, err, "failed to estimate gas for ping")
	assert.Len(t, est.calls, 1, "no retry")
}

func TestEstimateGas_PackError(t *testing.T) {
	t.Parallel()

	spec := testCallSpec(t)
	spec.Args = nil

	_, err := EstimateGas(t.Context(), &recordingEstimator{}, spec)
	require.ErrorContains(t, err, "failed to pack ping")
}
