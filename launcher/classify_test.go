package launcher

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

// revertError mimics the JSON-RPC error returned for a reverted call.
type revertError struct {
	msg  string
	data any
}

func (e *revertError) Error() string  { return e.msg }
func (e *revertError) ErrorData() any { return e.data }

func TestClassify(t *testing.T) {
	t.Parallel()

	alreadyClaimed := proposal.FaucetMinterABI.Errors["AlreadyClaimed"].ID

	tests := []struct {
		name         string
		give         error
		wantCategory Category
		wantMessage  string
	}{
		{
			name:         "user rejected",
			give:         &StageError{Stage: StageSubmit, Err: errors.New("User rejected the request.")},
			wantCategory: CategoryRejected,
			wantMessage:  MsgRejected,
		},
		{
			name:         "insufficient funds",
			give:         &StageError{Stage: StageSubmit, Err: errors.New("insufficient funds for gas * price + value")},
			wantCategory: CategoryInsufficientFunds,
			wantMessage:  MsgInsufficientFunds,
		},
		{
			name: "faucet error by selector",
			give: &StageError{Stage: StageEstimate, Err: fmt.Errorf("failed to estimate gas: %w", &revertError{
				msg:  "execution reverted",
				data: hexutil.Encode(alreadyClaimed[:4]),
			})},
			wantCategory: CategoryFaucet,
			wantMessage:  "You have already claimed your tokens.",
		},
		{
			name:         "faucet error by name",
			give:         errors.New("execution reverted: FaucetPaused()"),
			wantCategory: CategoryFaucet,
			wantMessage:  "The faucet is temporarily unavailable.",
		},
		{
			name:         "faucet cap",
			give:         errors.New("reverted with custom error GlobalCapExceeded"),
			wantCategory: CategoryFaucet,
			wantMessage:  "The faucet has no tokens remaining.",
		},
		{
			name:         "estimation keeps the detail",
			give:         &StageError{Stage: StageEstimate, Err: errors.New("execution reverted")},
			wantCategory: CategoryEstimation,
			wantMessage:  "Gas estimation failed: execution reverted",
		},
		{
			name:         "encoding",
			give:         &StageError{Stage: StageEncode, Err: errors.New("bad address")},
			wantCategory: CategoryEncoding,
			wantMessage:  "Failed to encode transaction: bad address",
		},
		{
			name:         "confirm revert",
			give:         &StageError{Stage: StageConfirm, Err: errors.New("tx 0x1 reverted on Base: nope")},
			wantCategory: CategoryReverted,
			wantMessage:  "Transaction reverted: tx 0x1 reverted on Base: nope",
		},
		{
			name:         "confirm timeout is unknown",
			give:         &StageError{Stage: StageConfirm, Err: errors.New("context deadline exceeded")},
			wantCategory: CategoryUnknown,
			wantMessage:  MsgUnknown,
		},
		{
			name:         "unknown",
			give:         errors.New("connection reset by peer"),
			wantCategory: CategoryUnknown,
			wantMessage:  MsgUnknown,
		},
		{
			name:         "revert data that is not a faucet error",
			give:         &revertError{msg: "execution reverted", data: "0xdeadbeef"},
			wantCategory: CategoryUnknown,
			wantMessage:  MsgUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.give)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.ErrorIs(t, got, tt.give)
		})
	}
}

func TestClassify_SeveralFaucetNames(t *testing.T) {
	t.Parallel()

	err := errors.New("execution reverted: GlobalCapExceeded() after AlreadyClaimed()")

	// Map iteration order must not leak into the result.
	for range 50 {
		got := Classify(err)
		require.NotNil(t, got)
		assert.Equal(t, CategoryFaucet, got.Category)
		assert.Equal(t, "The faucet has no tokens remaining.", got.Message)
	}
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Classify(nil))
}

func TestClassify_AlreadyClassified(t *testing.T) {
	t.Parallel()

	f := &Failure{Category: CategoryRejected, Message: MsgRejected}
	assert.Same(t, f, Classify(fmt.Errorf("wrapped: %w", f)))
}

func TestStateKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", StateKind(42).String())

	assert.False(t, StatePending.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateSuccess.Terminal())
}
