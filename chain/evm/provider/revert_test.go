package provider

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testErrorsABI declares the custom errors used by the revert tests.
var testErrorsABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(`[
		{"type":"error","name":"AlreadyClaimed","inputs":[]},
		{"type":"error","name":"CapExceeded","inputs":[{"name":"cap","type":"uint256"}]}
	]`))
	if err != nil {
		panic(err)
	}

	return a
}()

// selector returns the 4-byte selector of a custom error in testErrorsABI.
func selector(name string) []byte {
	id := testErrorsABI.Errors[name].ID

	return id[:4]
}

// revertWithMessage returns the revert data of require(false, msg).
func revertWithMessage(t *testing.T, msg string) []byte {
	t.Helper()

	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)

	packed, err := abi.Arguments{{Type: stringType}}.Pack(msg)
	require.NoError(t, err)

	return append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
}

func Test_revertReason(t *testing.T) {
	t.Parallel()

	tx := types.NewTransaction(
		1,                               // nonce
		common.HexToAddress("0xabc123"), // to address
		big.NewInt(0),                   // value
		100_000,                         // gas limit
		big.NewInt(20000000000),         // gas price: 20 Gwei
		[]byte{0x4e, 0x71, 0xd9, 0x2d},  // data: claim()
	)

	tests := []struct {
		name       string
		beforeFunc func(t *testing.T, caller *MockContractCaller)
		wantReason string
		wantErr    string
	}{
		{
			name: "replay does not revert",
			beforeFunc: func(t *testing.T, caller *MockContractCaller) {
				t.Helper()

				caller.EXPECT().CallContract(
					mock.Anything,
					mock.AnythingOfType("ethereum.CallMsg"),
					mock.AnythingOfType("*big.Int"),
				).Return([]byte{}, nil)
			},
			wantErr: "reverted with no reason",
		},
		{
			name: "require message",
			beforeFunc: func(t *testing.T, caller *MockContractCaller) {
				t.Helper()

				caller.EXPECT().CallContract(
					mock.Anything,
					mock.AnythingOfType("ethereum.CallMsg"),
					mock.AnythingOfType("*big.Int"),
				).Return(nil, &rpcError{
					Code:    3,
					Message: "execution reverted: not a member",
					Data:    hexutil.Encode(revertWithMessage(t, "not a member")),
				})
			},
			wantReason: "not a member",
		},
		{
			name: "custom error",
			beforeFunc: func(t *testing.T, caller *MockContractCaller) {
				t.Helper()

				caller.EXPECT().CallContract(
					mock.Anything,
					mock.AnythingOfType("ethereum.CallMsg"),
					mock.AnythingOfType("*big.Int"),
				).Return(nil, &rpcError{
					Code:    3,
					Message: "execution reverted",
					Data:    hexutil.Encode(selector("AlreadyClaimed")),
				})
			},
			wantReason: "AlreadyClaimed()",
		},
		{
			name: "error without data",
			beforeFunc: func(t *testing.T, caller *MockContractCaller) {
				t.Helper()

				caller.EXPECT().CallContract(
					mock.Anything,
					mock.AnythingOfType("ethereum.CallMsg"),
					mock.AnythingOfType("*big.Int"),
				).Return(nil, errors.New("connection reset"))
			},
			wantReason: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := NewMockContractCaller(t)
			tt.beforeFunc(t, caller)

			got, err := revertReason(
				t.Context(), caller, common.HexToAddress("0x123"), tx, &types.Receipt{BlockNumber: big.NewInt(7)},
				[]abi.ABI{testErrorsABI},
			)

			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantReason, got)
			}
		})
	}
}

func Test_revertData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    error
		want    []byte
		wantErr string
	}{
		{
			name: "hex string",
			give: &rpcError{Code: 3, Message: "execution reverted", Data: "0x12345678"},
			want: []byte{0x12, 0x34, 0x56, 0x78},
		},
		{
			name: "raw bytes",
			give: &rpcError{Code: 3, Message: "execution reverted", Data: []byte{0xab}},
			want: []byte{0xab},
		},
		{
			name: "wrapped",
			give: fmt.Errorf("call failed: %w", &rpcError{Code: 3, Data: "0xab"}),
			want: []byte{0xab},
		},
		{
			name:    "nil error",
			give:    nil,
			wantErr: "cannot parse nil error",
		},
		{
			name:    "plain error",
			give:    errors.New("invalid"),
			wantErr: "error carries no revert data",
		},
		{
			name:    "missing trie node",
			give:    &rpcError{Code: -32000, Message: "missing trie node", Data: ""},
			wantErr: "archive node",
		},
		{
			name:    "not hex",
			give:    &rpcError{Code: 3, Data: "oops"},
			wantErr: "invalid revert data",
		},
		{
			name:    "unexpected type",
			give:    &rpcError{Code: 3, Data: 42},
			wantErr: "unexpected revert data type int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := revertData(tt.give)

			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeRevert(t *testing.T) {
	t.Parallel()

	capExceeded := testErrorsABI.Errors["CapExceeded"]
	capArgs, err := capExceeded.Inputs.Pack(big.NewInt(100))
	require.NoError(t, err)

	tests := []struct {
		name     string
		giveData []byte
		giveABIs []abi.ABI
		want     string
	}{
		{
			name:     "require message",
			giveData: revertWithMessage(t, "paused"),
			want:     "paused",
		},
		{
			name:     "custom error with args",
			giveData: append(selector("CapExceeded"), capArgs...),
			giveABIs: []abi.ABI{testErrorsABI},
			want:     "CapExceeded(uint256)",
		},
		{
			name:     "unknown custom error",
			giveData: []byte{0xde, 0xad, 0xbe, 0xef},
			giveABIs: []abi.ABI{testErrorsABI},
			want:     "0xdeadbeef",
		},
		{
			name:     "custom error without abis",
			giveData: selector("AlreadyClaimed"),
			want:     hexutil.Encode(selector("AlreadyClaimed")),
		},
		{
			name:     "short data",
			giveData: []byte{0x01},
			giveABIs: []abi.ABI{testErrorsABI},
			want:     "0x01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, DecodeRevert(tt.giveData, tt.giveABIs...))
		})
	}
}

// rpcError mirrors the JSON-RPC error go-ethereum's rpc package returns.
type rpcError struct {
	Code    int
	Message string
	Data    any
}

func (err *rpcError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("json-rpc error %d", err.Code)
	}

	return err.Message
}

func (err *rpcError) ErrorCode() int {
	return err.Code
}

func (err *rpcError) ErrorData() any {
	return err.Data
}
