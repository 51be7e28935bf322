package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// ContractCaller is the subset of a client needed to replay a reverted transaction.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// revertReason replays a reverted transaction at its block and decodes why it reverted. Custom
// errors declared in abis are reported by signature.
func revertReason(
	ctx context.Context,
	caller ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
	abis []abi.ABI,
) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	_, err := caller.CallContract(ctx, call, receipt.BlockNumber)
	if err == nil {
		return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
	}

	data, derr := revertData(err)
	if derr != nil {
		// The replay error is the best reason we have.
		return err.Error(), nil //nolint:nilerr
	}

	return DecodeRevert(data, abis...), nil
}

// revertData extracts the revert data carried by a JSON-RPC error.
func revertData(err error) ([]byte, error) {
	if err == nil {
		return nil, errors.New("cannot parse nil error")
	}

	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil, fmt.Errorf("error carries no revert data: %w", err)
	}

	switch d := de.ErrorData().(type) {
	case []byte:
		return d, nil
	case string:
		if d == "" {
			if strings.Contains(de.Error(), "missing trie node") {
				return nil, errors.New("missing trie node, likely due to not using an archive node")
			}

			return nil, errors.New("empty revert data")
		}

		b, derr := hexutil.Decode(d)
		if derr != nil {
			return nil, fmt.Errorf("invalid revert data %q: %w", d, derr)
		}

		return b, nil
	default:
		return nil, fmt.Errorf("unexpected revert data type %T", d)
	}
}

// DecodeRevert returns a readable reason for revert data: the message of a require or panic, the
// signature of a custom error declared in abis, or else the data as hex.
func DecodeRevert(data []byte, abis ...abi.ABI) string {
	if msg, err := abi.UnpackRevert(data); err == nil {
		return msg
	}

	if len(data) >= 4 {
		for _, a := range abis {
			for _, e := range a.Errors {
				if bytes.Equal(e.ID[:4], data[:4]) {
					return e.Sig
				}
			}
		}
	}

	return hexutil.Encode(data)
}
