package launcher

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

// FaucetStatus is the faucet state a join deeplink shows before claiming.
type FaucetStatus struct {
	HasClaimed bool     `json:"hasClaimed"`
	Remaining  *big.Int `json:"remainingTokens"`
}

// ReadFaucet reads whether account already claimed from faucet and how many tokens remain.
func ReadFaucet(ctx context.Context, caller bind.ContractCaller, faucet, account common.Address) (FaucetStatus, error) {
	contract := bind.NewBoundContract(faucet, proposal.FaucetMinterABI, caller, nil, nil)
	opts := &bind.CallOpts{Context: ctx}

	var claimed []any
	if err := contract.Call(opts, &claimed, "hasClaimed", account); err != nil {
		return FaucetStatus{}, fmt.Errorf("failed to read hasClaimed: %w", err)
	}

	var remaining []any
	if err := contract.Call(opts, &remaining, "remainingTokens"); err != nil {
		return FaucetStatus{}, fmt.Errorf("failed to read remainingTokens: %w", err)
	}

	status := FaucetStatus{}
	if len(claimed) > 0 {
		status.HasClaimed, _ = claimed[0].(bool)
	}
	if len(remaining) > 0 {
		status.Remaining, _ = remaining[0].(*big.Int)
	}

	return status, nil
}
