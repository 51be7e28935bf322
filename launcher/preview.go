package launcher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/metadata"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

// Preview describes what submitting a deeplink would do. It is computed without any I/O.
type Preview struct {
	Kind      proposal.Kind     `json:"kind"`
	Title     string            `json:"title"`
	ChainID   uint64            `json:"chainId"`
	ChainName string            `json:"chainName"`
	Params    deeplink.Params   `json:"params"`
	Target    common.Address    `json:"target"`
	Method    string            `json:"method"`
	Proposal  bool              `json:"proposal"`
	Actions   []proposal.Action `json:"actions"`
	Metadata  *metadata.Input   `json:"metadata,omitempty"`
	// Faucet is the live faucet state, set by callers with chain access for join deeplinks.
	Faucet *FaucetStatus `json:"faucet,omitempty"`
}

// NewPreview encodes params of def for display.
func NewPreview(def proposal.Definition, params deeplink.Params, opts ...proposal.EncodeOption) (Preview, error) {
	chainID, err := def.ChainID(params)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to read chain id: %w", err)
	}

	actions, err := def.Encode(params, opts...)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to encode %s: %w", def.Kind, err)
	}

	call := def.Call(params, nil, actions, proposal.Timing{})
	p := Preview{
		Kind:      def.Kind,
		Title:     def.Title,
		ChainID:   chainID,
		ChainName: evm.ChainName(chainID),
		Params:    params,
		Target:    call.To,
		Method:    call.Method,
		Proposal:  def.Proposal,
		Actions:   actions,
	}
	if def.NeedsMetadata() {
		in := def.Metadata(params)
		p.Metadata = &in
	}

	return p, nil
}
