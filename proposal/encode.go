package proposal

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cogni-dao/proposal-launcher/deeplink"
)

// Action is one call a proposal executes if approved. Field names match the Action tuple
// components (to, value, data) so the ABI packer can encode a []Action directly.
type Action struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// actionJSON is the preview encoding of an Action.
type actionJSON struct {
	To    string        `json:"to"`
	Value string        `json:"value"`
	Data  hexutil.Bytes `json:"data"`
}

// MarshalJSON renders the address checksummed, the value in decimal and the data as 0x-prefixed
// hex.
func (a Action) MarshalJSON() ([]byte, error) {
	v := "0"
	if a.Value != nil {
		v = a.Value.String()
	}

	return json.Marshal(actionJSON{To: a.To.Hex(), Value: v, Data: a.Data})
}

// UnmarshalJSON reads the encoding written by MarshalJSON.
func (a *Action) UnmarshalJSON(b []byte) error {
	var aj actionJSON
	if err := json.Unmarshal(b, &aj); err != nil {
		return err
	}

	if !common.IsHexAddress(aj.To) {
		return fmt.Errorf("invalid action address %q", aj.To)
	}

	value := new(big.Int)
	if aj.Value != "" {
		if _, ok := value.SetString(aj.Value, 10); !ok {
			return fmt.Errorf("invalid action value %q", aj.Value)
		}
	}

	*a = Action{To: common.HexToAddress(aj.To), Value: value, Data: aj.Data}

	return nil
}

// FaucetVariant selects how many permission grants a faucet enablement proposal carries.
type FaucetVariant int

const (
	// FaucetFull grants mint to the faucet plus config and pause on the faucet to the DAO.
	FaucetFull FaucetVariant = iota
	// FaucetMintOnly only grants the mint permission to the faucet.
	FaucetMintOnly
)

// ParseFaucetVariant parses the CLI spelling of a variant.
func ParseFaucetVariant(s string) (FaucetVariant, error) {
	switch s {
	case "", "full":
		return FaucetFull, nil
	case "mint-only":
		return FaucetMintOnly, nil
	default:
		return 0, fmt.Errorf("unknown faucet variant %q", s)
	}
}

func (v FaucetVariant) String() string {
	if v == FaucetMintOnly {
		return "mint-only"
	}

	return "full"
}

const (
	// SignalVCS is the version control system literal passed to the signal contract.
	SignalVCS = "github"
)

// DecodeRepoURL undoes URL encoding of a repository URL passed through a query string. Input that
// cannot be decoded is returned unchanged.
func DecodeRepoURL(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}

	return decoded
}

// EncodeSignal builds the single signal action of a merge-change proposal.
func EncodeSignal(p deeplink.Params) ([]Action, error) {
	data, err := CogniSignalABI.Pack("signal",
		SignalVCS,
		DecodeRepoURL(p.Get("repoUrl")),
		p.Get("action"),
		p.Get("target"),
		p.Get("pr"),
		[]byte{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal call: %w", err)
	}

	return []Action{{To: p.Address("signal"), Value: big.NewInt(0), Data: data}}, nil
}

// EncodeFaucetGrants builds the permission grants of a propose-faucet proposal. Every grant is
// addressed to the DAO, which is its own permission manager.
func EncodeFaucetGrants(p deeplink.Params, variant FaucetVariant) ([]Action, error) {
	var (
		dao    = p.Address("dao")
		token  = p.Address("token")
		faucet = p.Address("faucet")
	)

	grants := []struct {
		where, who common.Address
		id         common.Hash
	}{
		{where: token, who: faucet, id: MintPermissionID},
		{where: faucet, who: dao, id: ConfigPermissionID},
		{where: faucet, who: dao, id: PausePermissionID},
	}
	if variant == FaucetMintOnly {
		grants = grants[:1]
	}

	actions := make([]Action, 0, len(grants))
	for _, g := range grants {
		data, err := PermissionManagerABI.Pack("grant", g.where, g.who, [32]byte(g.id))
		if err != nil {
			return nil, fmt.Errorf("failed to encode grant %s: %w", g.id.Hex(), err)
		}
		actions = append(actions, Action{To: dao, Value: big.NewInt(0), Data: data})
	}

	return actions, nil
}

// EncodeClaim builds the faucet claim call of the join route.
func EncodeClaim(p deeplink.Params) ([]Action, error) {
	data, err := FaucetMinterABI.Pack("claim")
	if err != nil {
		return nil, fmt.Errorf("failed to encode claim call: %w", err)
	}

	return []Action{{To: p.Address("faucet"), Value: big.NewInt(0), Data: data}}, nil
}

// VoteOptionNone is the default vote cast by the proposal creator.
const VoteOptionNone uint8 = 0

// Call is a fully encoded contract call: the arguments are bound to the ABI method and packing
// them yields the transaction calldata.
type Call struct {
	To     common.Address
	ABI    abi.ABI
	Method string
	Args   []any
}

// Calldata packs the call.
func (c Call) Calldata() ([]byte, error) {
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", c.Method, err)
	}

	return data, nil
}

// CreateProposalCall wraps actions in a createProposal call on the voting plugin.
func CreateProposalCall(plugin common.Address, metadata []byte, actions []Action, timing Timing) Call {
	if metadata == nil {
		metadata = []byte{}
	}

	return Call{
		To:     plugin,
		ABI:    TokenVotingABI,
		Method: "createProposal",
		Args: []any{
			metadata,
			actions,
			big.NewInt(0), // allowFailureMap
			timing.Start,
			timing.End,
			VoteOptionNone,
			false, // tryEarlyExecution
		},
	}
}
