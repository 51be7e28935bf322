// Package proposal holds the closed set of deeplink proposal kinds and the call encoding for each.
//
// A single dispatch table, [Definitions], keys every kind to its route, required parameter
// schema, metadata template and call encoding. Nothing in this package performs I/O.
package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/metadata"
)

// Kind identifies a proposal template.
type Kind string

const (
	KindMergeChange   Kind = "merge-change"
	KindJoin          Kind = "join"
	KindProposeFaucet Kind = "propose-faucet"
)

// Route returns the deeplink path of the kind.
func (k Kind) Route() string {
	return "/" + string(k)
}

// EncodeOptions tune encoding for kinds that have variants.
type EncodeOptions struct {
	FaucetVariant FaucetVariant
}

// EncodeOption configures EncodeOptions.
type EncodeOption func(*EncodeOptions)

// WithFaucetVariant selects the faucet enablement variant.
func WithFaucetVariant(v FaucetVariant) EncodeOption {
	return func(o *EncodeOptions) {
		o.FaucetVariant = v
	}
}

// Definition describes how one kind is validated and encoded.
type Definition struct {
	Kind   Kind
	Title  string
	Schema deeplink.Schema
	// Proposal kinds wrap their actions in createProposal on the voting plugin. Other kinds send
	// their single action directly.
	Proposal bool
	// Metadata builds the metadata input. Nil means the kind is submitted with empty metadata.
	Metadata func(deeplink.Params) metadata.Input

	encode func(deeplink.Params, EncodeOptions) ([]Action, error)
	call   func(p deeplink.Params, meta []byte, actions []Action, timing Timing) Call
}

// NeedsMetadata reports whether submissions of this kind pin a metadata document.
func (d Definition) NeedsMetadata() bool {
	return d.Metadata != nil
}

// ChainID returns the chain the params require.
func (d Definition) ChainID(p deeplink.Params) (uint64, error) {
	return p.Uint64("chainId")
}

// Validate validates a raw query against the kind's schema.
func (d Definition) Validate(raw map[string][]string, predicates ...deeplink.Predicate) (deeplink.Params, bool) {
	return deeplink.Validate(raw, d.Schema, predicates...)
}

// Encode builds the ordered action list for p.
func (d Definition) Encode(p deeplink.Params, opts ...EncodeOption) ([]Action, error) {
	var o EncodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return d.encode(p, o)
}

// Call builds the transaction call that carries actions. meta is the decoded metadata bytes and is
// ignored by kinds that are not proposals.
func (d Definition) Call(p deeplink.Params, meta []byte, actions []Action, timing Timing) Call {
	return d.call(p, meta, actions, timing)
}

// Definitions is the dispatch table of every supported kind.
var Definitions = map[Kind]Definition{
	KindMergeChange: {
		Kind:     KindMergeChange,
		Title:    "Create Merge Proposal",
		Schema:   deeplink.MergeChangeSchema,
		Proposal: true,
		Metadata: MergeMetadata,
		encode: func(p deeplink.Params, _ EncodeOptions) ([]Action, error) {
			return EncodeSignal(p)
		},
		call: proposalCall,
	},
	KindProposeFaucet: {
		Kind:     KindProposeFaucet,
		Title:    "Enable Token Faucet",
		Schema:   deeplink.ProposeFaucetSchema,
		Proposal: true,
		encode: func(p deeplink.Params, o EncodeOptions) ([]Action, error) {
			return EncodeFaucetGrants(p, o.FaucetVariant)
		},
		call: proposalCall,
	},
	KindJoin: {
		Kind:   KindJoin,
		Title:  "Join the DAO",
		Schema: deeplink.JoinSchema,
		encode: func(p deeplink.Params, _ EncodeOptions) ([]Action, error) {
			return EncodeClaim(p)
		},
		call: func(p deeplink.Params, _ []byte, _ []Action, _ Timing) Call {
			return Call{To: p.Address("faucet"), ABI: FaucetMinterABI, Method: "claim"}
		},
	},
}

func proposalCall(p deeplink.Params, meta []byte, actions []Action, timing Timing) Call {
	return CreateProposalCall(p.Address("plugin"), meta, actions, timing)
}

// Lookup returns the definition of kind.
func Lookup(kind Kind) (Definition, error) {
	def, ok := Definitions[kind]
	if !ok {
		return Definition{}, fmt.Errorf("unknown proposal kind %q", kind)
	}

	return def, nil
}

// LookupRoute returns the definition served at path, e.g. "/join".
func LookupRoute(path string) (Definition, bool) {
	def, ok := Definitions[Kind(strings.TrimPrefix(path, "/"))]
	return def, ok
}

// Encode builds the actions for kind from validated params.
func Encode(kind Kind, p deeplink.Params, opts ...EncodeOption) ([]Action, error) {
	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	return def.Encode(p, opts...)
}

// Timing is the voting window of a proposal in unix seconds.
type Timing struct {
	Start uint64
	End   uint64
}

const (
	// StartDelay keeps the start date in the future; a zero start date makes estimation fail.
	StartDelay = 60 * time.Second
	// VotingPeriod is the time from creation to the end of the vote.
	VotingPeriod = 3 * 24 * time.Hour
)

// NewTiming returns the voting window for a proposal created at now: the start is one minute
// after now and the end is three days after now.
func NewTiming(now time.Time) Timing {
	n := now.Unix()

	return Timing{
		Start: uint64(n + int64(StartDelay/time.Second)),
		End:   uint64(n + int64(VotingPeriod/time.Second)),
	}
}
