package proposal

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CogniSignalABIJSON is the signalling contract interface.
const CogniSignalABIJSON = `[
  {
    "type": "function",
    "name": "signal",
    "inputs": [
      {"name": "vcs", "type": "string", "internalType": "string"},
      {"name": "repoUrl", "type": "string", "internalType": "string"},
      {"name": "action", "type": "string", "internalType": "string"},
      {"name": "target", "type": "string", "internalType": "string"},
      {"name": "resource", "type": "string", "internalType": "string"},
      {"name": "extra", "type": "bytes", "internalType": "bytes"}
    ],
    "outputs": [],
    "stateMutability": "nonpayable"
  }
]`

// TokenVotingABIJSON is the subset of the token voting plugin used to create proposals.
const TokenVotingABIJSON = `[
  {
    "type": "function",
    "name": "createProposal",
    "inputs": [
      {"name": "_metadata", "type": "bytes", "internalType": "bytes"},
      {
        "name": "_actions",
        "type": "tuple[]",
        "internalType": "struct Action[]",
        "components": [
          {"name": "to", "type": "address", "internalType": "address"},
          {"name": "value", "type": "uint256", "internalType": "uint256"},
          {"name": "data", "type": "bytes", "internalType": "bytes"}
        ]
      },
      {"name": "_allowFailureMap", "type": "uint256", "internalType": "uint256"},
      {"name": "_startDate", "type": "uint64", "internalType": "uint64"},
      {"name": "_endDate", "type": "uint64", "internalType": "uint64"},
      {"name": "_voteOption", "type": "uint8", "internalType": "enum IMajorityVoting.VoteOption"},
      {"name": "_tryEarlyExecution", "type": "bool", "internalType": "bool"}
    ],
    "outputs": [
      {"name": "proposalId", "type": "uint256", "internalType": "uint256"}
    ],
    "stateMutability": "nonpayable"
  }
]`

// PermissionManagerABIJSON is the DAO permission manager grant function.
const PermissionManagerABIJSON = `[
  {
    "type": "function",
    "name": "grant",
    "inputs": [
      {"name": "where", "type": "address", "internalType": "address"},
      {"name": "who", "type": "address", "internalType": "address"},
      {"name": "permissionId", "type": "bytes32", "internalType": "bytes32"}
    ],
    "outputs": [],
    "stateMutability": "nonpayable"
  }
]`

// FaucetMinterABIJSON is the faucet used by the join route.
const FaucetMinterABIJSON = `[
  {"type": "function", "name": "claim", "inputs": [], "outputs": [], "stateMutability": "nonpayable"},
  {
    "type": "function",
    "name": "hasClaimed",
    "inputs": [{"name": "account", "type": "address", "internalType": "address"}],
    "outputs": [{"name": "", "type": "bool", "internalType": "bool"}],
    "stateMutability": "view"
  },
  {
    "type": "function",
    "name": "remainingTokens",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256", "internalType": "uint256"}],
    "stateMutability": "view"
  },
  {"type": "error", "name": "AlreadyClaimed", "inputs": []},
  {"type": "error", "name": "FaucetPaused", "inputs": []},
  {"type": "error", "name": "GlobalCapExceeded", "inputs": []}
]`

var (
	CogniSignalABI       = mustParseABI(CogniSignalABIJSON)
	TokenVotingABI       = mustParseABI(TokenVotingABIJSON)
	PermissionManagerABI = mustParseABI(PermissionManagerABIJSON)
	FaucetMinterABI      = mustParseABI(FaucetMinterABIJSON)
)

// Permission identifiers granted by faucet enablement proposals. These match the constants of
// the deployed contracts.
var (
	// MintPermissionID is keccak256("MINT_PERMISSION").
	MintPermissionID = common.HexToHash("0xb737b436e6cc542520cb79ec04245c720c38eebfa56d9e2d99b043979db20e4c")
	// ConfigPermissionID is keccak256("CONFIG_PERMISSION").
	ConfigPermissionID = common.HexToHash("0x49e4aa25ce7d4eb5f024f9f6ebef20f963732b9e73790c8b2f196e01e90e8eb2")
	// PausePermissionID is keccak256("PAUSE_PERMISSION").
	PausePermissionID = common.HexToHash("0x595f29b9b81abb2cfafd1caa277c849a6317ded4aa7672cd5e076bacaf78ba3e")
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}

	return parsed
}
