package evm

import (
	"fmt"
	"strconv"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// displayNames are the chains the launcher shows with a friendly name.
var displayNames = map[uint64]string{
	1:        "Ethereum Mainnet",
	11155111: "Sepolia Testnet",
	137:      "Polygon",
	8453:     "Base",
}

// IsCorrectChain reports whether the wallet's active chain is the chain a deeplink requires.
func IsCorrectChain(active, required uint64) bool {
	return active == required
}

// ChainName returns a display name for an EVM chain id. Unknown ids fall back to the chain selectors
// registry and then to "Chain <id>".
func ChainName(id uint64) string {
	if name, ok := displayNames[id]; ok {
		return name
	}

	details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(id, 10), chainsel.FamilyEVM)
	if err == nil && details.ChainName != "" {
		return details.ChainName
	}

	return fmt.Sprintf("Chain %d", id)
}
