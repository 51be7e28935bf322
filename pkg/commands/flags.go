package commands

import (
	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// faucetVariantFlag adds the --faucet-variant flag.
// Retrieve the value with faucetVariant(cmd).
func faucetVariantFlag(cmd *cobra.Command) {
	cmd.Flags().String("faucet-variant", "full", `Faucet enablement grants: "full" or "mint-only"`)
}

// faucetVariant parses the --faucet-variant flag into encode options.
func faucetVariant(cmd *cobra.Command) ([]proposal.EncodeOption, error) {
	v, err := proposal.ParseFaucetVariant(MustString(cmd.Flags().GetString("faucet-variant")))
	if err != nil {
		return nil, err
	}

	return []proposal.EncodeOption{proposal.WithFaucetVariant(v)}, nil
}
