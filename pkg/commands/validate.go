package commands

import (
	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
)

// Validate creates the validate command.
func (c *Commands) Validate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <deeplink>",
		Short: "Check a deeplink against its route schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, params, err := parseDeeplink(args[0])
			if err != nil {
				return err
			}

			chainID, err := def.ChainID(params)
			if err != nil {
				return err
			}
			cmd.Printf("Valid %s deeplink for %s\n", def.Kind, evm.ChainName(chainID))

			return nil
		},
	}
}
