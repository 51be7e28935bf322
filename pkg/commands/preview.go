package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/launcher"
)

// Preview creates the preview command. It prints the actions and metadata a deeplink would
// submit as JSON without any network access.
func (c *Commands) Preview() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <deeplink>",
		Short: "Print what submitting a deeplink would send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, params, err := parseDeeplink(args[0])
			if err != nil {
				return err
			}

			opts, err := faucetVariant(cmd)
			if err != nil {
				return err
			}

			p, err := launcher.NewPreview(def, params, opts...)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("unable to marshal preview: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return err
		},
	}
	faucetVariantFlag(cmd)

	return cmd
}
