package commands

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/launcher"
	"github.com/cogni-dao/proposal-launcher/metadata"
)

// PushJobName is the Pushgateway job submission metrics are pushed under.
const PushJobName = "proposal_launcher_submit"

// Submit creates the submit command. It submits the deeplink's transaction from the configured
// sender account and prints every state transition.
func (c *Commands) Submit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <deeplink>",
		Short: "Submit the transaction a deeplink describes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, params, err := parseDeeplink(args[0])
			if err != nil {
				return err
			}
			encodeOpts, err := faucetVariant(cmd)
			if err != nil {
				return err
			}

			cfg, lggr, err := c.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = lggr.Sync() }()

			chain, err := c.deps.ChainLoader(cmd.Context(), cfg, lggr)
			if err != nil {
				return err
			}
			if !MustBool(cmd.Flags().GetBool("wait")) {
				chain.Confirm = nil
			}

			registry := prometheus.NewRegistry()
			opts := []launcher.Option{
				launcher.WithLogger(lggr),
				launcher.WithMetrics(launcher.NewMetrics(registry)),
				launcher.WithEncodeOptions(encodeOpts...),
				launcher.WithObserver(func(s launcher.State) {
					cmd.Printf("State: %s\n", s.Kind)
				}),
			}
			if def.NeedsMetadata() {
				if cfg.IPFS.UploadURL == "" {
					return errors.New("no metadata upload URL configured")
				}
				uploader := metadata.NewHTTPUploader(cfg.IPFS.UploadURL, metadata.WithHost(cfg.Server.AppHost))
				composer := metadata.NewComposer(uploader, lggr, metadata.WithMetrics(metadata.NewMetrics(registry)))
				opts = append(opts, launcher.WithComposer(composer))
			}

			o := launcher.New(def, params, chain, opts...)
			err = o.Submit(cmd.Context())
			if gateway := MustString(cmd.Flags().GetString("pushgateway")); gateway != "" {
				if perr := push.New(gateway, PushJobName).Gatherer(registry).PushContext(cmd.Context()); perr != nil {
					lggr.Warnw("Failed to push metrics", "url", gateway, "err", perr)
				}
			}
			if err != nil {
				var f *launcher.Failure
				if errors.As(err, &f) {
					return fmt.Errorf("%s: %w", f.Message, f.Err)
				}

				return err
			}

			s := o.State()
			cmd.Printf("Transaction %s\n", s.TxHash.Hex())
			if s.Block != 0 {
				cmd.Printf("Mined in block %d\n", s.Block)
			}

			return nil
		},
	}
	faucetVariantFlag(cmd)
	cmd.Flags().Bool("wait", true, "Wait for the transaction to be mined")
	cmd.Flags().String("pushgateway", "", "Prometheus Pushgateway URL to push submission metrics to")

	return cmd
}
