package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/ipfs"
	"github.com/cogni-dao/proposal-launcher/server"
)

// Serve creates the serve command. It runs the HTTP server until the command context is done.
func (c *Commands) Serve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve deeplink previews and the metadata pinning API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encodeOpts, err := faucetVariant(cmd)
			if err != nil {
				return err
			}

			cfg, lggr, err := c.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = lggr.Sync() }()

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			opts := []server.Option{
				server.WithLogger(lggr),
				server.WithRegistry(registry),
				server.WithAppHost(cfg.Server.AppHost),
				server.WithEncodeOptions(encodeOpts...),
			}
			if cfg.IPFS.PinataJWT != "" {
				var pinOpts []ipfs.PinataOption
				if cfg.IPFS.PinataEndpoint != "" {
					pinOpts = append(pinOpts, ipfs.WithEndpoint(cfg.IPFS.PinataEndpoint))
				}
				opts = append(opts, server.WithPinner(ipfs.NewPinataClient(cfg.IPFS.PinataJWT, pinOpts...)))
			} else {
				lggr.Warn("No Pinata JWT configured, metadata uploads will fail")
			}

			// Chain access is optional: it only adds live faucet state to join previews.
			if len(cfg.Chain.Endpoints()) > 0 && cfg.Chain.SenderKey != "" {
				chain, cerr := c.deps.ChainLoader(cmd.Context(), cfg, lggr)
				if cerr != nil {
					lggr.Warnw("Serving without chain access", "err", cerr)
				} else {
					opts = append(opts, server.WithChain(chain))
				}
			}

			return server.New(opts...).ListenAndServe(cmd.Context(), cfg.Server.ListenAddress)
		},
	}
	faucetVariantFlag(cmd)

	return cmd
}
