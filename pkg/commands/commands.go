// Package commands provides the CLI commands of the launcher.
//
// Use the Commands factory to build the command tree:
//
//	cmds := commands.New(commands.Config{})
//	root := cmds.Root()
//	root.ExecuteContext(ctx)
//
// Dependencies that reach outside the process, configuration and chain access, are injectable
// through [Deps] for testing.
package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/cogni-dao/proposal-launcher/config"
	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/pkg/logger"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

// Config configures the Commands factory.
type Config struct {
	// Logger is shared by all commands. When nil, a logger is built from the loaded configuration.
	Logger logger.Logger

	// Deps overrides production dependencies.
	Deps *Deps
}

// Commands provides a factory for creating CLI commands with shared configuration.
type Commands struct {
	lggr logger.Logger
	deps Deps
}

// New creates a new Commands factory.
func New(cfg Config) *Commands {
	c := &Commands{lggr: cfg.Logger}
	if cfg.Deps != nil {
		c.deps = *cfg.Deps
	}
	c.deps.applyDefaults()

	return c
}

// Root returns the launcher root command with every subcommand attached.
func (c *Commands) Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "launcher",
		Short:         "Turn DAO governance deeplinks into transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file. Environment variables override its values")

	cmd.AddCommand(
		c.Validate(),
		c.Preview(),
		c.Submit(),
		c.Serve(),
	)

	return cmd
}

// load loads the configuration named by the --config flag and the logger.
func (c *Commands) load(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path := MustString(cmd.Flags().GetString("config"))

	cfg, err := c.deps.ConfigLoader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.lggr != nil {
		return cfg, c.lggr, nil
	}

	lggr, err := (&logger.Config{Level: cfg.Log.Level}).New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, lggr, nil
}

// parseDeeplink resolves the route of a deeplink URL and validates its query. Bare paths such as
// "/join?chainId=1&..." are accepted.
func parseDeeplink(raw string) (proposal.Definition, deeplink.Params, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return proposal.Definition{}, nil, fmt.Errorf("failed to parse deeplink: %w", err)
	}

	def, ok := proposal.LookupRoute(u.Path)
	if !ok {
		return proposal.Definition{}, nil, fmt.Errorf("unknown deeplink route %q", u.Path)
	}

	params, err := deeplink.ValidateURL(raw, def.Schema)
	if err != nil {
		return proposal.Definition{}, nil, err
	}

	return def, params, nil
}
