package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/nodefields/pkg/mcp"
)

type MCPArgs struct {
	*RootArgs
	*ConfigArgs

	Address string
}

func NewMCPArgs(rootArgs *RootArgs) *MCPArgs {
	return &MCPArgs{
		RootArgs:   rootArgs,
		ConfigArgs: &ConfigArgs{},
	}
}

func NewMCPCmd(ma *MCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve field attachment over the Model Context Protocol",
		Long: `Serve the validate_config and attach_fields tools over the Model Context
Protocol. Uses stdio unless --address is set. Tool calls that name no
configuration use --config, or the configuration found from the working
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Tool calls may pass their own configuration.
			configPath, err := ma.Resolve()
			if err != nil {
				slog.Debug("no default configuration", slog.Any("error", err))
			}

			srv := mcp.NewServer(
				mcp.WithAddress(ma.Address),
				mcp.WithConfigPath(configPath),
				mcp.WithLogOutput(cmd.ErrOrStderr()),
			)

			return srv.Serve(commandContext(cmd)) //nolint:wrapcheck // Already wrapped.
		},
	}

	ma.ConfigArgs.AddFlags(cmd)
	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve streamable HTTP on this address instead of stdio")

	return cmd
}
