package cli

import (
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/macropower/nodefields/pkg/config"
)

type ValidateArgs struct {
	*RootArgs
	*ConfigArgs
}

func NewValidateArgs(rootArgs *RootArgs) *ValidateArgs {
	return &ValidateArgs{
		RootArgs:   rootArgs,
		ConfigArgs: &ConfigArgs{},
	}
}

func NewValidateCmd(va *ValidateArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a field configuration",
		Long: `Validate a field configuration against its schema and compile every
expression it contains, without processing any nodes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := va.Resolve()
			if err != nil {
				return err
			}

			cfg, err := config.LoadFile(path, config.WithColor(isTerminal(cmd.ErrOrStderr())))
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped with the path.
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "%s: %s ok\n",
				path, english.Plural(len(cfg.Descriptors()), "descriptor", "")))

			return nil
		},
	}
	va.ConfigArgs.AddFlags(cmd)

	return cmd
}
