package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/nodefields/api"
	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
)

type InitArgs struct {
	Path  string
	Force bool
}

func NewInitCmd() *cobra.Command {
	ia := &InitArgs{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example field configuration",
		Long: `Write an example field configuration. An existing file is left alone
unless --force is set, in which case it is first renamed to a backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := api.WriteDefaultFile(ia.Path, fieldconfigs.Example, ia.Force, "config")
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), ia.Path))

			return nil
		},
	}

	cmd.Flags().StringVarP(&ia.Path, "output", "o", fieldconfigs.FileNames[0], "Path to write the configuration to")
	cmd.Flags().BoolVarP(&ia.Force, "force", "f", false, "Replace an existing file, keeping a backup")

	return cmd
}
