package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
)

type SchemaArgs struct {
	Output string
}

func NewSchemaCmd() *cobra.Command {
	sa := &SchemaArgs{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for field configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sa.Output == "" {
				return writeHighlighted(cmd.OutOrStdout(), string(fieldconfigs.SchemaJSON), "json")
			}

			err := os.WriteFile(sa.Output, fieldconfigs.SchemaJSON, 0o600)
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&sa.Output, "output", "o", "", "Write the schema to a file instead of stdout")
	must(cmd.MarkFlagFilename("output", "json"))

	return cmd
}
