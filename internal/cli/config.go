package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/nodefields/api/v1beta1/fieldconfigs"
)

var ErrNoConfig = errors.New("no configuration file found")

// ConfigArgs selects the field configuration file.
type ConfigArgs struct {
	ConfigPath string
}

func (ca *ConfigArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ca.ConfigPath, "config", "c", "",
		fmt.Sprintf("Path to the field configuration, default searches for %v", fieldconfigs.FileNames))

	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
}

// Resolve returns the configured path, or searches the working directory
// and its parents when none is set.
func (ca *ConfigArgs) Resolve() (string, error) {
	if ca.ConfigPath != "" {
		return ca.ConfigPath, nil
	}

	path, err := fieldconfigs.Find(".")
	if err != nil {
		return "", err //nolint:wrapcheck // Already wrapped.
	}

	if path == "" {
		return "", fmt.Errorf("%w, create one with `%s init`", ErrNoConfig, cmdName)
	}

	slog.Debug("using config file", slog.String("path", path))

	return path, nil
}
