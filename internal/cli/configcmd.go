package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// configCommand prints the effective configuration after defaults, the
// config file and environment overrides have been applied.
func (c *CLI) configCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the configuration zonealloc would run with. Use the output as a
starting point for a config file:

  zonealloc config > zonealloc.toml
  zonealloc config --format yaml > zonealloc.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case "toml":
				out, err = cfg.encodeTOML()
			case "yaml", "yml":
				out, err = cfg.encodeYAML()
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'toml' or 'yaml')", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml, yaml")
	return cmd
}
