package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration, one persistent emulated device, to the
default location or to the file named by --config.

Examples:
  # Create the default config
  mtpfs config init

  # Overwrite a config at a custom path
  mtpfs config init --config ./mtpfs.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cmdutil.Flags.ConfigFile
	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
