// Package config implements the configuration subcommands of mtpfs.
package config

import "github.com/spf13/cobra"

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the mtpfs configuration",
	Long: `Create, inspect and validate the mtpfs configuration file.

The file lives at $XDG_CONFIG_HOME/mtpfs/config.yaml unless --config names
another one.`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(editCmd)
}
