// Package commands implements the mtpfs CLI.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	configcmd "github.com/marmos91/mtpfs/cmd/mtpfs/commands/config"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mtpfs",
	Short: "Browse and transfer files on portable devices",
	Long: `mtpfs navigates the object tree of portable devices (phones, cameras,
media players) and moves files to and from them.

Paths are relative to the device root and start with a storage name, for
example "Internal storage/Music". Both / and \ separate components, and
"." and ".." are understood. Absolute paths are rejected.

Devices are emulated and configured in the configuration file; see
"mtpfs config init".

Use "mtpfs [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		flags := cmd.Flags()
		cmdutil.Flags.ConfigFile, _ = flags.GetString("config")
		cmdutil.Flags.Output, _ = flags.GetString("output")
		cmdutil.Flags.Device, _ = flags.GetString("device")
		cmdutil.Flags.CaseSensitive, _ = flags.GetBool("case-sensitive")
		cmdutil.Flags.CaseSet = flags.Changed("case-sensitive")
		cmdutil.Flags.Stats, _ = flags.GetBool("stats")
		cmdutil.Flags.NoColor, _ = flags.GetBool("no-color")
		cmdutil.Flags.Verbose, _ = flags.GetBool("verbose")
		cmdutil.Flags.Out = cmd.OutOrStdout()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// ExitCode maps an error to the process exit status: 2 for missing
// objects and devices, 1 for everything else.
func ExitCode(err error) int {
	if errors.Is(err, mtp.ErrNotFound) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/mtpfs/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().StringP("device", "d", "", "Device ID or friendly name")
	rootCmd.PersistentFlags().Bool("case-sensitive", false, "Match names exactly (default: per device configuration)")
	rootCmd.PersistentFlags().Bool("stats", false, "Print device round-trip statistics after the command")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(configcmd.Cmd)
}
