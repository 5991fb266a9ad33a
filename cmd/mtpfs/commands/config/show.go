package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and MTPFS_ environment overrides
are applied. Table output prints YAML; --output json prints JSON.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
