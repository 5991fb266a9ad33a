package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the mtpfs configuration file.

Checks for syntax errors, missing required fields and invalid values.

Examples:
  # Validate default config
  mtpfs config validate

  # Validate specific config file
  mtpfs config validate --config ./mtpfs.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	for _, d := range cfg.Devices {
		if d.Blobs.Type == "memory" && d.Store.Type != "memory" {
			warnings = append(warnings, fmt.Sprintf("device %s persists its objects but keeps their data in memory", d.ID))
		}
		if d.Store.Type == "memory" && d.Blobs.Type != "memory" {
			warnings = append(warnings, fmt.Sprintf("device %s keeps its objects in memory; stored data will be orphaned on exit", d.ID))
		}
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(w, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", msg)
		}
	}

	_, _ = fmt.Fprintf(w, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(w, "  Log level:       %s\n", cfg.Logging.Level)
	_, _ = fmt.Fprintf(w, "  Buffer size:     %s\n", cfg.Transfer.BufferSize)
	_, _ = fmt.Fprintf(w, "  Devices:         %d\n", len(cfg.Devices))
	for _, d := range cfg.Devices {
		_, _ = fmt.Fprintf(w, "    %-14s %s/%s\n", d.ID, d.Store.Type, d.Blobs.Type)
	}
	return nil
}
