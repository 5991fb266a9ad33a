package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
)

// deviceEntry is the listing form of an attached device.
type deviceEntry struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Store         string `json:"store,omitempty" yaml:"store,omitempty"`
	Blobs         string `json:"blobs,omitempty" yaml:"blobs,omitempty"`
	CaseSensitive bool   `json:"case_sensitive" yaml:"case_sensitive"`
}

type deviceList []deviceEntry

// Headers implements output.TableRenderer.
func (l deviceList) Headers() []string {
	return []string{"ID", "Name", "Store", "Blobs", "Case sensitive"}
}

// Rows implements output.TableRenderer.
func (l deviceList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, d := range l {
		rows = append(rows, []string{
			d.ID, d.Name,
			cmdutil.EmptyOr(d.Store, "-"), cmdutil.EmptyOr(d.Blobs, "-"),
			cmdutil.BoolToYesNo(d.CaseSensitive),
		})
	}
	return rows
}

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"dev"},
	Short:   "List attached devices",
	Long: `List the devices the driver currently reports, with their friendly names
and the stores backing them.

Examples:
  # List devices
  mtpfs devices

  # As JSON
  mtpfs devices -o json`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := cmdutil.CommandContext(cmd, nil, "")
	defer cancel()

	p, err := cmdutil.OpenProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); err == nil {
			err = cerr
		}
	}()

	devices, err := p.Devices(ctx)
	if err != nil {
		return err
	}

	list := make(deviceList, 0, len(devices))
	for _, d := range devices {
		e := deviceEntry{ID: d.ID, Name: d.FriendlyName}
		if dc, ok := cmdutil.DeviceConfig(p.Config, d.ID); ok {
			e.Store, e.Blobs, e.CaseSensitive = dc.Store.Type, dc.Blobs.Type, dc.CaseSensitive
		}
		list = append(list, e)
	}
	return p.Printer.PrintOrEmpty(list, len(list) == 0, "No devices attached.")
}
