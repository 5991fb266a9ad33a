package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var statKeys []string

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show the properties of an object",
	Long: `Show the raw properties the device reports for the object at path.

Property names are short forms such as object.size or object.name. Keys the
object does not carry are omitted.

Examples:
  # Every property
  mtpfs stat "Internal storage/Music/track.mp3"

  # Selected properties as YAML
  mtpfs stat "Internal storage/Music" --keys object.name,object.content_type -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringSliceVarP(&statKeys, "keys", "k", nil, "Comma-separated property names to read")
}

func runStat(cmd *cobra.Command, args []string) error {
	keys, err := parseKeys(statKeys)
	if err != nil {
		return err
	}

	return cmdutil.Run(cmd, args[0], func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		props, err := obj.Properties(ctx, keys...)
		if err != nil {
			return err
		}

		if s.Printer.Format() != output.FormatTable {
			values := make(map[string]string, props.Len())
			for _, k := range props.Keys() {
				v, _ := props.Get(k)
				values[k.String()] = v.String()
			}
			return s.Printer.Print(values)
		}

		pairs := make([][2]string, 0, props.Len())
		for _, k := range props.Keys() {
			v, _ := props.Get(k)
			pairs = append(pairs, [2]string{k.String(), displayValue(props, k, v)})
		}
		return output.PrintPairs(s.Printer.Writer(), pairs)
	})
}

func parseKeys(names []string) ([]mtp.PropertyKey, error) {
	keys := make([]mtp.PropertyKey, 0, len(names))
	for _, name := range names {
		k, ok := mtp.PropertyKeyByName(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown property %q", name)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// displayValue decorates content types and sizes for humans.
func displayValue(props *mtp.PropertyBag, k mtp.PropertyKey, v mtp.PropVariant) string {
	switch k {
	case mtp.KeyObjectContentType:
		if g, err := props.GUID(k); err == nil {
			return fmt.Sprintf("%s (%s)", v.String(), mtp.ContentTypeFromGUID(g))
		}
	case mtp.KeyObjectSize:
		if n, err := props.Uint64(k); err == nil {
			return fmt.Sprintf("%s (%s)", v.String(), output.HumanSize(n))
		}
	}
	return v.String()
}
