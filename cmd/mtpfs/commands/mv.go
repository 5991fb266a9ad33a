package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var mvCmd = &cobra.Command{
	Use:   "mv <path> <folder>",
	Short: "Move an object into another folder",
	Long: `Move the object at path into the folder at the second path. The object
keeps its name and identifier.

Example:
  mtpfs mv "Internal storage/Download/track.mp3" "Internal storage/Music"`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

type mvResult struct {
	ObjectID    string `json:"object_id" yaml:"object_id"`
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
}

func runMv(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	return cmdutil.Run(cmd, src, func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, src)
		if err != nil {
			return err
		}
		folder, err := s.Resolve(ctx, dst)
		if err != nil {
			return err
		}
		if !folder.ContentType().IsContainer() {
			return fmt.Errorf("%q is a %s, not a folder", dst, folder.ContentType())
		}

		if err := obj.MoveTo(ctx, folder.ID()); err != nil {
			return err
		}
		res := mvResult{ObjectID: obj.ID(), Source: src, Destination: mtp.JoinPath(dst, obj.Name())}
		return s.Result(res, fmt.Sprintf("Moved '%s' to '%s'", src, res.Destination))
	})
}
