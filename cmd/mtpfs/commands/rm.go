package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/prompt"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var (
	rmRecursive bool
	rmForce     bool
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete an object",
	Long: `Delete the object at path. Folders that are not empty need --recursive,
which asks for confirmation unless --force is given.

Examples:
  mtpfs rm "Internal storage/Music/track.mp3"
  mtpfs rm "Internal storage/Old" -r --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "Delete folders and their contents")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Do not ask for confirmation")
}

type rmResult struct {
	Path      string `json:"path" yaml:"path"`
	ObjectID  string `json:"object_id" yaml:"object_id"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
}

func runRm(cmd *cobra.Command, args []string) error {
	path := args[0]
	if len(mtp.SplitPath(path)) == 0 {
		return errors.New("refusing to delete the device root")
	}

	return cmdutil.Run(cmd, path, func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, path)
		if err != nil {
			return err
		}
		if obj.ID() == s.Root.ID() {
			return errors.New("refusing to delete the device root")
		}

		if rmRecursive {
			ok, err := prompt.ConfirmDelete(path, true, rmForce)
			if errors.Is(err, prompt.ErrNotInteractive) {
				return errors.New("recursive delete needs confirmation; use --force")
			}
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
			if !ok {
				s.Printer.Println("Aborted.")
				return nil
			}
		}

		id := obj.ID()
		if err := obj.Delete(ctx, rmRecursive); err != nil {
			return err
		}
		return s.Result(rmResult{Path: path, ObjectID: id, Recursive: rmRecursive}, fmt.Sprintf("Deleted '%s'", path))
	})
}
