package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
)

var (
	lsFolders bool
	lsFiles   bool
	lsAll     bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the children of an object",
	Long: `List the children of the object at path, in device order. Without a path
the storages under the device root are listed.

Examples:
  # List storages
  mtpfs ls

  # List a folder
  mtpfs ls "Internal storage/Music"

  # Only sub-folders, including hidden ones
  mtpfs ls "Internal storage" --folders --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsFolders, "folders", false, "List only folders")
	lsCmd.Flags().BoolVar(&lsFiles, "files", false, "List only files")
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "Include hidden objects")
	lsCmd.MarkFlagsMutuallyExclusive("folders", "files")
}

func runLs(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	return cmdutil.Run(cmd, path, func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, path)
		if err != nil {
			return err
		}

		it, err := objectSelector{foldersOnly: lsFolders, filesOnly: lsFiles}.children(ctx, obj)
		if err != nil {
			return err
		}
		defer it.Close()

		list := objectList{}
		for child := range it.All(ctx) {
			e, err := describe(ctx, child)
			if err != nil {
				return err
			}
			if e.Hidden && !lsAll {
				continue
			}
			list = append(list, e)
		}
		if err := it.Err(); err != nil {
			return err
		}

		return s.Printer.PrintOrEmpty(list, len(list) == 0, "(empty)")
	})
}
