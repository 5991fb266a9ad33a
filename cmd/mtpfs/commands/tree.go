package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var (
	treeDepth   int
	treeFolders bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the object tree below a path",
	Long: `Print the objects below path as a tree. Without a path the whole device
is printed.

Examples:
  # Whole device
  mtpfs tree

  # Two levels of a storage, folders only
  mtpfs tree "Internal storage" --depth 2 --folders`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "L", 0, "Maximum depth (0 for unlimited)")
	treeCmd.Flags().BoolVar(&treeFolders, "folders", false, "Show only folders")
}

func runTree(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	return cmdutil.Run(cmd, path, func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, path)
		if err != nil {
			return err
		}

		root := &output.TreeNode{Name: obj.Name()}
		if err := buildTree(ctx, obj, root, objectSelector{foldersOnly: treeFolders}, 1); err != nil {
			return err
		}
		return s.Printer.Print(root)
	})
}

// buildTree adds the descendants of obj below node. Only objects that do
// not carry data are descended into.
func buildTree(ctx context.Context, obj *mtp.Object, node *output.TreeNode, sel objectSelector, depth int) error {
	if treeDepth > 0 && depth > treeDepth {
		return nil
	}

	it, err := sel.children(ctx, obj)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next(ctx) {
		child := it.Object()
		n := node.Add(child.Name())
		if child.ContentType().IsFileLike() {
			continue
		}
		if err := buildTree(ctx, child, n, sel, depth+1); err != nil {
			return err
		}
	}
	return it.Err()
}
