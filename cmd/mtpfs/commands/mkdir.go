package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a folder",
	Long: `Create the folder at path. Its parent must exist unless --parents is
given, in which case missing folders along the way are created too.

Examples:
  mtpfs mkdir "Internal storage/Music/New album"
  mtpfs mkdir "Internal storage/Backups/2026/10" --parents`,
	Args: cobra.ExactArgs(1),
	RunE: runMkdir,
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "Create missing parent folders; no error if the folder exists")
}

type mkdirResult struct {
	Path     string   `json:"path" yaml:"path"`
	ObjectID string   `json:"object_id" yaml:"object_id"`
	Created  []string `json:"created" yaml:"created"`
}

func runMkdir(cmd *cobra.Command, args []string) error {
	path := args[0]
	comps := mtp.SplitPath(path)
	if len(comps) == 0 {
		return &mtp.Error{Code: mtp.CodeInvalidName, Op: "mkdir", Path: path}
	}

	return cmdutil.Run(cmd, path, func(ctx context.Context, s *cmdutil.Session) error {
		var (
			obj     *mtp.Object
			created []string
			err     error
		)
		if mkdirParents {
			obj, created, err = mkdirAll(ctx, s, comps)
		} else {
			obj, err = mkdirOne(ctx, s, comps)
			if err == nil {
				created = []string{obj.ID()}
			}
		}
		if err != nil {
			return err
		}

		res := mkdirResult{Path: path, ObjectID: obj.ID(), Created: created}
		return s.Result(res, fmt.Sprintf("Folder '%s' ready (%d created)", path, len(created)))
	})
}

// mkdirOne creates the last component inside the existing parent.
func mkdirOne(ctx context.Context, s *cmdutil.Session, comps []mtp.PathComponent) (*mtp.Object, error) {
	parent := s.Root
	if len(comps) > 1 {
		var err error
		if parent, err = s.Root.Resolve(ctx, comps[:len(comps)-1]); err != nil {
			return nil, err
		}
	}
	id, err := parent.CreateFolder(ctx, comps[len(comps)-1].String())
	if err != nil {
		return nil, err
	}
	return s.Content.ObjectByID(ctx, id)
}

// mkdirAll walks comps from the root, creating every missing named
// component.
func mkdirAll(ctx context.Context, s *cmdutil.Session, comps []mtp.PathComponent) (*mtp.Object, []string, error) {
	cur := s.Root
	var created []string
	for _, c := range comps {
		next, err := cur.Resolve(ctx, []mtp.PathComponent{c})
		if errors.Is(err, mtp.ErrNotFound) && c.Kind == mtp.Named {
			var id string
			if id, err = cur.CreateFolder(ctx, c.Name); err == nil {
				created = append(created, id)
				next, err = s.Content.ObjectByID(ctx, id)
			}
		}
		if err != nil {
			return nil, created, err
		}
		cur = next
	}
	return cur, created, nil
}
