package commands

import (
	"context"
	"errors"

	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// objectEntry is the listing form of an object.
type objectEntry struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Size   uint64 `json:"size,omitempty" yaml:"size,omitempty"`
	Hidden bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// describe reads the listing properties of obj. Size and hidden are
// optional on devices, so a missing value is left zero.
func describe(ctx context.Context, obj *mtp.Object) (objectEntry, error) {
	e := objectEntry{ID: obj.ID(), Name: obj.Name(), Type: obj.ContentType().String()}

	props, err := obj.Properties(ctx, mtp.KeyObjectSize, mtp.KeyObjectIsHidden)
	if err != nil {
		return e, err
	}
	if size, err := props.Uint64(mtp.KeyObjectSize); err == nil {
		e.Size = size
	} else if !errors.Is(err, mtp.ErrTypeMismatch) {
		return e, err
	}
	if hidden, err := props.Bool(mtp.KeyObjectIsHidden); err == nil {
		e.Hidden = hidden
	}
	return e, nil
}

// objectList renders as a table of objects.
type objectList []objectEntry

// Headers implements output.TableRenderer.
func (l objectList) Headers() []string {
	return []string{"Name", "Type", "Size", "ID"}
}

// Rows implements output.TableRenderer.
func (l objectList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		size := "-"
		if ct, _ := mtp.ParseContentType(e.Type); ct.IsFileLike() {
			size = output.HumanSize(e.Size)
		}
		rows = append(rows, []string{e.Name, e.Type, size, e.ID})
	}
	return rows
}

// Alignments implements output.ColumnAligner.
func (l objectList) Alignments() []int {
	return output.NewTableData(l.Headers()...).AlignRight(2).Alignments()
}

// objectSelector picks which children a listing shows.
type objectSelector struct {
	foldersOnly bool
	filesOnly   bool
}

func (s objectSelector) children(ctx context.Context, obj *mtp.Object) (*mtp.ObjectIterator, error) {
	switch {
	case s.foldersOnly:
		return obj.SubFolders(ctx)
	case s.filesOnly:
		return obj.Files(ctx)
	default:
		return obj.Children(ctx)
	}
}
