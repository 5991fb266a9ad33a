package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var pullRecursive bool

var pullCmd = &cobra.Command{
	Use:   "pull <path> [local-path]",
	Short: "Copy an object from the device",
	Long: `Copy the object at path to the local file system. When local-path is an
existing directory, or omitted, the object keeps its name inside it.

Folders are copied with --recursive.

Examples:
  # Copy a file into the current directory
  mtpfs pull "Internal storage/Music/track.mp3"

  # Copy a folder
  mtpfs pull "Internal storage/DCIM" ./photos --recursive`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().BoolVarP(&pullRecursive, "recursive", "r", false, "Copy folders and their contents")
}

// transferResult summarizes a pull or push.
type transferResult struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Objects     int    `json:"objects" yaml:"objects"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	ObjectID    string `json:"object_id,omitempty" yaml:"object_id,omitempty"`
}

func runPull(cmd *cobra.Command, args []string) error {
	local := "."
	if len(args) == 2 {
		local = args[1]
	}

	return cmdutil.Run(cmd, args[0], func(ctx context.Context, s *cmdutil.Session) error {
		obj, err := s.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		dest := local
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			name, err := localName(obj.Name())
			if err != nil {
				return err
			}
			dest = filepath.Join(local, name)
		}

		p := puller{bufSize: s.Config.Transfer.BufferSize.Int()}
		if obj.ContentType().IsFileLike() {
			err = p.file(ctx, obj, dest)
		} else if !pullRecursive {
			return fmt.Errorf("%q is a %s; use --recursive to copy it", args[0], obj.ContentType())
		} else {
			err = p.tree(ctx, obj, dest)
		}
		if err != nil {
			return err
		}

		res := transferResult{Source: args[0], Destination: dest, Objects: p.objects, Bytes: p.bytes}
		return s.Result(res, fmt.Sprintf("Pulled %d object(s), %s to %s", p.objects, output.HumanSize(uint64(p.bytes)), dest))
	})
}

// localName rejects object names that cannot be used as a local file name
// as they are.
func localName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("object name %q cannot be used as a local file name", name)
	}
	return name, nil
}

type puller struct {
	bufSize int
	objects int
	bytes   int64
}

// file copies one object's data to dest. A partial file is removed.
func (p *puller) file(ctx context.Context, obj *mtp.Object, dest string) (err error) {
	rs, err := obj.Open(ctx)
	if err != nil {
		return err
	}
	defer rs.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	bw := bufio.NewWriterSize(f, p.bufSize)
	n, err := rs.WriteTo(bw)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	p.objects++
	p.bytes += n
	logger.DebugCtx(ctx, "Object pulled", logger.KeyObjectID, obj.ID(), logger.KeyLocalPath, dest, logger.KeyBytesRead, n)
	return nil
}

// tree copies a container and everything below it into dest.
func (p *puller) tree(ctx context.Context, obj *mtp.Object, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	p.objects++

	it, err := obj.Children(ctx)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next(ctx) {
		child := it.Object()
		name, err := localName(child.Name())
		if err != nil {
			return err
		}
		target := filepath.Join(dest, name)
		if _, err := os.Lstat(target); err == nil {
			return fmt.Errorf("%s already exists (duplicate name on device?)", target)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if child.ContentType().IsFileLike() {
			err = p.file(ctx, child, target)
		} else {
			err = p.tree(ctx, child, target)
		}
		if err != nil {
			return err
		}
	}
	return it.Err()
}
