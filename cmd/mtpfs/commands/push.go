package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/mtpfs/cmd/mtpfs/cmdutil"
	"github.com/marmos91/mtpfs/internal/cli/output"
	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

var (
	pushReplace   bool
	pushDuplicate bool
)

var pushCmd = &cobra.Command{
	Use:   "push <local-path> <folder>",
	Short: "Copy a local file or directory to the device",
	Long: `Copy a local file or directory into the folder at the given device path.
Directories are copied recursively.

Pushing onto an existing name fails unless --replace is given, which deletes
the existing object (recursively, for folders) first. --allow-duplicate skips
the check for files; devices accept several siblings with the same name.

Examples:
  # Copy a file
  mtpfs push ./track.mp3 "Internal storage/Music"

  # Replace a folder with a local directory
  mtpfs push ./Album "Internal storage/Music" --replace`,
	Args: cobra.ExactArgs(2),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().BoolVar(&pushReplace, "replace", false, "Delete an existing object with the same name first")
	pushCmd.Flags().BoolVar(&pushDuplicate, "allow-duplicate", false, "Do not check for an existing file with the same name")
	pushCmd.MarkFlagsMutuallyExclusive("replace", "allow-duplicate")
}

func runPush(cmd *cobra.Command, args []string) error {
	local, target := args[0], args[1]

	info, err := os.Stat(local)
	if err != nil {
		return &mtp.Error{Code: mtp.CodeInvalidLocalSource, Op: "push", Path: local, Err: err}
	}

	return cmdutil.Run(cmd, target, func(ctx context.Context, s *cmdutil.Session) error {
		folder, err := s.Resolve(ctx, target)
		if err != nil {
			return err
		}

		name := filepath.Base(filepath.Clean(local))
		if pushReplace {
			if err := removeExisting(ctx, folder, name); err != nil {
				return err
			}
		}

		p := pusher{content: s.Content, opts: mtp.PushOptions{FailIfExists: !pushDuplicate}}
		var id string
		if info.IsDir() {
			id, err = p.dir(ctx, folder, local)
		} else {
			id, err = p.file(ctx, folder, local, info.Size())
		}
		if err != nil {
			return err
		}

		res := transferResult{
			Source:      local,
			Destination: mtp.JoinPath(target, name),
			Objects:     p.objects,
			Bytes:       p.bytes,
			ObjectID:    id,
		}
		return s.Result(res, fmt.Sprintf("Pushed %d object(s), %s to %s", p.objects, output.HumanSize(uint64(p.bytes)), res.Destination))
	})
}

// removeExisting deletes the child of folder called name, if there is one.
func removeExisting(ctx context.Context, folder *mtp.Object, name string) error {
	existing, err := folder.ResolvePath(ctx, name)
	if errors.Is(err, mtp.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Replacing existing object", logger.KeyObjectID, existing.ID(), logger.KeyObjectName, name)
	return existing.Delete(ctx, true)
}

type pusher struct {
	content *mtp.Content
	opts    mtp.PushOptions
	objects int
	bytes   int64
}

func (p *pusher) file(ctx context.Context, folder *mtp.Object, local string, size int64) (string, error) {
	id, err := folder.PushFile(ctx, local, p.opts)
	if err != nil {
		return "", err
	}
	p.objects++
	p.bytes += size
	return id, nil
}

// dir creates a folder named after local inside parent and pushes the
// directory's entries into it. Entries other than regular files and
// directories are skipped.
func (p *pusher) dir(ctx context.Context, parent *mtp.Object, local string) (string, error) {
	entries, err := os.ReadDir(local)
	if err != nil {
		return "", &mtp.Error{Code: mtp.CodeInvalidLocalSource, Op: "push", Path: local, Err: err}
	}

	id, err := parent.CreateFolder(ctx, filepath.Base(filepath.Clean(local)))
	if err != nil {
		return "", err
	}
	p.objects++

	folder, err := p.content.ObjectByID(ctx, id)
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		path := filepath.Join(local, e.Name())
		switch {
		case e.IsDir():
			_, err = p.dir(ctx, folder, path)
		case e.Type().IsRegular():
			var info os.FileInfo
			if info, err = e.Info(); err == nil {
				_, err = p.file(ctx, folder, path, info.Size())
			}
		default:
			logger.WarnCtx(ctx, "Skipping non-regular file", logger.KeyLocalPath, path)
			continue
		}
		if err != nil {
			return "", err
		}
	}
	return id, nil
}
