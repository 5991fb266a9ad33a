package mtp

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/mtpfs/internal/logger"
)

// validateName checks that name is a single plain path segment.
func validateName(op, name string) error {
	comps := SplitPath(name)
	if len(comps) != 1 || comps[0].Kind != Named || comps[0].Name != name {
		return &Error{Code: CodeInvalidName, Op: op, Detail: name}
	}
	return nil
}

// checkAbsent fails with ErrAlreadyExists when o has a child named name.
// Creating a duplicate natively fails with an opaque error, so the check is
// done here to give a precise one.
func (o *Object) checkAbsent(ctx context.Context, op, name string) error {
	_, err := o.child(ctx, name)
	switch {
	case err == nil:
		return &Error{Code: CodeAlreadyExists, Op: op, ObjectID: o.id, Detail: name}
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

// CreateFolder creates a sub-folder of o and returns its ID.
func (o *Object) CreateFolder(ctx context.Context, name string) (string, error) {
	const op = "create-folder"
	if err := validateName(op, name); err != nil {
		return "", err
	}
	s, err := o.session()
	if err != nil {
		return "", err
	}
	if err := o.checkAbsent(ctx, op, name); err != nil {
		return "", err
	}

	props := NewPropertyBag().
		SetString(KeyObjectParentID, o.id).
		SetString(KeyObjectName, name).
		SetGUID(KeyObjectContentType, ContentTypeFolder.GUID())

	id, err := s.CreateObject(ctx, props)
	if err != nil {
		return "", transportError(op, o.id, err)
	}
	logger.DebugCtx(ctx, "Folder created",
		logger.KeyParentID, o.id, logger.KeyObjectName, name, logger.KeyObjectID, id)
	return id, nil
}

// CreateFile allocates a file object under o and returns a stream for its
// data. The object is only final once the stream is committed.
func (o *Object) CreateFile(ctx context.Context, name string, size uint64) (*WriteStream, error) {
	const op = "create-file"
	if err := validateName(op, name); err != nil {
		return nil, err
	}
	s, err := o.session()
	if err != nil {
		return nil, err
	}

	props := NewPropertyBag().
		SetString(KeyObjectParentID, o.id).
		SetUint64(KeyObjectSize, size).
		SetString(KeyObjectOriginalFileName, name).
		SetString(KeyObjectName, name)

	raw, chunk, err := s.CreateObjectWithData(ctx, props)
	if err != nil {
		return nil, transportError(op, o.id, err)
	}
	if raw == nil {
		return nil, &Error{Code: CodeUnableToCreate, Op: op, ObjectID: o.id, Detail: name}
	}
	return newWriteStream(raw, chunk, name), nil
}

// PushOptions tunes PushFile and PushReader.
type PushOptions struct {
	// FailIfExists runs a duplicate check before allocating the object.
	FailIfExists bool
}

// PushFile uploads a local file into o under its base name and returns the
// new object's ID.
func (o *Object) PushFile(ctx context.Context, localPath string, opts PushOptions) (string, error) {
	const op = "push"

	name := filepath.Base(localPath)
	fi, err := os.Stat(localPath)
	if err != nil {
		return "", &Error{Code: CodeInvalidLocalSource, Op: op, Detail: localPath, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return "", &Error{Code: CodeInvalidLocalSource, Op: op, Detail: localPath + " is not a regular file"}
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", &Error{Code: CodeInvalidLocalSource, Op: op, Detail: localPath, Err: err}
	}
	defer f.Close()

	return o.PushReader(ctx, name, f, uint64(fi.Size()), opts)
}

// PushReader uploads size bytes read from r as a new object named name under
// o and returns the new object's ID.
//
// A read failure of r is reported as ErrInvalidLocalSource. A failure after
// the object was allocated leaves it to the device; no cleanup is attempted.
func (o *Object) PushReader(ctx context.Context, name string, r io.Reader, size uint64, opts PushOptions) (string, error) {
	const op = "push"
	if r == nil {
		return "", &Error{Code: CodeInvalidLocalSource, Op: op, Detail: name}
	}
	if opts.FailIfExists {
		if err := validateName(op, name); err != nil {
			return "", err
		}
		if err := o.checkAbsent(ctx, op, name); err != nil {
			return "", err
		}
	}

	w, err := o.CreateFile(ctx, name, size)
	if err != nil {
		return "", err
	}
	defer w.Close()

	n, err := w.ReadFrom(r)
	if err != nil {
		return "", err
	}
	if err := w.Commit(); err != nil {
		return "", err
	}

	id := w.ObjectID()
	logger.DebugCtx(ctx, "File pushed",
		logger.KeyParentID, o.id,
		logger.KeyObjectName, name,
		logger.KeyObjectID, id,
		logger.KeyBytesWritten, n)
	return id, nil
}

// Delete removes the object from the device. Folders with children need
// recursive set. On success o is consumed: every later call on it fails with
// ErrDeleted.
func (o *Object) Delete(ctx context.Context, recursive bool) error {
	s, err := o.session()
	if err != nil {
		return err
	}
	if err := s.DeleteObject(ctx, o.id, recursive); err != nil {
		return transportError("delete", o.id, err)
	}
	o.deleted = true
	logger.DebugCtx(ctx, "Object deleted", logger.KeyObjectID, o.id, logger.KeyRecursive, recursive)
	return nil
}

// MoveTo re-parents the object. The snapshot keeps its identity; re-resolve
// it for fresh metadata.
func (o *Object) MoveTo(ctx context.Context, newParentID string) error {
	s, err := o.session()
	if err != nil {
		return err
	}
	if err := s.MoveObject(ctx, o.id, newParentID); err != nil {
		return transportError("move", o.id, err)
	}
	logger.DebugCtx(ctx, "Object moved", logger.KeyObjectID, o.id, logger.KeyParentID, newParentID)
	return nil
}
