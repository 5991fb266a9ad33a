package mtp

import (
	"context"

	"github.com/marmos91/mtpfs/internal/logger"
)

// Object is a snapshot of one node of a device's content tree. Name and
// content type are captured when the object is resolved and never refreshed;
// resolve the ID again for fresh metadata.
type Object struct {
	content     *Content
	id          string
	name        string
	contentType ContentType
	deleted     bool
}

// ID returns the device-scoped object ID. IDs are only stable within a
// session.
func (o *Object) ID() string { return o.id }

// Name returns the display name.
func (o *Object) Name() string { return o.name }

// ContentType returns the content category.
func (o *Object) ContentType() ContentType { return o.contentType }

// Content returns the session reference the object was resolved from.
func (o *Object) Content() *Content { return o.content }

// IsFolder reports whether the object is a plain folder.
func (o *Object) IsFolder() bool { return o.contentType == ContentTypeFolder }

// session returns the live session, failing for deleted objects and
// released content references.
func (o *Object) session() (Session, error) {
	if o.deleted {
		return nil, newError(CodeDeleted, "", o.id)
	}
	return o.content.session()
}

// ParentID fetches the ID of the object's parent. The root reports an empty
// parent ID.
func (o *Object) ParentID(ctx context.Context) (string, error) {
	if _, err := o.session(); err != nil {
		return "", err
	}
	props, err := o.content.ObjectProperties(ctx, o.id, KeyObjectParentID)
	if err != nil {
		return "", err
	}
	pid, err := props.String(KeyObjectParentID)
	if err != nil {
		return "", withObjectID(err, o.id)
	}
	return pid, nil
}

// Parent resolves the object's parent. It fails with ErrNotFound on the root.
func (o *Object) Parent(ctx context.Context) (*Object, error) {
	pid, err := o.ParentID(ctx)
	if err != nil {
		return nil, err
	}
	if pid == "" {
		return nil, newError(CodeNotFound, "parent", o.id)
	}
	return o.content.ObjectByID(ctx, pid)
}

// Properties fetches arbitrary properties of the object in one round trip.
func (o *Object) Properties(ctx context.Context, keys ...PropertyKey) (*PropertyBag, error) {
	if _, err := o.session(); err != nil {
		return nil, err
	}
	return o.content.ObjectProperties(ctx, o.id, keys...)
}

// Children starts an enumeration of the object's children.
func (o *Object) Children(ctx context.Context) (*ObjectIterator, error) {
	return o.iterate(ctx, nil)
}

// SubFolders enumerates the children that are plain folders.
func (o *Object) SubFolders(ctx context.Context) (*ObjectIterator, error) {
	return o.iterate(ctx, (*Object).IsFolder)
}

// Files enumerates the children whose content type is file-like.
func (o *Object) Files(ctx context.Context) (*ObjectIterator, error) {
	return o.iterate(ctx, func(c *Object) bool { return c.contentType.IsFileLike() })
}

func (o *Object) iterate(ctx context.Context, keep func(*Object) bool) (*ObjectIterator, error) {
	s, err := o.session()
	if err != nil {
		return nil, err
	}
	cursor, err := s.EnumerateObjects(ctx, o.id)
	if err != nil {
		return nil, transportError("enumerate", o.id, err)
	}
	logger.DebugCtx(ctx, "Enumeration started", logger.KeyObjectID, o.id)
	return &ObjectIterator{content: o.content, parentID: o.id, cursor: cursor, keep: keep}, nil
}

// Open opens the object's primary data for reading.
func (o *Object) Open(ctx context.Context) (*ReadStream, error) {
	s, err := o.session()
	if err != nil {
		return nil, err
	}
	raw, chunk, err := s.OpenResource(ctx, o.id, ModeRead)
	if err != nil {
		return nil, transportError("open-resource", o.id, err)
	}
	if raw == nil {
		return nil, newError(CodeUnableToCreate, "open-resource", o.id)
	}
	return newReadStream(raw, chunk, o.id), nil
}
