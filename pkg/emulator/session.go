package emulator

import (
	"context"
	"sync/atomic"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// session is an mtp.Session on an emulated device.
type session struct {
	dev    *Device
	id     string
	client mtp.ClientInfo
	closed atomic.Bool
}

func (s *session) begin(ctx context.Context, op, objectID string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dev.inject(op, objectID)
}

func (s *session) GetObjectProperties(ctx context.Context, objectID string, keys []mtp.PropertyKey) (*mtp.PropertyBag, error) {
	if err := s.begin(ctx, OpGetProperties, objectID); err != nil {
		return nil, err
	}
	return s.dev.properties(ctx, objectID, keys)
}

func (s *session) EnumerateObjects(ctx context.Context, parentID string) (mtp.ObjectIDCursor, error) {
	if err := s.begin(ctx, OpEnumerate, parentID); err != nil {
		return nil, err
	}
	ids, err := s.dev.children(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return &cursor{s: s, parentID: parentID, ids: ids}, nil
}

func (s *session) CreateObject(ctx context.Context, props *mtp.PropertyBag) (string, error) {
	if err := s.begin(ctx, OpCreateObject, ""); err != nil {
		return "", err
	}
	return s.dev.createObject(ctx, props)
}

func (s *session) CreateObjectWithData(ctx context.Context, props *mtp.PropertyBag) (mtp.RawStream, uint32, error) {
	if err := s.begin(ctx, OpCreateObjectWithData, ""); err != nil {
		return nil, 0, err
	}
	rec, err := s.dev.prepareUpload(ctx, props)
	if err != nil {
		return nil, 0, err
	}
	return newUpload(ctx, s, rec), s.dev.chunk, nil
}

func (s *session) DeleteObject(ctx context.Context, objectID string, recursive bool) error {
	if err := s.begin(ctx, OpDeleteObject, objectID); err != nil {
		return err
	}
	return s.dev.deleteObject(ctx, objectID, recursive)
}

func (s *session) MoveObject(ctx context.Context, objectID, newParentID string) error {
	if err := s.begin(ctx, OpMoveObject, objectID); err != nil {
		return err
	}
	return s.dev.moveObject(ctx, objectID, newParentID)
}

func (s *session) OpenResource(ctx context.Context, objectID string, mode mtp.AccessMode) (mtp.RawStream, uint32, error) {
	if err := s.begin(ctx, OpOpenResource, objectID); err != nil {
		return nil, 0, err
	}
	rec, err := s.dev.record(ctx, objectID)
	if err != nil {
		return nil, 0, err
	}
	if !mtp.ContentTypeFromGUID(rec.ContentType).IsFileLike() {
		return nil, 0, ErrNoResource
	}
	var data []byte
	if mode != mtp.ModeWrite {
		if data, err = s.dev.data(ctx, objectID); err != nil {
			return nil, 0, err
		}
	}
	return newResource(ctx, s, rec, mode, data), s.dev.chunk, nil
}

func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.dev.sessions.Add(-1)
	if err := s.dev.inject(OpCloseSession, ""); err != nil {
		return err
	}
	logger.Debug("Emulator session closed",
		logger.KeyDeviceID, s.dev.id,
		logger.KeySessionID, s.id,
		logger.KeyClientName, s.client.String())
	return nil
}

// cursor enumerates a snapshot of a parent's children taken when the
// cursor was opened.
type cursor struct {
	s        *session
	parentID string
	ids      []string
	pos      int
	closed   bool
}

func (c *cursor) Next(ctx context.Context, dst []string) (int, error) {
	if c.closed {
		return 0, ErrHandleClosed
	}
	if err := c.s.begin(ctx, OpEnumerateNext, c.parentID); err != nil {
		return 0, err
	}
	n := copy(dst, c.ids[c.pos:])
	c.pos += n
	return n, nil
}

func (c *cursor) Close() error {
	c.closed = true
	return nil
}

var _ mtp.Session = (*session)(nil)
