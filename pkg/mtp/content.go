package mtp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/marmos91/mtpfs/internal/logger"
)

// RootObjectID is the ID of the device-wide root object.
const RootObjectID = "DEVICE"

// sessionHandle is the shared state behind every Content reference.
type sessionHandle struct {
	session       Session
	deviceID      string
	caseSensitive bool

	refs      atomic.Int32
	closeOnce sync.Once
	closeErr  error
	down      atomic.Bool
}

func (h *sessionHandle) release() error {
	if h.refs.Add(-1) > 0 {
		return nil
	}
	h.closeOnce.Do(func() {
		h.down.Store(true)
		h.closeErr = transportError("close-session", "", h.session.Close())
		logger.Debug("Session closed", logger.KeyDeviceID, h.deviceID)
	})
	return h.closeErr
}

// Content is a reference to an open device session. References are cheap to
// Clone; the session is torn down when the last reference is closed.
//
// Objects obtained from a Content hold a non-owning pointer to it and fail
// with ErrSessionClosed once that reference is closed. A Content is not safe
// for concurrent use; distinct Clones of one session are not either, since
// they share the session.
type Content struct {
	h        *sessionHandle
	released atomic.Bool
}

// NewContent wraps an open session. The returned reference owns the session.
// caseSensitive fixes how path components are matched for the lifetime of
// the session.
func NewContent(deviceID string, s Session, caseSensitive bool) *Content {
	h := &sessionHandle{session: s, deviceID: deviceID, caseSensitive: caseSensitive}
	h.refs.Store(1)
	return &Content{h: h}
}

// Clone returns a new reference to the same session.
func (c *Content) Clone() *Content {
	c.h.refs.Add(1)
	return &Content{h: c.h}
}

// Close releases this reference. It is safe to call more than once; only the
// first call counts.
func (c *Content) Close() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	return c.h.release()
}

// Refs returns the number of live references to the session.
func (c *Content) Refs() int {
	return int(c.h.refs.Load())
}

// DeviceID returns the ID of the device the session belongs to.
func (c *Content) DeviceID() string {
	return c.h.deviceID
}

// CaseSensitive reports whether path components are matched exactly.
func (c *Content) CaseSensitive() bool {
	return c.h.caseSensitive
}

func (c *Content) session() (Session, error) {
	if c == nil || c.released.Load() || c.h.down.Load() {
		return nil, newError(CodeSessionClosed, "", "")
	}
	return c.h.session, nil
}

// Root returns the device-wide root object.
func (c *Content) Root(ctx context.Context) (*Object, error) {
	return c.ObjectByID(ctx, RootObjectID)
}

// ObjectByID resolves an ID into an object, fetching its name and content
// type in one round trip.
func (c *Content) ObjectByID(ctx context.Context, id string) (*Object, error) {
	props, err := c.ObjectProperties(ctx, id, KeyObjectName, KeyObjectContentType)
	if err != nil {
		return nil, err
	}

	name, err := props.String(KeyObjectName)
	if err != nil {
		return nil, withObjectID(err, id)
	}
	tag, err := props.GUID(KeyObjectContentType)
	if err != nil {
		return nil, withObjectID(err, id)
	}

	return &Object{
		content:     c,
		id:          id,
		name:        name,
		contentType: ContentTypeFromGUID(tag),
	}, nil
}

// ObjectProperties fetches the given keys of an object in one round trip.
func (c *Content) ObjectProperties(ctx context.Context, id string, keys ...PropertyKey) (*PropertyBag, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	props, err := s.GetObjectProperties(ctx, id, keys)
	if err != nil {
		return nil, transportError("get-properties", id, err)
	}
	if props == nil {
		props = NewPropertyBag()
	}
	return props, nil
}
