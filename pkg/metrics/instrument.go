package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/mtpfs/pkg/mtp"
)

// InstrumentDriver returns d with every call observed by m. With a nil m, d
// is returned unchanged.
func InstrumentDriver(d mtp.Driver, m *Metrics) mtp.Driver {
	if m == nil {
		return d
	}
	return &driver{next: d, m: m}
}

type driver struct {
	next mtp.Driver
	m    *Metrics
}

func (d *driver) RefreshDeviceList(ctx context.Context) error {
	start := time.Now()
	err := d.next.RefreshDeviceList(ctx)
	d.m.ObserveCall(OpRefresh, time.Since(start), err)
	return err
}

func (d *driver) Devices(ctx context.Context, dst []string) (int, error) {
	start := time.Now()
	n, err := d.next.Devices(ctx, dst)
	d.m.ObserveCall(OpListDevices, time.Since(start), err)
	return n, err
}

func (d *driver) FriendlyName(ctx context.Context, deviceID string, dst []uint16) (int, error) {
	start := time.Now()
	n, err := d.next.FriendlyName(ctx, deviceID, dst)
	d.m.ObserveCall(OpFriendlyName, time.Since(start), err)
	return n, err
}

func (d *driver) OpenSession(ctx context.Context, deviceID string, client *mtp.PropertyBag) (mtp.Session, error) {
	start := time.Now()
	s, err := d.next.OpenSession(ctx, deviceID, client)
	d.m.ObserveCall(OpOpenSession, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	d.m.SessionOpened()
	return &session{next: s, m: d.m}, nil
}

type session struct {
	next      mtp.Session
	m         *Metrics
	closeOnce sync.Once
}

func (s *session) GetObjectProperties(ctx context.Context, objectID string, keys []mtp.PropertyKey) (*mtp.PropertyBag, error) {
	start := time.Now()
	props, err := s.next.GetObjectProperties(ctx, objectID, keys)
	s.m.ObserveCall(OpGetProperties, time.Since(start), err)
	return props, err
}

func (s *session) EnumerateObjects(ctx context.Context, parentID string) (mtp.ObjectIDCursor, error) {
	start := time.Now()
	cur, err := s.next.EnumerateObjects(ctx, parentID)
	s.m.ObserveCall(OpEnumerate, time.Since(start), err)
	if err != nil || cur == nil {
		return cur, err
	}
	return &cursor{next: cur, m: s.m}, nil
}

func (s *session) CreateObject(ctx context.Context, props *mtp.PropertyBag) (string, error) {
	start := time.Now()
	id, err := s.next.CreateObject(ctx, props)
	s.m.ObserveCall(OpCreateObject, time.Since(start), err)
	return id, err
}

func (s *session) CreateObjectWithData(ctx context.Context, props *mtp.PropertyBag) (mtp.RawStream, uint32, error) {
	start := time.Now()
	raw, chunk, err := s.next.CreateObjectWithData(ctx, props)
	s.m.ObserveCall(OpCreateObjectWithData, time.Since(start), err)
	return s.wrap(raw), chunk, err
}

func (s *session) DeleteObject(ctx context.Context, objectID string, recursive bool) error {
	start := time.Now()
	err := s.next.DeleteObject(ctx, objectID, recursive)
	s.m.ObserveCall(OpDeleteObject, time.Since(start), err)
	return err
}

func (s *session) MoveObject(ctx context.Context, objectID, newParentID string) error {
	start := time.Now()
	err := s.next.MoveObject(ctx, objectID, newParentID)
	s.m.ObserveCall(OpMoveObject, time.Since(start), err)
	return err
}

func (s *session) OpenResource(ctx context.Context, objectID string, mode mtp.AccessMode) (mtp.RawStream, uint32, error) {
	start := time.Now()
	raw, chunk, err := s.next.OpenResource(ctx, objectID, mode)
	s.m.ObserveCall(OpOpenResource, time.Since(start), err)
	return s.wrap(raw), chunk, err
}

func (s *session) Close() error {
	start := time.Now()
	err := s.next.Close()
	s.m.ObserveCall(OpCloseSession, time.Since(start), err)
	s.closeOnce.Do(s.m.SessionClosed)
	return err
}

// wrap keeps a nil stream nil so callers still see the driver's answer.
func (s *session) wrap(raw mtp.RawStream) mtp.RawStream {
	if raw == nil {
		return nil
	}
	return &stream{next: raw, m: s.m}
}

type cursor struct {
	next mtp.ObjectIDCursor
	m    *Metrics
}

func (c *cursor) Next(ctx context.Context, dst []string) (int, error) {
	start := time.Now()
	n, err := c.next.Next(ctx, dst)
	c.m.ObserveCall(OpEnumerateNext, time.Since(start), err)
	return n, err
}

func (c *cursor) Close() error {
	return c.next.Close()
}

type stream struct {
	next mtp.RawStream
	m    *Metrics
}

func (s *stream) ReadChunk(p []byte) (int, error) {
	start := time.Now()
	n, err := s.next.ReadChunk(p)
	s.m.ObserveCall(OpReadChunk, time.Since(start), err)
	s.m.RecordBytes(DirectionRead, n)
	return n, err
}

func (s *stream) WriteChunk(p []byte) (int, error) {
	start := time.Now()
	n, err := s.next.WriteChunk(p)
	s.m.ObserveCall(OpWriteChunk, time.Since(start), err)
	s.m.RecordBytes(DirectionWrite, n)
	return n, err
}

func (s *stream) Commit() error {
	start := time.Now()
	err := s.next.Commit()
	s.m.ObserveCall(OpCommit, time.Since(start), err)
	return err
}

func (s *stream) ObjectID() string {
	return s.next.ObjectID()
}

func (s *stream) Close() error {
	start := time.Now()
	err := s.next.Close()
	s.m.ObserveCall(OpCloseResource, time.Since(start), err)
	return err
}

var (
	_ mtp.Driver         = (*driver)(nil)
	_ mtp.Session        = (*session)(nil)
	_ mtp.ObjectIDCursor = (*cursor)(nil)
	_ mtp.RawStream      = (*stream)(nil)
)
