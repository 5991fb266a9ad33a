package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/mtpfs/pkg/mtp"
)

// Attribute keys for device round trips.
const (
	AttrDeviceID    = "mtp.device_id"
	AttrObjectID    = "mtp.object_id"
	AttrParentID    = "mtp.parent_id"
	AttrObjectName  = "mtp.object_name"
	AttrKeyCount    = "mtp.key_count"
	AttrRecursive   = "mtp.recursive"
	AttrAccessMode  = "mtp.access_mode"
	AttrChunkSize   = "mtp.chunk_size"
	AttrIDCount     = "mtp.id_count"
	AttrChunks      = "mtp.chunks"
	AttrBytesRead   = "mtp.bytes_read"
	AttrBytesWrite  = "mtp.bytes_written"
	AttrCommitted   = "mtp.committed"
	AttrClientName  = "mtp.client_name"
	AttrDeviceCount = "mtp.device_count"
)

// Span names, one per native call. Streams get a single span covering the
// handle from open to close.
const (
	SpanRefreshDevices   = "mtp.RefreshDeviceList"
	SpanDevices          = "mtp.Devices"
	SpanFriendlyName     = "mtp.FriendlyName"
	SpanOpenSession      = "mtp.OpenSession"
	SpanCloseSession     = "mtp.CloseSession"
	SpanGetProperties    = "mtp.GetObjectProperties"
	SpanEnumerate        = "mtp.EnumerateObjects"
	SpanEnumerateNext    = "mtp.EnumerateNext"
	SpanCreateObject     = "mtp.CreateObject"
	SpanCreateWithData   = "mtp.CreateObjectWithData"
	SpanDeleteObject     = "mtp.DeleteObject"
	SpanMoveObject       = "mtp.MoveObject"
	SpanOpenResource     = "mtp.OpenResource"
	SpanResourceTransfer = "mtp.Transfer"
)

// DeviceID creates a device identifier attribute.
func DeviceID(id string) attribute.KeyValue {
	return attribute.String(AttrDeviceID, id)
}

// ObjectID creates an object identifier attribute.
func ObjectID(id string) attribute.KeyValue {
	return attribute.String(AttrObjectID, id)
}

// ParentID creates a parent identifier attribute.
func ParentID(id string) attribute.KeyValue {
	return attribute.String(AttrParentID, id)
}

// ObjectName creates an object name attribute.
func ObjectName(name string) attribute.KeyValue {
	return attribute.String(AttrObjectName, name)
}

// TraceDriver returns d with every native call recorded as a span of the
// global tracer.
func TraceDriver(d mtp.Driver) mtp.Driver {
	return &driver{next: d}
}

type driver struct {
	next mtp.Driver
}

// observe runs fn inside a span and records its error.
func observe(ctx context.Context, name string, fn func(ctx context.Context, span trace.Span) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()
	err := fn(ctx, span)
	if err != nil {
		endWithError(span, err)
	}
	return err
}

func (d *driver) RefreshDeviceList(ctx context.Context) error {
	return observe(ctx, SpanRefreshDevices, func(ctx context.Context, _ trace.Span) error {
		return d.next.RefreshDeviceList(ctx)
	})
}

func (d *driver) Devices(ctx context.Context, dst []string) (n int, err error) {
	err = observe(ctx, SpanDevices, func(ctx context.Context, span trace.Span) error {
		n, err = d.next.Devices(ctx, dst)
		span.SetAttributes(attribute.Int(AttrDeviceCount, n))
		return err
	}, attribute.Int(AttrIDCount, len(dst)))
	return n, err
}

func (d *driver) FriendlyName(ctx context.Context, deviceID string, dst []uint16) (n int, err error) {
	err = observe(ctx, SpanFriendlyName, func(ctx context.Context, _ trace.Span) error {
		n, err = d.next.FriendlyName(ctx, deviceID, dst)
		return err
	}, DeviceID(deviceID))
	return n, err
}

func (d *driver) OpenSession(ctx context.Context, deviceID string, client *mtp.PropertyBag) (mtp.Session, error) {
	attrs := []attribute.KeyValue{DeviceID(deviceID)}
	if name, err := client.String(mtp.KeyClientName); err == nil {
		attrs = append(attrs, attribute.String(AttrClientName, name))
	}

	var s mtp.Session
	err := observe(ctx, SpanOpenSession, func(ctx context.Context, _ trace.Span) (err error) {
		s, err = d.next.OpenSession(ctx, deviceID, client)
		return err
	}, attrs...)
	if err != nil {
		return nil, err
	}
	return &session{next: s, deviceID: deviceID}, nil
}

type session struct {
	next     mtp.Session
	deviceID string
}

func (s *session) GetObjectProperties(ctx context.Context, objectID string, keys []mtp.PropertyKey) (props *mtp.PropertyBag, err error) {
	err = observe(ctx, SpanGetProperties, func(ctx context.Context, _ trace.Span) error {
		props, err = s.next.GetObjectProperties(ctx, objectID, keys)
		return err
	}, DeviceID(s.deviceID), ObjectID(objectID), attribute.Int(AttrKeyCount, len(keys)))
	return props, err
}

func (s *session) EnumerateObjects(ctx context.Context, parentID string) (cur mtp.ObjectIDCursor, err error) {
	err = observe(ctx, SpanEnumerate, func(ctx context.Context, _ trace.Span) error {
		cur, err = s.next.EnumerateObjects(ctx, parentID)
		return err
	}, DeviceID(s.deviceID), ParentID(parentID))
	if err != nil || cur == nil {
		return cur, err
	}
	return &cursor{next: cur, deviceID: s.deviceID, parentID: parentID}, nil
}

func (s *session) CreateObject(ctx context.Context, props *mtp.PropertyBag) (id string, err error) {
	err = observe(ctx, SpanCreateObject, func(ctx context.Context, span trace.Span) error {
		id, err = s.next.CreateObject(ctx, props)
		span.SetAttributes(ObjectID(id))
		return err
	}, s.createAttrs(props)...)
	return id, err
}

func (s *session) CreateObjectWithData(ctx context.Context, props *mtp.PropertyBag) (raw mtp.RawStream, chunk uint32, err error) {
	err = observe(ctx, SpanCreateWithData, func(ctx context.Context, span trace.Span) error {
		raw, chunk, err = s.next.CreateObjectWithData(ctx, props)
		span.SetAttributes(attribute.Int64(AttrChunkSize, int64(chunk)))
		return err
	}, s.createAttrs(props)...)
	return s.wrap(ctx, raw, "", mtp.ModeWrite), chunk, err
}

func (s *session) createAttrs(props *mtp.PropertyBag) []attribute.KeyValue {
	attrs := []attribute.KeyValue{DeviceID(s.deviceID)}
	if parent, err := props.String(mtp.KeyObjectParentID); err == nil {
		attrs = append(attrs, ParentID(parent))
	}
	name, err := props.String(mtp.KeyObjectName)
	if err != nil {
		name, err = props.String(mtp.KeyObjectOriginalFileName)
	}
	if err == nil {
		attrs = append(attrs, ObjectName(name))
	}
	return attrs
}

func (s *session) DeleteObject(ctx context.Context, objectID string, recursive bool) error {
	return observe(ctx, SpanDeleteObject, func(ctx context.Context, _ trace.Span) error {
		return s.next.DeleteObject(ctx, objectID, recursive)
	}, DeviceID(s.deviceID), ObjectID(objectID), attribute.Bool(AttrRecursive, recursive))
}

func (s *session) MoveObject(ctx context.Context, objectID, newParentID string) error {
	return observe(ctx, SpanMoveObject, func(ctx context.Context, _ trace.Span) error {
		return s.next.MoveObject(ctx, objectID, newParentID)
	}, DeviceID(s.deviceID), ObjectID(objectID), ParentID(newParentID))
}

func (s *session) OpenResource(ctx context.Context, objectID string, mode mtp.AccessMode) (raw mtp.RawStream, chunk uint32, err error) {
	err = observe(ctx, SpanOpenResource, func(ctx context.Context, span trace.Span) error {
		raw, chunk, err = s.next.OpenResource(ctx, objectID, mode)
		span.SetAttributes(attribute.Int64(AttrChunkSize, int64(chunk)))
		return err
	}, DeviceID(s.deviceID), ObjectID(objectID), attribute.Int(AttrAccessMode, int(mode)))
	return s.wrap(ctx, raw, objectID, mode), chunk, err
}

func (s *session) Close() error {
	return observe(context.Background(), SpanCloseSession, func(context.Context, trace.Span) error {
		return s.next.Close()
	}, DeviceID(s.deviceID))
}

// wrap keeps a nil stream nil so callers still see the driver's answer.
func (s *session) wrap(ctx context.Context, raw mtp.RawStream, objectID string, mode mtp.AccessMode) mtp.RawStream {
	if raw == nil {
		return nil
	}
	attrs := []attribute.KeyValue{DeviceID(s.deviceID), attribute.Int(AttrAccessMode, int(mode))}
	if objectID != "" {
		attrs = append(attrs, ObjectID(objectID))
	}
	_, span := StartSpan(ctx, SpanResourceTransfer, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	return &stream{next: raw, span: span}
}

type cursor struct {
	next     mtp.ObjectIDCursor
	deviceID string
	parentID string
}

func (c *cursor) Next(ctx context.Context, dst []string) (n int, err error) {
	err = observe(ctx, SpanEnumerateNext, func(ctx context.Context, span trace.Span) error {
		n, err = c.next.Next(ctx, dst)
		span.SetAttributes(attribute.Int(AttrIDCount, n))
		return err
	}, DeviceID(c.deviceID), ParentID(c.parentID))
	return n, err
}

func (c *cursor) Close() error {
	return c.next.Close()
}

// stream accumulates chunk counters on one span, ended by Close.
type stream struct {
	next mtp.RawStream
	span trace.Span

	mu        sync.Mutex
	chunks    int
	read      int64
	written   int64
	committed bool
	closeOnce sync.Once
}

func (s *stream) ReadChunk(p []byte) (int, error) {
	n, err := s.next.ReadChunk(p)
	s.count(&s.read, n, err)
	return n, err
}

func (s *stream) WriteChunk(p []byte) (int, error) {
	n, err := s.next.WriteChunk(p)
	s.count(&s.written, n, err)
	return n, err
}

func (s *stream) count(total *int64, n int, err error) {
	s.mu.Lock()
	s.chunks++
	*total += int64(n)
	s.mu.Unlock()
	if err != nil {
		endWithError(s.span, err)
	}
}

func (s *stream) Commit() error {
	err := s.next.Commit()
	if err != nil {
		endWithError(s.span, err)
		return err
	}
	s.mu.Lock()
	s.committed = true
	s.mu.Unlock()
	s.span.AddEvent("committed", trace.WithAttributes(ObjectID(s.next.ObjectID())))
	return nil
}

func (s *stream) ObjectID() string {
	return s.next.ObjectID()
}

func (s *stream) Close() error {
	err := s.next.Close()
	s.closeOnce.Do(func() {
		if err != nil {
			endWithError(s.span, err)
		}
		s.mu.Lock()
		s.span.SetAttributes(
			attribute.Int(AttrChunks, s.chunks),
			attribute.Int64(AttrBytesRead, s.read),
			attribute.Int64(AttrBytesWrite, s.written),
			attribute.Bool(AttrCommitted, s.committed),
		)
		s.mu.Unlock()
		s.span.End()
	})
	return err
}

var (
	_ mtp.Driver         = (*driver)(nil)
	_ mtp.Session        = (*session)(nil)
	_ mtp.ObjectIDCursor = (*cursor)(nil)
	_ mtp.RawStream      = (*stream)(nil)
)
