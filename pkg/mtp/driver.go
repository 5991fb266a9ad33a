package mtp

import "context"

// AccessMode selects how a resource handle is opened.
type AccessMode uint32

const (
	ModeRead      AccessMode = 0
	ModeWrite     AccessMode = 1
	ModeReadWrite AccessMode = 2
)

func (m AccessMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

// DeviceManager discovers attached devices.
//
// The counted queries follow the two-phase convention of the native API:
// called with an empty dst they report the number of elements available;
// called with a dst of that length they fill it and report the number of
// elements available at the time of the second call. Implementations never
// write past len(dst).
type DeviceManager interface {
	// RefreshDeviceList rescans for attached devices.
	RefreshDeviceList(ctx context.Context) error

	// Devices reports the identifiers of attached devices.
	Devices(ctx context.Context, dst []string) (int, error)

	// FriendlyName reports a device's display name as UTF-16 code units,
	// including the NUL terminator.
	FriendlyName(ctx context.Context, deviceID string, dst []uint16) (int, error)
}

// Driver is the native call surface of a device protocol stack.
type Driver interface {
	DeviceManager

	// OpenSession opens a session on a device, presenting the client
	// information bag built from ClientInfo.
	OpenSession(ctx context.Context, deviceID string, client *PropertyBag) (Session, error)
}

// Session is one open connection to a device's content tree. Every method is
// a blocking round trip. A Session is not safe for concurrent use.
type Session interface {
	// GetObjectProperties fetches the requested keys of one object. Keys the
	// object does not carry are absent from the returned bag.
	GetObjectProperties(ctx context.Context, objectID string, keys []PropertyKey) (*PropertyBag, error)

	// EnumerateObjects opens a cursor over the child IDs of parentID.
	EnumerateObjects(ctx context.Context, parentID string) (ObjectIDCursor, error)

	// CreateObject creates an object described only by properties and
	// returns its ID.
	CreateObject(ctx context.Context, props *PropertyBag) (string, error)

	// CreateObjectWithData allocates an object and returns a write handle to
	// its data plus the advised transfer chunk size. The object exists once
	// the handle is committed.
	CreateObjectWithData(ctx context.Context, props *PropertyBag) (RawStream, uint32, error)

	// DeleteObject removes an object. Containers with children are only
	// removed when recursive is set.
	DeleteObject(ctx context.Context, objectID string, recursive bool) error

	// MoveObject re-parents an object.
	MoveObject(ctx context.Context, objectID, newParentID string) error

	// OpenResource opens a handle on an object's primary data and returns it
	// with the advised transfer chunk size.
	OpenResource(ctx context.Context, objectID string, mode AccessMode) (RawStream, uint32, error)

	// Close ends the session.
	Close() error
}

// ObjectIDCursor is a device-side enumeration cursor. Next fills dst with up
// to len(dst) IDs and reports how many were written; fewer than requested
// means the enumeration is exhausted.
type ObjectIDCursor interface {
	Next(ctx context.Context, dst []string) (int, error)
	Close() error
}

// RawStream is an opaque transfer handle. The context of the call that
// opened it governs every chunk transfer.
type RawStream interface {
	// ReadChunk performs one transfer into p. A short or zero-length read
	// means the data is exhausted.
	ReadChunk(p []byte) (int, error)

	// WriteChunk performs one transfer from p.
	WriteChunk(p []byte) (int, error)

	// Commit finalizes written data.
	Commit() error

	// ObjectID returns the ID of the object behind the handle. For a handle
	// returned by CreateObjectWithData it is known once Commit succeeds.
	ObjectID() string

	// Close releases the handle. Uncommitted writes are discarded.
	Close() error
}
