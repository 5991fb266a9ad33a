package emulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/bufpool"
	"github.com/marmos91/mtpfs/pkg/emulator/store"
	"github.com/marmos91/mtpfs/pkg/emulator/store/memory"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// Operation labels passed to a FaultFunc.
const (
	OpGetProperties        = "get_properties"
	OpEnumerate            = "enumerate"
	OpEnumerateNext        = "enumerate_next"
	OpCreateObject         = "create_object"
	OpCreateObjectWithData = "create_object_with_data"
	OpDeleteObject         = "delete_object"
	OpMoveObject           = "move_object"
	OpOpenResource         = "open_resource"
	OpReadChunk            = "read_chunk"
	OpWriteChunk           = "write_chunk"
	OpCommit               = "commit"
	OpCloseSession         = "close_session"
)

// DefaultStorageName names the storage created when a device is configured
// without any.
const DefaultStorageName = "Internal storage"

// FaultFunc is consulted before every session call. A non-nil return fails
// the call with that error. objectID is empty for calls that do not target
// an object.
type FaultFunc func(op, objectID string) error

// DeviceConfig describes an emulated device.
type DeviceConfig struct {
	// ID is the device identifier reported by the driver. Required.
	ID string

	// FriendlyName is the display name. Defaults to ID.
	FriendlyName string

	// Storages names the storage objects created under the root of a fresh
	// device. Defaults to a single DefaultStorageName.
	Storages []string

	// ChunkSize is the advised transfer size. Defaults to
	// bufpool.DefaultChunkSize.
	ChunkSize uint32

	// Objects holds the object tree. Defaults to an in-memory store.
	Objects store.ObjectStore

	// Blobs holds object data. Defaults to an in-memory store.
	Blobs store.BlobStore
}

// Device is one emulated portable device. Sessions opened on it share its
// tree; mutations are serialized.
type Device struct {
	id      string
	name    string
	chunk   uint32
	objects store.ObjectStore
	blobs   store.BlobStore

	mu       sync.Mutex
	fault    atomic.Pointer[FaultFunc]
	sessions atomic.Int32
	fresh    bool
	now      func() time.Time
}

// NewDevice opens a device over cfg's stores, creating the root object and
// storages if the object store is empty.
func NewDevice(ctx context.Context, cfg DeviceConfig) (*Device, error) {
	if cfg.ID == "" {
		return nil, errors.New("device id is required")
	}
	if cfg.FriendlyName == "" {
		cfg.FriendlyName = cfg.ID
	}
	if len(cfg.Storages) == 0 {
		cfg.Storages = []string{DefaultStorageName}
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = bufpool.DefaultChunkSize
	}
	if cfg.Objects == nil {
		cfg.Objects = memory.NewObjectStore()
	}
	if cfg.Blobs == nil {
		cfg.Blobs = memory.NewBlobStore()
	}

	d := &Device{
		id:      cfg.ID,
		name:    cfg.FriendlyName,
		chunk:   cfg.ChunkSize,
		objects: cfg.Objects,
		blobs:   cfg.Blobs,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := d.format(ctx, cfg.Storages); err != nil {
		return nil, fmt.Errorf("failed to initialize device %s: %w", cfg.ID, err)
	}
	return d, nil
}

// format creates the root and storage objects on an empty store.
func (d *Device) format(ctx context.Context, storages []string) error {
	_, err := d.objects.Get(ctx, mtp.RootObjectID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return err
	}

	now := d.now()
	root := &store.Record{
		ID:          mtp.RootObjectID,
		Name:        mtp.RootObjectID,
		ContentType: mtp.ContentTypeFunctionalObject.GUID(),
		Protected:   true,
		Created:     now,
		Modified:    now,
	}
	if err := d.objects.Put(ctx, root); err != nil {
		return err
	}
	for _, name := range storages {
		if _, err := d.addStorage(ctx, name); err != nil {
			return err
		}
	}
	d.fresh = true
	logger.Debug("Emulated device formatted", logger.KeyDeviceID, d.id, "storages", len(storages))
	return nil
}

func (d *Device) addStorage(ctx context.Context, name string) (*store.Record, error) {
	kids, err := d.objects.Children(ctx, mtp.RootObjectID)
	if err != nil {
		return nil, err
	}
	id, err := d.freeID(ctx, 10001+len(kids))
	if err != nil {
		return nil, err
	}
	now := d.now()
	rec := &store.Record{
		ID:          id,
		ParentID:    mtp.RootObjectID,
		Name:        name,
		ContentType: mtp.ContentTypeFunctionalObject.GUID(),
		Protected:   true,
		Created:     now,
		Modified:    now,
	}
	return rec, d.objects.Put(ctx, rec)
}

// freeID returns the first storage ID "s<n>" at or after n that is unused.
func (d *Device) freeID(ctx context.Context, n int) (string, error) {
	for ; ; n++ {
		id := fmt.Sprintf("s%d", n)
		_, err := d.objects.Get(ctx, id)
		if errors.Is(err, store.ErrRecordNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// FriendlyName returns the display name.
func (d *Device) FriendlyName() string { return d.name }

// ChunkSize returns the advised transfer size.
func (d *Device) ChunkSize() uint32 { return d.chunk }

// Fresh reports whether NewDevice formatted an empty store, as opposed to
// reopening a persisted tree.
func (d *Device) Fresh() bool { return d.fresh }

// OpenSessions returns the number of sessions not yet closed.
func (d *Device) OpenSessions() int { return int(d.sessions.Load()) }

// SetFault installs f as the fault hook. Passing nil removes it.
func (d *Device) SetFault(f FaultFunc) {
	if f == nil {
		d.fault.Store(nil)
		return
	}
	d.fault.Store(&f)
}

// FailOn makes every call labelled op fail with err until the hook is
// replaced.
func (d *Device) FailOn(op string, err error) {
	d.SetFault(func(got, _ string) error {
		if got == op {
			return err
		}
		return nil
	})
}

func (d *Device) inject(op, objectID string) error {
	if f := d.fault.Load(); f != nil {
		return (*f)(op, objectID)
	}
	return nil
}

// Storages returns the storage object IDs in creation order.
func (d *Device) Storages(ctx context.Context) ([]string, error) {
	return d.objects.Children(ctx, mtp.RootObjectID)
}

// Close releases the device's stores.
func (d *Device) Close() error {
	return errors.Join(d.objects.Close(), d.blobs.Close())
}

func (d *Device) record(ctx context.Context, id string) (*store.Record, error) {
	rec, err := d.objects.Get(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchObject, id)
	}
	return rec, err
}

func (d *Device) container(ctx context.Context, id string) (*store.Record, error) {
	rec, err := d.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mtp.ContentTypeFromGUID(rec.ContentType).IsContainer() {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, id)
	}
	return rec, nil
}

// properties renders a record as a property bag. With no keys every
// property the object carries is returned; otherwise the requested keys
// that are present, in request order.
func (d *Device) properties(ctx context.Context, id string, keys []mtp.PropertyKey) (*mtp.PropertyBag, error) {
	rec, err := d.record(ctx, id)
	if err != nil {
		return nil, err
	}

	ct := mtp.ContentTypeFromGUID(rec.ContentType)
	all := mtp.NewPropertyBag().
		SetString(mtp.KeyObjectID, rec.ID).
		SetString(mtp.KeyObjectParentID, rec.ParentID).
		SetString(mtp.KeyObjectName, rec.Name).
		SetString(mtp.KeyObjectPersistentID, rec.ID).
		SetGUID(mtp.KeyObjectContentType, rec.ContentType).
		SetBool(mtp.KeyObjectIsHidden, rec.Hidden)
	if ct.IsFileLike() {
		all.SetUint64(mtp.KeyObjectSize, rec.Size)
	}
	if rec.OriginalFileName != "" {
		all.SetString(mtp.KeyObjectOriginalFileName, rec.OriginalFileName)
	}
	all.SetString(mtp.KeyObjectDateCreated, rec.Created.Format(time.RFC3339)).
		SetString(mtp.KeyObjectDateModified, rec.Modified.Format(time.RFC3339)).
		SetBool(mtp.KeyObjectCanDelete, !rec.Protected)

	if len(keys) == 0 {
		return all, nil
	}
	out := mtp.NewPropertyBag()
	for _, k := range keys {
		if v, ok := all.Get(k); ok {
			out.Set(k, v)
		}
	}
	return out, nil
}

func (d *Device) children(ctx context.Context, parentID string) ([]string, error) {
	if _, err := d.record(ctx, parentID); err != nil {
		return nil, err
	}
	return d.objects.Children(ctx, parentID)
}

// createObject creates a data-less object. Only containers may be created
// this way.
func (d *Device) createObject(ctx context.Context, props *mtp.PropertyBag) (string, error) {
	if props == nil {
		return "", fmt.Errorf("%w: no properties", ErrInvalidProperties)
	}
	parentID, err := props.String(mtp.KeyObjectParentID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProperties, err)
	}
	name, err := props.String(mtp.KeyObjectName)
	if err != nil || name == "" {
		return "", fmt.Errorf("%w: object name is required", ErrInvalidProperties)
	}
	ct := mtp.ContentTypeFolder
	if props.Has(mtp.KeyObjectContentType) {
		g, err := props.GUID(mtp.KeyObjectContentType)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidProperties, err)
		}
		ct = mtp.ContentTypeFromGUID(g)
	}
	if !ct.IsContainer() {
		return "", fmt.Errorf("%w: %s objects need data", ErrInvalidProperties, ct)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.container(ctx, parentID); err != nil {
		return "", err
	}
	now := d.now()
	rec := &store.Record{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Name:        name,
		ContentType: ct.GUID(),
		Created:     now,
		Modified:    now,
	}
	if err := d.objects.Put(ctx, rec); err != nil {
		return "", err
	}
	logger.DebugCtx(ctx, "Emulator object created",
		logger.KeyDeviceID, d.id,
		logger.KeyObjectID, rec.ID,
		logger.KeyParentID, parentID,
		logger.KeyObjectName, name,
		logger.KeyContentType, ct.String())
	return rec.ID, nil
}

// prepareUpload validates a create-with-data bag and returns the record to
// store on commit. Nothing is persisted yet.
func (d *Device) prepareUpload(ctx context.Context, props *mtp.PropertyBag) (*store.Record, error) {
	if props == nil {
		return nil, fmt.Errorf("%w: no properties", ErrInvalidProperties)
	}
	parentID, err := props.String(mtp.KeyObjectParentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProperties, err)
	}
	size, err := props.Uint64(mtp.KeyObjectSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProperties, err)
	}
	original, _ := props.String(mtp.KeyObjectOriginalFileName)
	name, _ := props.String(mtp.KeyObjectName)
	if name == "" {
		name = original
	}
	if name == "" {
		return nil, fmt.Errorf("%w: object name is required", ErrInvalidProperties)
	}

	ct := InferContentType(name)
	if props.Has(mtp.KeyObjectContentType) {
		g, err := props.GUID(mtp.KeyObjectContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProperties, err)
		}
		ct = mtp.ContentTypeFromGUID(g)
	}
	if !ct.IsFileLike() {
		return nil, fmt.Errorf("%w: %s objects carry no data", ErrInvalidProperties, ct)
	}

	if _, err := d.container(ctx, parentID); err != nil {
		return nil, err
	}
	return &store.Record{
		ID:               uuid.NewString(),
		ParentID:         parentID,
		Name:             name,
		ContentType:      ct.GUID(),
		Size:             size,
		OriginalFileName: original,
	}, nil
}

// commitData stores data for rec and then the record itself, making the
// object visible.
func (d *Device) commitData(ctx context.Context, rec *store.Record, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.container(ctx, rec.ParentID); err != nil {
		return err
	}
	now := d.now()
	if rec.Created.IsZero() {
		rec.Created = now
	}
	rec.Modified = now
	rec.Size = uint64(len(data))
	if rec.ContentType == mtp.ContentTypeGenericFile.GUID() && len(data) > 0 {
		rec.ContentType = SniffContentType(data).GUID()
	}

	if err := d.blobs.Put(ctx, rec.ID, data); err != nil {
		return fmt.Errorf("failed to store data of %s: %w", rec.ID, err)
	}
	if err := d.objects.Put(ctx, rec); err != nil {
		return err
	}
	logger.DebugCtx(ctx, "Emulator data committed",
		logger.KeyDeviceID, d.id,
		logger.KeyObjectID, rec.ID,
		logger.KeyObjectName, rec.Name,
		logger.KeySize, rec.Size)
	return nil
}

// replaceData overwrites the data of an existing object.
func (d *Device) replaceData(ctx context.Context, id string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.record(ctx, id)
	if err != nil {
		return err
	}
	rec.Size = uint64(len(data))
	rec.Modified = d.now()
	if err := d.blobs.Put(ctx, id, data); err != nil {
		return fmt.Errorf("failed to store data of %s: %w", id, err)
	}
	return d.objects.Put(ctx, rec)
}

func (d *Device) data(ctx context.Context, id string) ([]byte, error) {
	data, err := d.blobs.Get(ctx, id)
	if errors.Is(err, store.ErrBlobNotFound) {
		return nil, nil
	}
	return data, err
}

func (d *Device) deleteObject(ctx context.Context, id string, recursive bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.record(ctx, id)
	if err != nil {
		return err
	}
	if rec.Protected {
		return fmt.Errorf("%w: %s", ErrProtectedObject, id)
	}
	kids, err := d.objects.Children(ctx, id)
	if err != nil {
		return err
	}
	if len(kids) > 0 && !recursive {
		return fmt.Errorf("%w: %s has %d children", ErrNotEmpty, id, len(kids))
	}
	return d.removeTree(ctx, id)
}

// removeTree deletes id and its descendants, children first. Callers hold mu.
func (d *Device) removeTree(ctx context.Context, id string) error {
	kids, err := d.objects.Children(ctx, id)
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if err := d.removeTree(ctx, kid); err != nil {
			return err
		}
	}
	if err := d.blobs.Delete(ctx, id); err != nil {
		return err
	}
	return d.objects.Delete(ctx, id)
}

func (d *Device) moveObject(ctx context.Context, id, newParentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.record(ctx, id)
	if err != nil {
		return err
	}
	if rec.Protected {
		return fmt.Errorf("%w: %s", ErrProtectedObject, id)
	}
	if _, err := d.container(ctx, newParentID); err != nil {
		return err
	}

	// Walk up from the destination; reaching id means a cycle.
	for cur := newParentID; cur != ""; {
		if cur == id {
			return fmt.Errorf("%w: %s", ErrMoveIntoSelf, id)
		}
		r, err := d.record(ctx, cur)
		if err != nil {
			return err
		}
		cur = r.ParentID
	}

	if rec.ParentID == newParentID {
		return nil
	}
	rec.ParentID = newParentID
	rec.Modified = d.now()
	return d.objects.Put(ctx, rec)
}
