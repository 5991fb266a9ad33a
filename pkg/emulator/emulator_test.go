package emulator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/emulator/store/badger"
	"github.com/marmos91/mtpfs/pkg/emulator/store/fs"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

const chunk = 16

type fixture struct {
	emu     *emulator.Emulator
	dev     *emulator.Device
	sess    mtp.Session
	storage string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()

	dev, err := emulator.NewDevice(ctx, emulator.DeviceConfig{
		ID:           "usb#test",
		FriendlyName: "Test Phone",
		ChunkSize:    chunk,
	})
	require.NoError(t, err)

	emu, err := emulator.New(dev)
	require.NoError(t, err)
	t.Cleanup(func() { _ = emu.Close() })

	sess, err := emu.OpenSession(ctx, dev.ID(), mtp.ClientInfo{Name: "test", Major: 1}.Values())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	storages, err := dev.Storages(ctx)
	require.NoError(t, err)
	require.Len(t, storages, 1)

	return &fixture{emu: emu, dev: dev, sess: sess, storage: storages[0]}
}

func (f *fixture) mkdir(t *testing.T, parent, name string) string {
	t.Helper()
	id, err := f.sess.CreateObject(t.Context(), mtp.NewPropertyBag().
		SetString(mtp.KeyObjectParentID, parent).
		SetString(mtp.KeyObjectName, name).
		SetGUID(mtp.KeyObjectContentType, mtp.ContentTypeFolder.GUID()))
	require.NoError(t, err)
	return id
}

func (f *fixture) upload(t *testing.T, parent, name, data string) string {
	t.Helper()
	raw, _, err := f.sess.CreateObjectWithData(t.Context(), mtp.NewPropertyBag().
		SetString(mtp.KeyObjectParentID, parent).
		SetUint64(mtp.KeyObjectSize, uint64(len(data))).
		SetString(mtp.KeyObjectOriginalFileName, name))
	require.NoError(t, err)
	defer raw.Close()

	for p := []byte(data); len(p) > 0; {
		n, err := raw.WriteChunk(p)
		require.NoError(t, err)
		p = p[n:]
	}
	require.NoError(t, raw.Commit())
	return raw.ObjectID()
}

func (f *fixture) children(t *testing.T, parent string) []string {
	t.Helper()
	cur, err := f.sess.EnumerateObjects(t.Context(), parent)
	require.NoError(t, err)
	defer cur.Close()

	var ids []string
	buf := make([]string, 2)
	for {
		n, err := cur.Next(t.Context(), buf)
		require.NoError(t, err)
		ids = append(ids, buf[:n]...)
		if n < len(buf) {
			return ids
		}
	}
}

func (f *fixture) read(t *testing.T, id string) string {
	t.Helper()
	raw, _, err := f.sess.OpenResource(t.Context(), id, mtp.ModeRead)
	require.NoError(t, err)
	defer raw.Close()

	var sb strings.Builder
	buf := make([]byte, 5)
	for {
		n, err := raw.ReadChunk(buf)
		require.NoError(t, err)
		sb.Write(buf[:n])
		if n < len(buf) {
			return sb.String()
		}
	}
}

func TestNewDevice_FormatsRootAndStorage(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	root, err := f.sess.GetObjectProperties(ctx, mtp.RootObjectID, nil)
	require.NoError(t, err)
	name, err := root.String(mtp.KeyObjectName)
	require.NoError(t, err)
	assert.Equal(t, mtp.RootObjectID, name)
	ct, err := root.GUID(mtp.KeyObjectContentType)
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypeFunctionalObject.GUID(), ct)
	parent, err := root.String(mtp.KeyObjectParentID)
	require.NoError(t, err)
	assert.Empty(t, parent)
	canDelete, err := root.Bool(mtp.KeyObjectCanDelete)
	require.NoError(t, err)
	assert.False(t, canDelete)

	storage, err := f.sess.GetObjectProperties(ctx, f.storage, []mtp.PropertyKey{mtp.KeyObjectName, mtp.KeyObjectSize})
	require.NoError(t, err)
	name, err = storage.String(mtp.KeyObjectName)
	require.NoError(t, err)
	assert.Equal(t, emulator.DefaultStorageName, name)
	assert.False(t, storage.Has(mtp.KeyObjectSize), "containers carry no size")
	assert.Equal(t, 1, storage.Len())
}

func TestNewDevice_RequiresID(t *testing.T) {
	_, err := emulator.NewDevice(t.Context(), emulator.DeviceConfig{})
	assert.Error(t, err)
}

func TestDevicesAndFriendlyName(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	n, err := f.emu.Devices(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids := make([]string, n)
	n, err = f.emu.Devices(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"usb#test"}, ids)

	n, err = f.emu.FriendlyName(ctx, "usb#test", nil)
	require.NoError(t, err)
	units := make([]uint16, n)
	_, err = f.emu.FriendlyName(ctx, "usb#test", units)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), units[len(units)-1], "name is NUL terminated")
	assert.Equal(t, "Test Phone", string(utf16.Decode(units[:len(units)-1])))

	_, err = f.emu.FriendlyName(ctx, "missing", nil)
	assert.ErrorIs(t, err, emulator.ErrNoSuchDevice)
}

func TestAttachDetach(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	other, err := emulator.NewDevice(ctx, emulator.DeviceConfig{ID: "usb#other"})
	require.NoError(t, err)
	require.NoError(t, f.emu.Attach(other))
	assert.ErrorIs(t, f.emu.Attach(other), emulator.ErrDuplicateDevice)

	n, err := f.emu.Devices(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := f.emu.Detach("usb#other")
	assert.True(t, ok)
	n, err = f.emu.Devices(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.emu.OpenSession(ctx, "usb#other", nil)
	assert.ErrorIs(t, err, emulator.ErrNoSuchDevice)
}

func TestEnumerate_InsertionOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)

	c := f.mkdir(t, f.storage, "c")
	a := f.mkdir(t, f.storage, "a")
	dup := f.mkdir(t, f.storage, "c")
	file := f.upload(t, f.storage, "b.txt", "hello")

	assert.Equal(t, []string{c, a, dup, file}, f.children(t, f.storage))
	assert.NotEqual(t, c, dup)
	assert.Empty(t, f.children(t, a))
}

func TestEnumerate_MissingParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.sess.EnumerateObjects(t.Context(), "missing")
	assert.ErrorIs(t, err, emulator.ErrNoSuchObject)
}

func TestCreateObject_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	file := f.upload(t, f.storage, "a.txt", "x")

	tests := []struct {
		name  string
		props *mtp.PropertyBag
		want  error
	}{
		{"NoParent", mtp.NewPropertyBag().SetString(mtp.KeyObjectName, "x"), emulator.ErrInvalidProperties},
		{"NoName", mtp.NewPropertyBag().SetString(mtp.KeyObjectParentID, f.storage), emulator.ErrInvalidProperties},
		{"MissingParent", mtp.NewPropertyBag().
			SetString(mtp.KeyObjectParentID, "missing").
			SetString(mtp.KeyObjectName, "x"), emulator.ErrNoSuchObject},
		{"ParentIsFile", mtp.NewPropertyBag().
			SetString(mtp.KeyObjectParentID, file).
			SetString(mtp.KeyObjectName, "x"), emulator.ErrNotContainer},
		{"FileWithoutData", mtp.NewPropertyBag().
			SetString(mtp.KeyObjectParentID, f.storage).
			SetString(mtp.KeyObjectName, "x").
			SetGUID(mtp.KeyObjectContentType, mtp.ContentTypeImage.GUID()), emulator.ErrInvalidProperties},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sess.CreateObject(ctx, tt.props)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpload_VisibleOnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	raw, advised, err := f.sess.CreateObjectWithData(ctx, mtp.NewPropertyBag().
		SetString(mtp.KeyObjectParentID, f.storage).
		SetUint64(mtp.KeyObjectSize, 5).
		SetString(mtp.KeyObjectOriginalFileName, "some_playlist.m3u"))
	require.NoError(t, err)
	defer raw.Close()
	assert.Equal(t, uint32(chunk), advised)

	n, err := raw.WriteChunk([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, raw.ObjectID())
	assert.Empty(t, f.children(t, f.storage), "uncommitted object is invisible")

	require.NoError(t, raw.Commit())
	id := raw.ObjectID()
	require.NotEmpty(t, id)
	assert.Equal(t, []string{id}, f.children(t, f.storage))
	assert.ErrorIs(t, raw.Commit(), emulator.ErrAlreadyCommitted)

	props, err := f.sess.GetObjectProperties(ctx, id, nil)
	require.NoError(t, err)
	size, err := props.Uint64(mtp.KeyObjectSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)
	ct, err := props.GUID(mtp.KeyObjectContentType)
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypePlaylist.GUID(), ct)
	name, err := props.String(mtp.KeyObjectName)
	require.NoError(t, err)
	assert.Equal(t, "some_playlist.m3u", name, "name falls back to the original file name")

	assert.Equal(t, "hello", f.read(t, id))
}

func TestUpload_CloseWithoutCommitDiscards(t *testing.T) {
	f := newFixture(t)

	raw, _, err := f.sess.CreateObjectWithData(t.Context(), mtp.NewPropertyBag().
		SetString(mtp.KeyObjectParentID, f.storage).
		SetUint64(mtp.KeyObjectSize, 3).
		SetString(mtp.KeyObjectOriginalFileName, "a.bin"))
	require.NoError(t, err)
	_, err = raw.WriteChunk([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	assert.Empty(t, f.children(t, f.storage))
	_, err = raw.WriteChunk([]byte("x"))
	assert.ErrorIs(t, err, emulator.ErrHandleClosed)
}

func TestUpload_SizeMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	open := func() mtp.RawStream {
		raw, _, err := f.sess.CreateObjectWithData(ctx, mtp.NewPropertyBag().
			SetString(mtp.KeyObjectParentID, f.storage).
			SetUint64(mtp.KeyObjectSize, 4).
			SetString(mtp.KeyObjectOriginalFileName, "a.bin"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = raw.Close() })
		return raw
	}

	short := open()
	_, err := short.WriteChunk([]byte("ab"))
	require.NoError(t, err)
	assert.ErrorIs(t, short.Commit(), emulator.ErrSizeMismatch)

	long := open()
	_, err = long.WriteChunk([]byte("abcdef"))
	assert.ErrorIs(t, err, emulator.ErrSizeMismatch)

	assert.Empty(t, f.children(t, f.storage))
}

func TestUpload_ChunkedWrites(t *testing.T) {
	f := newFixture(t)
	data := strings.Repeat("x", chunk*3+1)

	raw, _, err := f.sess.CreateObjectWithData(t.Context(), mtp.NewPropertyBag().
		SetString(mtp.KeyObjectParentID, f.storage).
		SetUint64(mtp.KeyObjectSize, uint64(len(data))).
		SetString(mtp.KeyObjectOriginalFileName, "big.bin"))
	require.NoError(t, err)
	defer raw.Close()

	n, err := raw.WriteChunk([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, chunk, n, "one call transfers at most one chunk")
}

func TestOpenResource(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	folder := f.mkdir(t, f.storage, "dir")
	file := f.upload(t, f.storage, "a.txt", "original")

	_, _, err := f.sess.OpenResource(ctx, folder, mtp.ModeRead)
	assert.ErrorIs(t, err, emulator.ErrNoResource)

	_, _, err = f.sess.OpenResource(ctx, "missing", mtp.ModeRead)
	assert.ErrorIs(t, err, emulator.ErrNoSuchObject)

	ro, _, err := f.sess.OpenResource(ctx, file, mtp.ModeRead)
	require.NoError(t, err)
	_, err = ro.WriteChunk([]byte("x"))
	assert.ErrorIs(t, err, emulator.ErrAccessDenied)
	require.NoError(t, ro.Close())

	wo, _, err := f.sess.OpenResource(ctx, file, mtp.ModeWrite)
	require.NoError(t, err)
	_, err = wo.ReadChunk(make([]byte, 4))
	assert.ErrorIs(t, err, emulator.ErrAccessDenied)
	_, err = wo.WriteChunk([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, wo.Commit())
	require.NoError(t, wo.Close())

	assert.Equal(t, "new", f.read(t, file))
	props, err := f.sess.GetObjectProperties(ctx, file, []mtp.PropertyKey{mtp.KeyObjectSize})
	require.NoError(t, err)
	size, err := props.Uint64(mtp.KeyObjectSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), size)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	dir := f.mkdir(t, f.storage, "dir")
	sub := f.mkdir(t, dir, "sub")
	file := f.upload(t, sub, "a.txt", "x")

	assert.ErrorIs(t, f.sess.DeleteObject(ctx, dir, false), emulator.ErrNotEmpty)
	require.NoError(t, f.sess.DeleteObject(ctx, dir, true))

	for _, id := range []string{dir, sub, file} {
		_, err := f.sess.GetObjectProperties(ctx, id, nil)
		assert.ErrorIs(t, err, emulator.ErrNoSuchObject, id)
	}
	assert.Empty(t, f.children(t, f.storage))

	empty := f.mkdir(t, f.storage, "empty")
	assert.NoError(t, f.sess.DeleteObject(ctx, empty, false))

	assert.ErrorIs(t, f.sess.DeleteObject(ctx, mtp.RootObjectID, true), emulator.ErrProtectedObject)
	assert.ErrorIs(t, f.sess.DeleteObject(ctx, f.storage, true), emulator.ErrProtectedObject)
	assert.ErrorIs(t, f.sess.DeleteObject(ctx, "missing", false), emulator.ErrNoSuchObject)
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	a := f.mkdir(t, f.storage, "a")
	b := f.mkdir(t, f.storage, "b")
	child := f.mkdir(t, a, "child")
	file := f.upload(t, f.storage, "f.txt", "x")

	require.NoError(t, f.sess.MoveObject(ctx, a, b))
	assert.Equal(t, []string{b, file}, f.children(t, f.storage))
	assert.Equal(t, []string{a}, f.children(t, b))

	props, err := f.sess.GetObjectProperties(ctx, a, []mtp.PropertyKey{mtp.KeyObjectParentID})
	require.NoError(t, err)
	parent, err := props.String(mtp.KeyObjectParentID)
	require.NoError(t, err)
	assert.Equal(t, b, parent)

	assert.ErrorIs(t, f.sess.MoveObject(ctx, b, child), emulator.ErrMoveIntoSelf)
	assert.ErrorIs(t, f.sess.MoveObject(ctx, b, b), emulator.ErrMoveIntoSelf)
	assert.ErrorIs(t, f.sess.MoveObject(ctx, a, file), emulator.ErrNotContainer)
	assert.ErrorIs(t, f.sess.MoveObject(ctx, f.storage, b), emulator.ErrProtectedObject)
}

func TestFaultInjection(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	boom := errors.New("device unplugged")

	f.dev.FailOn(emulator.OpEnumerateNext, boom)
	cur, err := f.sess.EnumerateObjects(ctx, f.storage)
	require.NoError(t, err)
	_, err = cur.Next(ctx, make([]string, 1))
	assert.ErrorIs(t, err, boom)

	var seen []string
	f.dev.SetFault(func(op, id string) error {
		seen = append(seen, op+":"+id)
		return nil
	})
	_, err = f.sess.GetObjectProperties(ctx, f.storage, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{emulator.OpGetProperties + ":" + f.storage}, seen)

	f.dev.SetFault(nil)
	_, err = f.sess.GetObjectProperties(ctx, f.storage, nil)
	assert.NoError(t, err)
}

func TestSessionClose(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	assert.Equal(t, 1, f.dev.OpenSessions())
	require.NoError(t, f.sess.Close())
	assert.Equal(t, 0, f.dev.OpenSessions())
	assert.NoError(t, f.sess.Close(), "second close is a no-op")

	_, err := f.sess.GetObjectProperties(ctx, mtp.RootObjectID, nil)
	assert.ErrorIs(t, err, emulator.ErrSessionClosed)
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.sess.GetObjectProperties(ctx, mtp.RootObjectID, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPersistentDevice(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	open := func() *emulator.Device {
		objects, err := badger.New(ctx, badger.Config{Path: dir + "/objects"})
		require.NoError(t, err)
		blobs, err := fs.New(fs.Config{BasePath: dir + "/blobs"})
		require.NoError(t, err)
		dev, err := emulator.NewDevice(ctx, emulator.DeviceConfig{ID: "usb#disk", Objects: objects, Blobs: blobs})
		require.NoError(t, err)
		return dev
	}

	dev := open()
	assert.True(t, dev.Fresh())
	emu, err := emulator.New(dev)
	require.NoError(t, err)
	sess, err := emu.OpenSession(ctx, dev.ID(), nil)
	require.NoError(t, err)
	f := &fixture{emu: emu, dev: dev, sess: sess}
	storages, err := dev.Storages(ctx)
	require.NoError(t, err)
	f.storage = storages[0]
	file := f.upload(t, f.storage, "keep.txt", "persisted")
	require.NoError(t, sess.Close())
	require.NoError(t, emu.Close())

	dev = open()
	defer dev.Close()
	assert.False(t, dev.Fresh())
	storages, err = dev.Storages(ctx)
	require.NoError(t, err)
	assert.Len(t, storages, 1, "reopening does not format again")

	emu, err = emulator.New(dev)
	require.NoError(t, err)
	sess, err = emu.OpenSession(ctx, dev.ID(), nil)
	require.NoError(t, err)
	defer sess.Close()
	f = &fixture{emu: emu, dev: dev, sess: sess, storage: storages[0]}
	assert.Equal(t, []string{file}, f.children(t, f.storage))
	assert.Equal(t, "persisted", f.read(t, file))
}
