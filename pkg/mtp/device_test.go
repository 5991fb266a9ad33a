package mtp_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// fakeDriver answers the discovery calls from fixed data. growAfterCount
// makes the second phase of a counted query see one more element than the
// first did, as if a device was plugged in between the calls.
type fakeDriver struct {
	mtp.Driver

	ids            []string
	names          map[string]string
	growAfterCount bool
	refreshErr     error
	nameErr        error
}

func (f *fakeDriver) RefreshDeviceList(context.Context) error { return f.refreshErr }

func (f *fakeDriver) Devices(_ context.Context, dst []string) (int, error) {
	ids := f.ids
	if len(dst) > 0 && f.growAfterCount {
		ids = append(ids, "late-arrival")
	}
	copy(dst, ids)
	return len(ids), nil
}

func (f *fakeDriver) FriendlyName(_ context.Context, id string, dst []uint16) (int, error) {
	if f.nameErr != nil {
		return 0, f.nameErr
	}
	name, ok := f.names[id]
	if !ok {
		return 0, emulator.ErrNoSuchDevice
	}
	units := append(utf16.Encode([]rune(name)), 0)
	copy(dst, units)
	return len(units), nil
}

// fakeSession reports every ID as a folder and counts closes.
type fakeSession struct {
	mtp.Session

	mu        sync.Mutex
	closes    int
	nilUpload bool
	uploadBag *mtp.PropertyBag
}

func newFakeSession() *fakeSession { return &fakeSession{} }

func (s *fakeSession) GetObjectProperties(_ context.Context, id string, keys []mtp.PropertyKey) (*mtp.PropertyBag, error) {
	bag := mtp.NewPropertyBag().
		SetString(mtp.KeyObjectName, id).
		SetGUID(mtp.KeyObjectContentType, mtp.ContentTypeFolder.GUID())
	if id == mtp.RootObjectID {
		bag.SetString(mtp.KeyObjectParentID, "")
	} else {
		bag.SetString(mtp.KeyObjectParentID, mtp.RootObjectID)
	}
	return bag, nil
}

func (s *fakeSession) CreateObjectWithData(_ context.Context, props *mtp.PropertyBag) (mtp.RawStream, uint32, error) {
	s.mu.Lock()
	s.uploadBag = props
	s.mu.Unlock()
	if s.nilUpload {
		return nil, 0, nil
	}
	return nil, 0, errors.New("uploads unsupported")
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func TestProvider_Devices(t *testing.T) {
	ctx := t.Context()
	a, err := emulator.NewDevice(ctx, emulator.DeviceConfig{ID: "usb#a", FriendlyName: "Pixel 8"})
	require.NoError(t, err)
	b, err := emulator.NewDevice(ctx, emulator.DeviceConfig{ID: "usb#b", FriendlyName: "Kindle"})
	require.NoError(t, err)
	emu, err := emulator.New(a, b)
	require.NoError(t, err)
	defer emu.Close()

	p := mtp.NewProvider(emu)
	devices, err := p.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "usb#a", devices[0].ID)
	assert.Equal(t, "Pixel 8", devices[0].FriendlyName)
	assert.Equal(t, "Kindle", devices[1].FriendlyName)
	assert.Equal(t, 1, emu.Scans())

	byName, err := p.Device(ctx, "Kindle")
	require.NoError(t, err)
	assert.Equal(t, "usb#b", byName.ID)

	byID, err := p.Device(ctx, "usb#a")
	require.NoError(t, err)
	assert.Equal(t, "Pixel 8", byID.FriendlyName)

	_, err = p.Device(ctx, "iPod")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestProvider_NoDevices(t *testing.T) {
	emu, err := emulator.New()
	require.NoError(t, err)

	devices, err := mtp.NewProvider(emu).Devices(t.Context())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestProvider_ChangedConditions(t *testing.T) {
	drv := &fakeDriver{
		ids:            []string{"usb#1", "usb#2"},
		names:          map[string]string{"usb#1": "One", "usb#2": "Two"},
		growAfterCount: true,
	}

	_, err := mtp.NewProvider(drv).Devices(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, mtp.ErrChangedConditions)
	assert.False(t, mtp.IsTransportError(err))

	// The caller decides whether to retry; the next call sees a stable list.
	drv.growAfterCount = false
	devices, err := mtp.NewProvider(drv).Devices(t.Context())
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestProvider_FriendlyNameFailure(t *testing.T) {
	drv := &fakeDriver{ids: []string{"usb#1"}, names: map[string]string{}}

	_, err := mtp.NewProvider(drv).Devices(t.Context())
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, emulator.ErrNoSuchDevice)
}

func TestProvider_FriendlyNameSentinelUntouched(t *testing.T) {
	drv := &fakeDriver{ids: []string{"usb#1"}, nameErr: mtp.ErrSessionClosed}

	_, err := mtp.NewProvider(drv).Devices(t.Context())
	require.ErrorIs(t, err, mtp.ErrSessionClosed)

	var e *mtp.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "usb#1", e.ObjectID)
	assert.NotSame(t, mtp.ErrSessionClosed, e)
	assert.Empty(t, mtp.ErrSessionClosed.ObjectID)
}

func TestProvider_RefreshFailure(t *testing.T) {
	boom := errors.New("bus reset")
	drv := &fakeDriver{refreshErr: boom}

	_, err := mtp.NewProvider(drv).Devices(t.Context())
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, boom)
}

func TestDeviceInfo_ZeroValueCannotOpen(t *testing.T) {
	_, err := mtp.DeviceInfo{ID: "usb#1"}.Open(t.Context(), mtp.ClientInfo{}, true)
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestContent_RefCounting(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	assert.Equal(t, 1, env.dev.OpenSessions())

	// The Device and env.content hold one reference each.
	assert.Equal(t, 2, env.content.Refs())
	extra := env.content.Clone()
	assert.Equal(t, 3, extra.Refs())

	extraRoot, err := extra.Root(ctx)
	require.NoError(t, err)

	require.NoError(t, extra.Close())
	require.NoError(t, extra.Close(), "closing twice is harmless")
	assert.Equal(t, 2, env.content.Refs())

	_, err = extraRoot.Children(ctx)
	assert.ErrorIs(t, err, mtp.ErrSessionClosed, "objects of a released reference are dead")

	_, err = env.storage.ResolvePath(ctx, "Music")
	require.NoError(t, err, "other references keep the session open")
	assert.Equal(t, 1, env.dev.OpenSessions())

	require.NoError(t, env.device.Close())
	assert.Equal(t, 1, env.dev.OpenSessions())
	require.NoError(t, env.content.Close())
	assert.Equal(t, 0, env.dev.OpenSessions())

	_, err = env.storage.ResolvePath(ctx, "Music")
	assert.ErrorIs(t, err, mtp.ErrSessionClosed)
	_, err = env.content.Root(ctx)
	assert.ErrorIs(t, err, mtp.ErrSessionClosed)
}

func TestContent_SessionClosedOnce(t *testing.T) {
	s := newFakeSession()
	a := mtp.NewContent("fake", s, false)
	b := a.Clone()
	c := b.Clone()

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	assert.Zero(t, s.closes)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, s.closes)

	assert.Equal(t, "fake", c.DeviceID())
	assert.False(t, c.CaseSensitive())
}

func TestContent_ObjectByID(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	music := env.resolve(t, "Music")
	same, err := env.content.ObjectByID(ctx, music.ID())
	require.NoError(t, err)
	assert.Equal(t, "Music", same.Name())
	assert.Same(t, env.content, same.Content())

	_, err = env.content.ObjectByID(ctx, "no-such-id")
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, emulator.ErrNoSuchObject)
}

func TestClientInfo_Values(t *testing.T) {
	c := mtp.ClientInfo{Name: "mtpfs", Major: 1, Minor: 2, Revision: 3}
	assert.Equal(t, "mtpfs 1.2.3", c.String())

	bag := c.Values()
	qos, err := bag.Uint32(mtp.KeyClientSecurityQualityOfService)
	require.NoError(t, err)
	assert.NotZero(t, qos)

	back, err := mtp.ClientInfoFromValues(bag)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	_, err = mtp.ClientInfoFromValues(mtp.NewPropertyBag())
	assert.ErrorIs(t, err, mtp.ErrTypeMismatch)
}
