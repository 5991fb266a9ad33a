// Package emulator implements an in-process portable device driver.
//
// An Emulator exposes any number of emulated devices through the mtp.Driver
// surface. Each device keeps its tree in a store.ObjectStore and its file
// data in a store.BlobStore, so the same device can live in memory for tests
// or persist in BadgerDB with data on disk or in S3.
//
// Emulated devices behave like the real thing where the navigation layer
// depends on it: the root object is "DEVICE", storages are functional
// objects under it, child listings keep insertion order and tolerate
// duplicate names, non-recursive deletion of a non-empty folder is refused,
// and an object created with data becomes visible only once committed.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// Emulator is an mtp.Driver over a set of emulated devices.
type Emulator struct {
	mu      sync.RWMutex
	devices map[string]*Device
	order   []string
	scans   int
}

// New returns an emulator with the given devices attached.
func New(devices ...*Device) (*Emulator, error) {
	e := &Emulator{devices: make(map[string]*Device)}
	for _, d := range devices {
		if err := e.Attach(d); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Attach plugs a device in. It is visible to the next device query.
func (e *Emulator) Attach(d *Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.devices[d.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, d.id)
	}
	e.devices[d.id] = d
	e.order = append(e.order, d.id)
	return nil
}

// Detach unplugs a device and returns it. Sessions already open on it keep
// working.
func (e *Emulator) Detach(id string) (*Device, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.devices[id]
	if !ok {
		return nil, false
	}
	delete(e.devices, id)
	e.order = slices.DeleteFunc(e.order, func(s string) bool { return s == id })
	return d, true
}

// Device returns an attached device by ID.
func (e *Emulator) Device(id string) (*Device, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.devices[id]
	return d, ok
}

// Scans returns how many times the device list was refreshed.
func (e *Emulator) Scans() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scans
}

// Close detaches every device and releases its stores.
func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, id := range e.order {
		if err := e.devices[id].Close(); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", id, err))
		}
	}
	e.devices = make(map[string]*Device)
	e.order = nil
	return errors.Join(errs...)
}

// RefreshDeviceList implements mtp.DeviceManager.
func (e *Emulator) RefreshDeviceList(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.scans++
	e.mu.Unlock()
	return nil
}

// Devices implements mtp.DeviceManager.
func (e *Emulator) Devices(ctx context.Context, dst []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	copy(dst, e.order)
	return len(e.order), nil
}

// FriendlyName implements mtp.DeviceManager.
func (e *Emulator) FriendlyName(ctx context.Context, deviceID string, dst []uint16) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d, ok := e.Device(deviceID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchDevice, deviceID)
	}
	units := append(utf16.Encode([]rune(d.name)), 0)
	copy(dst, units)
	return len(units), nil
}

// OpenSession implements mtp.Driver.
func (e *Emulator) OpenSession(ctx context.Context, deviceID string, client *mtp.PropertyBag) (mtp.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := e.Device(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchDevice, deviceID)
	}

	var info mtp.ClientInfo
	if client != nil {
		// A partial bag is accepted; the identity is only logged.
		info, _ = mtp.ClientInfoFromValues(client)
	}

	s := &session{dev: d, id: uuid.NewString(), client: info}
	d.sessions.Add(1)
	logger.DebugCtx(ctx, "Emulator session opened",
		logger.KeyDeviceID, d.id,
		logger.KeySessionID, s.id,
		logger.KeyClientName, info.String())
	return s, nil
}

var _ mtp.Driver = (*Emulator)(nil)
