package mtp

import (
	"context"
	"unicode/utf16"

	"github.com/marmos91/mtpfs/internal/logger"
)

// Provider discovers the devices a Driver exposes.
type Provider struct {
	driver Driver
}

// NewProvider returns a Provider over driver.
func NewProvider(driver Driver) *Provider {
	return &Provider{driver: driver}
}

// DeviceInfo describes an attached device that has not been opened yet.
type DeviceInfo struct {
	ID           string
	FriendlyName string

	driver Driver
}

// Devices refreshes the device list and returns every attached device.
// It fails with ErrChangedConditions if devices come or go while the list is
// read; the caller decides whether to retry.
func (p *Provider) Devices(ctx context.Context) ([]DeviceInfo, error) {
	if err := p.driver.RefreshDeviceList(ctx); err != nil {
		return nil, transportError("refresh-devices", "", err)
	}

	ids, err := fetchCounted("list-devices", func(dst []string) (int, error) {
		return p.driver.Devices(ctx, dst)
	})
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(ids))
	for _, id := range ids {
		name, err := p.friendlyName(ctx, id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, DeviceInfo{ID: id, FriendlyName: name, driver: p.driver})
	}
	logger.DebugCtx(ctx, "Devices enumerated", logger.KeyDeviceCount, len(devices))
	return devices, nil
}

// Device returns the attached device with the given ID or friendly name.
func (p *Provider) Device(ctx context.Context, idOrName string) (DeviceInfo, error) {
	devices, err := p.Devices(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.ID == idOrName {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.FriendlyName == idOrName {
			return d, nil
		}
	}
	return DeviceInfo{}, &Error{Code: CodeNotFound, Op: "find-device", Detail: idOrName}
}

func (p *Provider) friendlyName(ctx context.Context, id string) (string, error) {
	units, err := fetchCounted("friendly-name", func(dst []uint16) (int, error) {
		return p.driver.FriendlyName(ctx, id, dst)
	})
	if err != nil {
		return "", withObjectID(err, id)
	}
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units)), nil
}

// Open opens a session on the device. caseSensitive fixes how names are
// matched during path resolution; the protocol does not report it, so it is
// a property of the caller's knowledge of the device.
func (d DeviceInfo) Open(ctx context.Context, client ClientInfo, caseSensitive bool) (*Device, error) {
	if d.driver == nil {
		return nil, &Error{Code: CodeNotFound, Op: "open-device", Detail: d.ID}
	}
	s, err := d.driver.OpenSession(ctx, d.ID, client.Values())
	if err != nil {
		return nil, transportError("open-device", "", err)
	}
	logger.DebugCtx(ctx, "Session opened",
		logger.KeyDeviceID, d.ID,
		logger.KeyClientName, client.String(),
		logger.KeyCaseFold, !caseSensitive)
	return &Device{info: d, content: NewContent(d.ID, s, caseSensitive)}, nil
}

// Device is an opened device.
type Device struct {
	info    DeviceInfo
	content *Content
}

// Info returns the device description.
func (d *Device) Info() DeviceInfo { return d.info }

// Content returns a new reference to the device's content. Close it when
// done; the session stays open until every reference and the Device itself
// are closed.
func (d *Device) Content() *Content {
	return d.content.Clone()
}

// Close releases the device's own content reference.
func (d *Device) Close() error {
	return d.content.Close()
}
