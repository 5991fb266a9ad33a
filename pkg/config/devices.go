package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/emulator/store"
	badgerstore "github.com/marmos91/mtpfs/pkg/emulator/store/badger"
	fsstore "github.com/marmos91/mtpfs/pkg/emulator/store/fs"
	"github.com/marmos91/mtpfs/pkg/emulator/store/memory"
	s3store "github.com/marmos91/mtpfs/pkg/emulator/store/s3"
)

// BuildEmulator creates every configured device and attaches them to a new
// emulator. Devices built before a failure are closed.
func BuildEmulator(ctx context.Context, cfg *Config) (*emulator.Emulator, error) {
	devices := make([]*emulator.Device, 0, len(cfg.Devices))
	closeAll := func() {
		for _, d := range devices {
			_ = d.Close()
		}
	}

	for _, dc := range cfg.Devices {
		d, err := BuildDevice(ctx, dc)
		if err != nil {
			closeAll()
			return nil, err
		}
		devices = append(devices, d)
	}

	emu, err := emulator.New(devices...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return emu, nil
}

// BuildDevice opens the stores of one device and creates it. The seed, if
// any, is applied only when the device was freshly formatted.
func BuildDevice(ctx context.Context, cfg DeviceConfig) (*emulator.Device, error) {
	var seed *emulator.Seed
	if cfg.Seed != "" {
		s, err := emulator.LoadSeed(cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", cfg.ID, err)
		}
		seed = s
	}

	objects, err := createObjectStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("device %s: failed to create object store: %w", cfg.ID, err)
	}
	blobs, err := createBlobStore(ctx, cfg.Blobs)
	if err != nil {
		_ = objects.Close()
		return nil, fmt.Errorf("device %s: failed to create blob store: %w", cfg.ID, err)
	}

	dev, err := emulator.NewDevice(ctx, emulator.DeviceConfig{
		ID:           cfg.ID,
		FriendlyName: cfg.Name,
		Storages:     cfg.Storages,
		ChunkSize:    uint32(cfg.ChunkSize),
		Objects:      objects,
		Blobs:        blobs,
	})
	if err != nil {
		return nil, errors.Join(err, objects.Close(), blobs.Close())
	}

	if seed != nil && dev.Fresh() {
		if err := dev.ApplySeed(ctx, seed); err != nil {
			_ = dev.Close()
			return nil, fmt.Errorf("device %s: failed to apply seed: %w", cfg.ID, err)
		}
	}

	logger.Debug("Device built",
		logger.KeyDeviceID, cfg.ID,
		logger.KeyStoreType, cfg.Store.Type,
		logger.KeyBlobType, cfg.Blobs.Type)
	return dev, nil
}

func createObjectStore(ctx context.Context, cfg RecordStoreConfig) (store.ObjectStore, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewObjectStore(), nil
	case "badger":
		if cfg.Badger == nil {
			return nil, errors.New("badger store requires configuration")
		}
		return badgerstore.New(ctx, *cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown object store type: %q", cfg.Type)
	}
}

func createBlobStore(ctx context.Context, cfg BlobStoreConfig) (store.BlobStore, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewBlobStore(), nil
	case "filesystem":
		if cfg.Filesystem == nil || cfg.Filesystem.Path == "" {
			return nil, errors.New("filesystem blob store requires path to be set")
		}
		return fsstore.New(fsstore.Config{BasePath: cfg.Filesystem.Path})
	case "s3":
		if cfg.S3 == nil {
			return nil, errors.New("s3 blob store requires configuration")
		}
		return s3store.NewFromConfig(ctx, *cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q", cfg.Type)
	}
}
