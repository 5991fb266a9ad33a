package config

import (
	"path/filepath"
	"strings"

	"github.com/marmos91/mtpfs/internal/bytesize"
	"github.com/marmos91/mtpfs/pkg/bufpool"
	badgerstore "github.com/marmos91/mtpfs/pkg/emulator/store/badger"
)

const (
	// DefaultDeviceID is the ID of the device created by the default
	// configuration.
	DefaultDeviceID = "emulator-0"

	// DefaultDeviceName is its friendly name.
	DefaultDeviceName = "Emulated device"

	// DefaultBufferSize is the local copy buffer for pulls and pushes.
	DefaultBufferSize = 256 * bytesize.KiB
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - An empty device list gets one persistent emulated device
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyClientDefaults(&cfg.Client)
	applyTransferDefaults(&cfg.Transfer)
	applyTelemetryDefaults(&cfg.Telemetry)

	if len(cfg.Devices) == 0 {
		cfg.Devices = []DeviceConfig{defaultDevice()}
	}
	for i := range cfg.Devices {
		applyDeviceDefaults(&cfg.Devices[i])
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyClientDefaults(cfg *ClientConfig) {
	if cfg.Name == "" {
		cfg.Name = "mtpfs"
		if cfg.Major == 0 && cfg.Minor == 0 && cfg.Revision == 0 {
			cfg.Major = 1
		}
	}
}

func applyTransferDefaults(cfg *TransferConfig) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
}

// applyTelemetryDefaults fills in collector endpoints. A zero sample rate
// with tracing disabled is taken as unset.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
		cfg.Insecure = true
	}
	if cfg.SampleRate == 0 && !cfg.Enabled {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
}

// applyDeviceDefaults fills in store types and sizes. Store sub-configs are
// not invented for explicitly typed stores; validation reports them missing.
func applyDeviceDefaults(cfg *DeviceConfig) {
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = bytesize.ByteSize(bufpool.DefaultChunkSize)
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Blobs.Type == "" {
		cfg.Blobs.Type = "memory"
	}
}

// defaultDevice is a device persisted under the data directory, so that
// pushes survive between CLI invocations.
func defaultDevice() DeviceConfig {
	dir := filepath.Join(getDataDir(), DefaultDeviceID)
	return DeviceConfig{
		ID:   DefaultDeviceID,
		Name: DefaultDeviceName,
		Store: RecordStoreConfig{
			Type:   "badger",
			Badger: &badgerstore.Config{Path: filepath.Join(dir, "objects")},
		},
		Blobs: BlobStoreConfig{
			Type:       "filesystem",
			Filesystem: &FilesystemBlobConfig{Path: filepath.Join(dir, "blobs")},
		},
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
