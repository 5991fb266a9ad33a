package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/mtpfs/internal/bytesize"
	badgerstore "github.com/marmos91/mtpfs/pkg/emulator/store/badger"
	s3store "github.com/marmos91/mtpfs/pkg/emulator/store/s3"
)

// Config is the mtpfs configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (MTPFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Client is the application identity presented when a session is opened
	Client ClientConfig `mapstructure:"client" yaml:"client"`

	// Transfer tunes pulls and pushes
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`

	// Metrics controls driver round-trip accounting
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry tracing of driver calls and
	// continuous profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Devices lists the emulated devices the driver exposes. Device IDs must
	// be unique.
	Devices []DeviceConfig `mapstructure:"devices" validate:"unique=ID,dive" yaml:"devices"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file
	// path. Defaults to stderr so listings on stdout stay clean.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ClientConfig identifies the application to the device.
type ClientConfig struct {
	Name     string `mapstructure:"name" validate:"required" yaml:"name"`
	Major    uint32 `mapstructure:"major" yaml:"major"`
	Minor    uint32 `mapstructure:"minor" yaml:"minor"`
	Revision uint32 `mapstructure:"revision" yaml:"revision"`
}

// TransferConfig tunes data transfers.
type TransferConfig struct {
	// BufferSize is the local copy buffer used by pull and push. Device
	// transfers still use the chunk size the device advises.
	// Default: 256KiB
	BufferSize bytesize.ByteSize `mapstructure:"buffer_size" validate:"chunksize" yaml:"buffer_size"`

	// Timeout bounds a single CLI operation. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0" yaml:"timeout"`
}

// MetricsConfig controls the prometheus registry that counts driver calls.
// When Enabled is false the driver is used uninstrumented.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// TelemetryConfig configures tracing and profiling. Both are off by default.
type TelemetryConfig struct {
	// Enabled turns on OTLP trace export of every driver call
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces kept, 0.0 to 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	// Profiling controls Pyroscope continuous profiling
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig configures Pyroscope.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect, e.g. cpu, inuse_space
	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types,omitempty"`
}

// DeviceConfig describes one emulated device.
type DeviceConfig struct {
	// ID is the device identifier reported by discovery
	ID string `mapstructure:"id" validate:"required" yaml:"id"`

	// Name is the friendly name. Defaults to the ID.
	Name string `mapstructure:"name" yaml:"name,omitempty"`

	// CaseSensitive selects exact name matching during path resolution
	CaseSensitive bool `mapstructure:"case_sensitive" yaml:"case_sensitive"`

	// ChunkSize is the optimal transfer size the device advertises.
	// Default: 256KiB
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" validate:"chunksize" yaml:"chunk_size"`

	// Storages names the storages created when the device is formatted
	Storages []string `mapstructure:"storages" yaml:"storages,omitempty"`

	// Store keeps the object tree
	Store RecordStoreConfig `mapstructure:"store" yaml:"store"`

	// Blobs keeps object data
	Blobs BlobStoreConfig `mapstructure:"blobs" yaml:"blobs"`

	// Seed is an optional YAML fixture applied when the device is empty
	Seed string `mapstructure:"seed" yaml:"seed,omitempty"`
}

// RecordStoreConfig selects the object tree store of a device.
type RecordStoreConfig struct {
	// Type is the store implementation: memory or badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger" yaml:"type"`

	// Badger configures the badger store. Required when Type is badger.
	Badger *badgerstore.Config `mapstructure:"badger" yaml:"badger,omitempty"`
}

// BlobStoreConfig selects the object data store of a device.
type BlobStoreConfig struct {
	// Type is the store implementation: memory, filesystem or s3
	Type string `mapstructure:"type" validate:"required,oneof=memory filesystem s3" yaml:"type"`

	// Filesystem configures the filesystem store. Required when Type is
	// filesystem.
	Filesystem *FilesystemBlobConfig `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 configures the S3 store. Required when Type is s3.
	S3 *s3store.Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// FilesystemBlobConfig configures a filesystem blob store.
type FilesystemBlobConfig struct {
	// Path is the root directory for object data
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// Load loads configuration from file, environment, and defaults.
//
// A missing file is not an error: defaults and environment variables are
// still applied. An explicit configPath that does not exist is treated the
// same way; use MustLoad to insist on a file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration from a file that must exist, with
// instructions on how to create one when it does not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  mtpfs config init\n\n"+
				"Or specify a custom config file:\n"+
				"  mtpfs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  mtpfs config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// S3 credentials may live in the file, so keep it owner-only.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment variables, defaults and the config
// file location.
func setupViper(v *viper.Viper, configPath string) {
	// Example: MTPFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("MTPFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Scalar defaults are registered so that environment overrides work
	// without a config file.
	d := GetDefaultConfig()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("client.name", d.Client.Name)
	v.SetDefault("client.major", d.Client.Major)
	v.SetDefault("client.minor", d.Client.Minor)
	v.SetDefault("client.revision", d.Client.Revision)
	v.SetDefault("transfer.buffer_size", d.Transfer.BufferSize.Int())
	v.SetDefault("transfer.timeout", d.Transfer.Timeout.String())
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.profiling.enabled", d.Telemetry.Profiling.Enabled)
	v.SetDefault("telemetry.profiling.endpoint", d.Telemetry.Profiling.Endpoint)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists and reports
// whether one was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the decode hooks for the custom field types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings like "256KiB" and plain numbers into
// bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML and TOML may hand numbers over as floats
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %g", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/mtpfs, ~/.config/mtpfs, or "." when
// the home directory is unknown.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mtpfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mtpfs")
}

// getDataDir returns $XDG_DATA_HOME/mtpfs, ~/.local/share/mtpfs, or a
// directory under the system temp dir when the home directory is unknown.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "mtpfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mtpfs")
	}
	return filepath.Join(home, ".local", "share", "mtpfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}

// GetDataDir returns the directory that holds persistent device state.
func GetDataDir() string {
	return getDataDir()
}
