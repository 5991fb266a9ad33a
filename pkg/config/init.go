package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# mtpfs Configuration File
#
# Generated by "mtpfs config init". Every value can be overridden with an
# MTPFS_ environment variable, e.g. MTPFS_LOGGING_LEVEL=DEBUG.
#
# Devices are emulated portable devices. Each one keeps its object tree in a
# record store (memory or badger) and its object data in a blob store
# (memory, filesystem or s3).

`

// InitConfig writes the default configuration to the default location and
// returns its path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, append([]byte(configHeader), data...))
}
