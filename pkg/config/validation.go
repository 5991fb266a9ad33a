package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/mtpfs/internal/bytesize"
)

const (
	minChunkSize = 512 * bytesize.B
	maxChunkSize = 64 * bytesize.MiB
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("chunksize", validateChunkSize); err != nil {
		panic(err)
	}
}

// validateChunkSize accepts transfer sizes between 512B and 64MiB.
func validateChunkSize(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Uint64 {
		return false
	}
	size := bytesize.ByteSize(f.Uint())
	return size >= minChunkSize && size <= maxChunkSize
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules checks that every store type has its settings.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Devices) == 0 {
		return errors.New("devices: at least one device must be configured")
	}

	for i, dev := range cfg.Devices {
		switch dev.Store.Type {
		case "badger":
			if dev.Store.Badger == nil {
				return fmt.Errorf("devices[%d].store: type badger requires a badger section", i)
			}
			if dev.Store.Badger.Path == "" && !dev.Store.Badger.InMemory {
				return fmt.Errorf("devices[%d].store.badger: path is required unless in_memory is set", i)
			}
		}

		switch dev.Blobs.Type {
		case "filesystem":
			if dev.Blobs.Filesystem == nil {
				return fmt.Errorf("devices[%d].blobs: type filesystem requires a filesystem section", i)
			}
		case "s3":
			if dev.Blobs.S3 == nil {
				return fmt.Errorf("devices[%d].blobs: type s3 requires an s3 section", i)
			}
		}
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
