package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so device sessions
// can be correlated in aggregated logs.
const (
	// ========================================================================
	// Device & Session
	// ========================================================================
	KeyDeviceID     = "device_id"     // Device identifier (driver specific)
	KeyDeviceName   = "device_name"   // Friendly name reported by the device
	KeySessionID    = "session_id"    // Local session identifier
	KeyClientName   = "client_name"   // Application name presented on open
	KeyCaseFold     = "case_fold"     // Whether name matching folds case
	KeyDriver       = "driver"        // Driver implementation: emulator, ...
	KeyDeviceCount  = "device_count"  // Number of devices enumerated
	KeyRefCount     = "refs"          // Outstanding session handle references
	KeyOperation    = "operation"     // Native call or CLI operation
	KeyStatus       = "status"        // Outcome of a native call: ok, error
	KeyDurationMs   = "duration_ms"   // Operation duration in milliseconds
	KeyError        = "error"         // Error message
	KeyRequestedLen = "requested_len" // Element count of a two-phase query

	// ========================================================================
	// Object Tree
	// ========================================================================
	KeyObjectID    = "object_id"    // Opaque object identifier
	KeyParentID    = "parent_id"    // Identifier of the parent object
	KeyObjectName  = "object_name"  // Display name of an object
	KeyContentType = "content_type" // Content type of an object
	KeyPath        = "path"         // Device path being resolved
	KeyComponent   = "component"    // Current path component
	KeyEntries     = "entries"      // Number of children visited
	KeyRecursive   = "recursive"    // Recursive delete flag

	// ========================================================================
	// Transfer
	// ========================================================================
	KeyLocalPath    = "local_path"    // Local file path of a push or pull
	KeySize         = "size"          // Declared object size in bytes
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyChunkSize    = "chunk_size"    // Advised transfer chunk size
	KeyMode         = "mode"          // Resource access mode

	// ========================================================================
	// Emulator Backends
	// ========================================================================
	KeyStoreType = "store_type" // Record store type: memory, badger
	KeyBlobType  = "blob_type"  // Blob store type: memory, filesystem, s3
	KeyBucket    = "bucket"     // S3 bucket name
	KeyKey       = "key"        // Object key in a blob store
)

// DeviceID returns a slog.Attr for a device identifier
func DeviceID(id string) slog.Attr {
	return slog.String(KeyDeviceID, id)
}

// DeviceName returns a slog.Attr for a device's friendly name
func DeviceName(name string) slog.Attr {
	return slog.String(KeyDeviceName, name)
}

// SessionID returns a slog.Attr for a session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Operation returns a slog.Attr for a native call or CLI operation
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ObjectID returns a slog.Attr for an object identifier
func ObjectID(id string) slog.Attr {
	return slog.String(KeyObjectID, id)
}

// ParentID returns a slog.Attr for a parent object identifier
func ParentID(id string) slog.Attr {
	return slog.String(KeyParentID, id)
}

// ObjectName returns a slog.Attr for an object display name
func ObjectName(name string) slog.Attr {
	return slog.String(KeyObjectName, name)
}

// ContentType returns a slog.Attr for an object's content type.
// Accepts any fmt.Stringer so the logger stays free of domain imports.
func ContentType(ct interface{ String() string }) slog.Attr {
	return slog.String(KeyContentType, ct.String())
}

// Path returns a slog.Attr for a device path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// LocalPath returns a slog.Attr for a local filesystem path
func LocalPath(p string) slog.Attr {
	return slog.String(KeyLocalPath, p)
}

// Size returns a slog.Attr for an object size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// BytesRead returns a slog.Attr for bytes read
func BytesRead(n int64) slog.Attr {
	return slog.Int64(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for bytes written
func BytesWritten(n int64) slog.Attr {
	return slog.Int64(KeyBytesWritten, n)
}

// ChunkSize returns a slog.Attr for an advised transfer size
func ChunkSize(n uint32) slog.Attr {
	return slog.Uint64(KeyChunkSize, uint64(n))
}

// Recursive returns a slog.Attr for the recursive delete flag
func Recursive(r bool) slog.Attr {
	return slog.Bool(KeyRecursive, r)
}

// DurationMs returns a slog.Attr for operation duration
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or an empty attr for nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// StoreType returns a slog.Attr for an emulator record store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// BlobType returns a slog.Attr for an emulator blob store type
func BlobType(t string) slog.Attr {
	return slog.String(KeyBlobType, t)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for a blob key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}
