package emulator

import "errors"

// Errors reported by the emulated driver. The navigation layer surfaces them
// as transport errors, so callers match them with errors.Is through the
// wrapping *mtp.Error.
var (
	ErrNoSuchDevice      = errors.New("no such device")
	ErrNoSuchObject      = errors.New("no such object")
	ErrSessionClosed     = errors.New("session is closed")
	ErrHandleClosed      = errors.New("resource handle is closed")
	ErrNotContainer      = errors.New("parent is not a container")
	ErrNotEmpty          = errors.New("container is not empty")
	ErrProtectedObject   = errors.New("object cannot be deleted or moved")
	ErrMoveIntoSelf      = errors.New("cannot move an object into its own subtree")
	ErrNoResource        = errors.New("object has no data resource")
	ErrInvalidProperties = errors.New("invalid object properties")
	ErrSizeMismatch      = errors.New("written data does not match declared size")
	ErrAlreadyCommitted  = errors.New("resource already committed")
	ErrAccessDenied      = errors.New("access mode not permitted on handle")
	ErrDuplicateDevice   = errors.New("device already attached")
)
