// Package store defines the persistence contracts of the device emulator.
//
// An emulated device keeps its object tree in an ObjectStore and object data
// in a BlobStore. Both are plain CRUD layers with no tree semantics: the
// emulator enforces parent/child rules, recursion and commit visibility.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound is returned when an object record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBlobNotFound is returned when no data is stored under a key.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrStoreClosed is returned by every method after Close.
	ErrStoreClosed = errors.New("store is closed")
)

// Record is the persisted state of one emulated object.
type Record struct {
	ID               string    `json:"id"`
	ParentID         string    `json:"parent_id"`
	Name             string    `json:"name"`
	ContentType      uuid.UUID `json:"content_type"`
	Size             uint64    `json:"size"`
	OriginalFileName string    `json:"original_file_name,omitempty"`
	Hidden           bool      `json:"hidden,omitempty"`
	Protected        bool      `json:"protected,omitempty"` // cannot be deleted or moved
	Created          time.Time `json:"created"`
	Modified         time.Time `json:"modified"`

	// Seq orders siblings by insertion. Stores assign it on first Put when
	// it is zero.
	Seq uint64 `json:"seq"`
}

// Clone returns a copy of r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// ObjectStore persists object records and the parent/child index.
type ObjectStore interface {
	// Get returns the record with the given ID or ErrRecordNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Put creates or replaces a record. A changed ParentID moves the record
	// in the child index; a new record goes last among its siblings.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record and its index entry. Children are untouched.
	Delete(ctx context.Context, id string) error

	// Children returns the child IDs of parentID in insertion order.
	Children(ctx context.Context, parentID string) ([]string, error)

	// Close releases the store.
	Close() error
}

// BlobStore persists object data keyed by object ID.
type BlobStore interface {
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the data stored under key or ErrBlobNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store.
	Close() error
}
