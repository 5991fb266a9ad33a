// Package storetest provides conformance suites for emulator stores.
//
// Every ObjectStore and BlobStore implementation runs the same suite from its
// own _test.go file:
//
//	func TestConformance(t *testing.T) {
//		storetest.RunObjectStoreSuite(t, func(t *testing.T) store.ObjectStore {
//			return memory.NewObjectStore()
//		})
//	}
package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

// ObjectStoreFactory creates a fresh ObjectStore for each test. The factory
// receives *testing.T so it can use t.TempDir() and t.Cleanup().
type ObjectStoreFactory func(t *testing.T) store.ObjectStore

// BlobStoreFactory creates a fresh BlobStore for each test.
type BlobStoreFactory func(t *testing.T) store.BlobStore

// RunObjectStoreSuite runs the object store conformance tests.
//
// The suite covers:
//   - CRUD: put, get, replace, delete, missing records
//   - Index: child ordering, reparenting, deletion leaves siblings intact
//   - Lifecycle: operations after Close
func RunObjectStoreSuite(t *testing.T, factory ObjectStoreFactory) {
	t.Helper()

	t.Run("CRUD", func(t *testing.T) {
		runObjectCRUDTests(t, factory)
	})

	t.Run("Index", func(t *testing.T) {
		runObjectIndexTests(t, factory)
	})

	t.Run("Lifecycle", func(t *testing.T) {
		t.Run("ClosedStore", func(t *testing.T) { testObjectClosedStore(t, factory) })
	})
}

// RunBlobStoreSuite runs the blob store conformance tests.
func RunBlobStoreSuite(t *testing.T, factory BlobStoreFactory) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) { testBlobPutGet(t, factory) })
	t.Run("Replace", func(t *testing.T) { testBlobReplace(t, factory) })
	t.Run("Missing", func(t *testing.T) { testBlobMissing(t, factory) })
	t.Run("Delete", func(t *testing.T) { testBlobDelete(t, factory) })
	t.Run("Empty", func(t *testing.T) { testBlobEmpty(t, factory) })
	t.Run("ClosedStore", func(t *testing.T) { testBlobClosedStore(t, factory) })
}

// newRecord builds a record with a fresh ID under parentID.
func newRecord(parentID, name string, contentType uuid.UUID) *store.Record {
	now := time.Now().UTC().Truncate(time.Second)
	return &store.Record{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Name:        name,
		ContentType: contentType,
		Created:     now,
		Modified:    now,
	}
}

// putRecord stores rec and fails the test on error.
func putRecord(t *testing.T, s store.ObjectStore, rec *store.Record) *store.Record {
	t.Helper()
	require.NoError(t, s.Put(t.Context(), rec), "Put(%s)", rec.Name)
	return rec
}
