package storetest

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

func testBlobPutGet(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)
	ctx := t.Context()
	key := uuid.NewString()

	data := bytes.Repeat([]byte("mtp"), 1000)
	require.NoError(t, s.Put(ctx, key, data))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func testBlobReplace(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)
	ctx := t.Context()
	key := uuid.NewString()

	require.NoError(t, s.Put(ctx, key, []byte("first version, longer")))
	require.NoError(t, s.Put(ctx, key, []byte("second")))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func testBlobMissing(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)

	_, err := s.Get(t.Context(), uuid.NewString())
	assert.ErrorIs(t, err, store.ErrBlobNotFound)
}

func testBlobDelete(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)
	ctx := t.Context()
	key := uuid.NewString()

	require.NoError(t, s.Put(ctx, key, []byte("data")))
	require.NoError(t, s.Delete(ctx, key))

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrBlobNotFound)

	assert.NoError(t, s.Delete(ctx, key), "deleting a missing key is not an error")
}

func testBlobEmpty(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)
	ctx := t.Context()
	key := uuid.NewString()

	require.NoError(t, s.Put(ctx, key, nil))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testBlobClosedStore(t *testing.T, factory BlobStoreFactory) {
	s := factory(t)
	ctx := t.Context()
	key := uuid.NewString()

	require.NoError(t, s.Put(ctx, key, []byte("data")))
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrStoreClosed)
	assert.ErrorIs(t, s.Put(ctx, key, []byte("x")), store.ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, key), store.ErrStoreClosed)
}
