package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

// BlobStore is a map-backed store.BlobStore.
type BlobStore struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

// NewBlobStore returns an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Put implements store.BlobStore.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}
	s.blobs[key] = slices.Clone(data)
	return nil
}

// Get implements store.BlobStore.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrStoreClosed
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, store.ErrBlobNotFound
	}
	return slices.Clone(data), nil
}

// Delete implements store.BlobStore.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}
	delete(s.blobs, key)
	return nil
}

// Close implements store.BlobStore.
func (s *BlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ store.BlobStore = (*BlobStore)(nil)
