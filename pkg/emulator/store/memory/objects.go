// Package memory provides in-memory emulator stores.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

// ObjectStore is a map-backed store.ObjectStore.
type ObjectStore struct {
	mu       sync.RWMutex
	records  map[string]*store.Record
	children map[string][]string
	seq      uint64
	closed   bool
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		records:  make(map[string]*store.Record),
		children: make(map[string][]string),
	}
}

// Get implements store.ObjectStore.
func (s *ObjectStore) Get(ctx context.Context, id string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrStoreClosed
	}

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Put implements store.ObjectStore.
func (s *ObjectStore) Put(ctx context.Context, rec *store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}

	rec = rec.Clone()
	old, exists := s.records[rec.ID]
	switch {
	case !exists:
		if rec.Seq == 0 {
			s.seq++
			rec.Seq = s.seq
		}
		s.link(rec.ParentID, rec.ID)
	case old.ParentID != rec.ParentID:
		s.unlink(old.ParentID, rec.ID)
		s.seq++
		rec.Seq = s.seq
		s.link(rec.ParentID, rec.ID)
	default:
		rec.Seq = old.Seq
	}
	if rec.Seq > s.seq {
		s.seq = rec.Seq
	}
	s.records[rec.ID] = rec
	return nil
}

// Delete implements store.ObjectStore.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}

	rec, ok := s.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	s.unlink(rec.ParentID, id)
	delete(s.records, id)
	return nil
}

// Children implements store.ObjectStore.
func (s *ObjectStore) Children(ctx context.Context, parentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrStoreClosed
	}
	return slices.Clone(s.children[parentID]), nil
}

// Close implements store.ObjectStore.
func (s *ObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// link appends id to the end of parent's children. Callers hold mu.
func (s *ObjectStore) link(parent, id string) {
	if parent == "" {
		return
	}
	s.children[parent] = append(s.children[parent], id)
}

// unlink removes id from parent's children. Callers hold mu.
func (s *ObjectStore) unlink(parent, id string) {
	kids := s.children[parent]
	if i := slices.Index(kids, id); i >= 0 {
		s.children[parent] = slices.Delete(kids, i, i+1)
	}
	if len(s.children[parent]) == 0 {
		delete(s.children, parent)
	}
}

var _ store.ObjectStore = (*ObjectStore)(nil)
