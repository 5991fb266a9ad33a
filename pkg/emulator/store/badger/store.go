// Package badger provides a BadgerDB-backed emulator object store, so an
// emulated device keeps its tree across runs.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/mtpfs/internal/logger"
	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

// Config configures the store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory runs Badger without touching disk.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// ObjectStore is a store.ObjectStore persisted in BadgerDB.
type ObjectStore struct {
	db     *badgerdb.DB
	closed atomic.Bool
}

// New opens (or creates) the database described by cfg.
func New(ctx context.Context, cfg Config) (*ObjectStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badgerdb.WARNING)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}
	logger.Debug("Badger object store opened", logger.KeyStoreType, "badger", logger.KeyPath, cfg.Path)
	return &ObjectStore{db: db}, nil
}

func (s *ObjectStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return store.ErrStoreClosed
	}
	return nil
}

func getRecord(txn *badgerdb.Txn, id string) (*store.Record, error) {
	item, err := txn.Get(keyObject(id))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec *store.Record
	err = item.Value(func(val []byte) error {
		var decErr error
		rec, decErr = decodeRecord(val)
		return decErr
	})
	return rec, err
}

func currentSeq(txn *badgerdb.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(keySeq))
	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	err = item.Value(func(val []byte) error {
		var decErr error
		seq, decErr = decodeUint64(val)
		return decErr
	})
	return seq, err
}

func nextSeq(txn *badgerdb.Txn) (uint64, error) {
	seq, err := currentSeq(txn)
	if err != nil {
		return 0, err
	}
	seq++
	return seq, txn.Set([]byte(keySeq), encodeUint64(seq))
}

// observeSeq raises the counter to seq so caller-assigned sequence numbers
// are never reissued.
func observeSeq(txn *badgerdb.Txn, seq uint64) error {
	cur, err := currentSeq(txn)
	if err != nil || seq <= cur {
		return err
	}
	return txn.Set([]byte(keySeq), encodeUint64(seq))
}

// Get implements store.ObjectStore.
func (s *ObjectStore) Get(ctx context.Context, id string) (*store.Record, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var rec *store.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		rec, err = getRecord(txn, id)
		return err
	})
	return rec, err
}

// Put implements store.ObjectStore.
func (s *ObjectStore) Put(ctx context.Context, rec *store.Record) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	rec = rec.Clone()

	return s.db.Update(func(txn *badgerdb.Txn) error {
		old, err := getRecord(txn, rec.ID)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			if rec.Seq == 0 {
				if rec.Seq, err = nextSeq(txn); err != nil {
					return err
				}
			} else if err := observeSeq(txn, rec.Seq); err != nil {
				return err
			}
			if err := s.link(txn, rec); err != nil {
				return err
			}
		case err != nil:
			return err
		case old.ParentID != rec.ParentID:
			if old.ParentID != "" {
				if err := txn.Delete(keyChild(old.ParentID, old.Seq)); err != nil {
					return err
				}
			}
			if rec.Seq, err = nextSeq(txn); err != nil {
				return err
			}
			if err := s.link(txn, rec); err != nil {
				return err
			}
		default:
			rec.Seq = old.Seq
		}

		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		return txn.Set(keyObject(rec.ID), data)
	})
}

func (s *ObjectStore) link(txn *badgerdb.Txn, rec *store.Record) error {
	if rec.ParentID == "" {
		return nil
	}
	return txn.Set(keyChild(rec.ParentID, rec.Seq), []byte(rec.ID))
}

// Delete implements store.ObjectStore.
func (s *ObjectStore) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		if rec.ParentID != "" {
			if err := txn.Delete(keyChild(rec.ParentID, rec.Seq)); err != nil {
				return err
			}
		}
		return txn.Delete(keyObject(id))
	})
}

// Children implements store.ObjectStore.
func (s *ObjectStore) Children(ctx context.Context, parentID string) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var ids []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = keyChildPrefix(parentID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			ids = append(ids, string(val))
		}
		return nil
	})
	return ids, err
}

// Close implements store.ObjectStore.
func (s *ObjectStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

var _ store.ObjectStore = (*ObjectStore)(nil)
