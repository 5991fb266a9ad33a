package mtp

import (
	"context"
	"iter"

	"github.com/marmos91/mtpfs/internal/logger"
)

// ObjectIterator walks the children of one object. It is single-pass and
// forward-only: each step pulls one ID from the device cursor and resolves
// it, so visiting N children costs N+1 round trips. Start a new enumeration
// to scan again.
//
//	it, err := folder.Children(ctx)
//	...
//	defer it.Close()
//	for it.Next(ctx) {
//		child := it.Object()
//	}
//	if err := it.Err(); err != nil { ... }
type ObjectIterator struct {
	content  *Content
	parentID string
	cursor   ObjectIDCursor
	keep     func(*Object) bool

	id      [1]string
	current *Object
	visited int
	err     error
	done    bool
}

// Next advances to the next child. It returns false when the children are
// exhausted or a round trip fails; check Err to tell the two apart.
func (it *ObjectIterator) Next(ctx context.Context) bool {
	it.current = nil
	for !it.done {
		n, err := it.cursor.Next(ctx, it.id[:])
		if err != nil {
			it.fail(transportError("enumerate-next", it.parentID, err))
			return false
		}
		if n < len(it.id) {
			logger.DebugCtx(ctx, "Enumeration exhausted",
				logger.KeyObjectID, it.parentID, logger.KeyEntries, it.visited)
			it.finish()
			return false
		}

		obj, err := it.content.ObjectByID(ctx, it.id[0])
		if err != nil {
			it.fail(err)
			return false
		}
		it.visited++
		if it.keep != nil && !it.keep(obj) {
			continue
		}
		it.current = obj
		return true
	}
	return false
}

// Object returns the child reached by the last successful Next.
func (it *ObjectIterator) Object() *Object {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *ObjectIterator) Err() error {
	return it.err
}

// All returns the remaining children as a range-over-func sequence. The
// iterator is closed when the sequence ends or the loop breaks.
func (it *ObjectIterator) All(ctx context.Context) iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		defer it.Close()
		for it.Next(ctx) {
			if !yield(it.current) {
				return
			}
		}
	}
}

// Collect drains the iterator into a slice.
func (it *ObjectIterator) Collect(ctx context.Context) ([]*Object, error) {
	var out []*Object
	for obj := range it.All(ctx) {
		out = append(out, obj)
	}
	return out, it.Err()
}

// Close releases the device cursor. It is safe to call more than once.
func (it *ObjectIterator) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	return transportError("enumerate-close", it.parentID, it.cursor.Close())
}

func (it *ObjectIterator) finish() {
	_ = it.Close()
}

func (it *ObjectIterator) fail(err error) {
	it.err = err
	_ = it.Close()
}
