package emulator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

// resource is an mtp.RawStream on one object's data.
//
// Reads are served from a snapshot taken when the handle was opened. Writes
// are buffered and only reach the stores on Commit: an upload creates its
// object then, and a write handle on an existing object replaces its data.
type resource struct {
	ctx  context.Context
	s    *session
	rec  *store.Record
	mode mtp.AccessMode

	data []byte
	off  int

	buf      bytes.Buffer
	declared int64 // -1 when the final size is not fixed in advance
	upload   bool
	wrote    bool

	committed bool
	closed    bool
}

// newUpload returns the write handle of a create-with-data call. The object
// does not exist until Commit.
func newUpload(ctx context.Context, s *session, rec *store.Record) *resource {
	return &resource{
		ctx:      ctx,
		s:        s,
		rec:      rec,
		mode:     mtp.ModeWrite,
		declared: int64(rec.Size),
		upload:   true,
	}
}

func newResource(ctx context.Context, s *session, rec *store.Record, mode mtp.AccessMode, data []byte) *resource {
	return &resource{
		ctx:      ctx,
		s:        s,
		rec:      rec,
		mode:     mode,
		data:     data,
		declared: -1,
	}
}

func (r *resource) ReadChunk(p []byte) (int, error) {
	if r.closed {
		return 0, ErrHandleClosed
	}
	if r.mode == mtp.ModeWrite {
		return 0, fmt.Errorf("%w: read on %s handle", ErrAccessDenied, r.mode)
	}
	if err := r.s.begin(r.ctx, OpReadChunk, r.rec.ID); err != nil {
		return 0, err
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

// WriteChunk accepts at most one advised chunk per call.
func (r *resource) WriteChunk(p []byte) (int, error) {
	if r.closed {
		return 0, ErrHandleClosed
	}
	if r.mode == mtp.ModeRead {
		return 0, fmt.Errorf("%w: write on %s handle", ErrAccessDenied, r.mode)
	}
	if r.committed {
		return 0, ErrAlreadyCommitted
	}
	if err := r.s.begin(r.ctx, OpWriteChunk, r.rec.ID); err != nil {
		return 0, err
	}

	n := min(len(p), int(r.s.dev.chunk))
	if r.declared >= 0 && int64(r.buf.Len()+n) > r.declared {
		return 0, fmt.Errorf("%w: %d bytes declared for %s", ErrSizeMismatch, r.declared, r.rec.Name)
	}
	r.buf.Write(p[:n])
	r.wrote = true
	return n, nil
}

func (r *resource) Commit() error {
	if r.closed {
		return ErrHandleClosed
	}
	if r.committed {
		return ErrAlreadyCommitted
	}
	if err := r.s.begin(r.ctx, OpCommit, r.rec.ID); err != nil {
		return err
	}

	switch {
	case r.upload:
		if int64(r.buf.Len()) != r.declared {
			return fmt.Errorf("%w: got %d of %d bytes for %s", ErrSizeMismatch, r.buf.Len(), r.declared, r.rec.Name)
		}
		if err := r.s.dev.commitData(r.ctx, r.rec, r.buf.Bytes()); err != nil {
			return err
		}
	case r.wrote:
		if err := r.s.dev.replaceData(r.ctx, r.rec.ID, r.buf.Bytes()); err != nil {
			return err
		}
	}
	r.committed = true
	return nil
}

func (r *resource) ObjectID() string {
	if r.upload && !r.committed {
		return ""
	}
	return r.rec.ID
}

func (r *resource) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.buf.Reset()
	r.data = nil
	return nil
}

var _ mtp.RawStream = (*resource)(nil)
