package mtp

import (
	"errors"
	"io"

	"github.com/marmos91/mtpfs/pkg/bufpool"
)

// ReadStream adapts a resource handle to io.Reader. Each Read is one
// transfer; a short or empty transfer ends the stream.
type ReadStream struct {
	raw      RawStream
	chunk    uint32
	objectID string
	eof      bool
	closed   bool
	n        int64
}

func newReadStream(raw RawStream, chunk uint32, objectID string) *ReadStream {
	return &ReadStream{raw: raw, chunk: chunk, objectID: objectID}
}

// OptimalTransferSize returns the chunk size the device advised. It is a hint.
func (r *ReadStream) OptimalTransferSize() uint32 { return r.chunk }

// BytesRead returns the number of bytes delivered so far.
func (r *ReadStream) BytesRead() int64 { return r.n }

// Read implements io.Reader.
func (r *ReadStream) Read(p []byte) (int, error) {
	if r.closed {
		return 0, newError(CodeSessionClosed, "read", r.objectID)
	}
	if r.eof {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.raw.ReadChunk(p)
	r.n += int64(n)
	if err != nil {
		return n, transportError("read", r.objectID, err)
	}
	if n < len(p) {
		r.eof = true
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// WriteTo implements io.WriterTo using transfers of the advised size.
func (r *ReadStream) WriteTo(w io.Writer) (int64, error) {
	buf := bufpool.GetChunk(r.chunk)
	defer bufpool.Put(buf)

	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			total += int64(m)
			if werr != nil {
				return total, werr
			}
			if m < n {
				return total, io.ErrShortWrite
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close releases the handle.
func (r *ReadStream) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return transportError("close-resource", r.objectID, r.raw.Close())
}

// WriteStream adapts a resource handle to io.Writer. Data is only final
// after Commit; closing an uncommitted stream discards what was written.
type WriteStream struct {
	raw       RawStream
	chunk     uint32
	name      string
	committed bool
	closed    bool
	n         int64
}

func newWriteStream(raw RawStream, chunk uint32, name string) *WriteStream {
	return &WriteStream{raw: raw, chunk: chunk, name: name}
}

// OptimalTransferSize returns the chunk size the device advised. It is a hint.
func (w *WriteStream) OptimalTransferSize() uint32 { return w.chunk }

// BytesWritten returns the number of bytes accepted so far.
func (w *WriteStream) BytesWritten() int64 { return w.n }

// Committed reports whether Commit succeeded.
func (w *WriteStream) Committed() bool { return w.committed }

// Write implements io.Writer.
func (w *WriteStream) Write(p []byte) (int, error) {
	if w.closed {
		return 0, &Error{Code: CodeSessionClosed, Op: "write", Detail: w.name}
	}
	written := 0
	for written < len(p) {
		n, err := w.raw.WriteChunk(p[written:])
		written += n
		w.n += int64(n)
		if err != nil {
			return written, transportError("write", w.raw.ObjectID(), err)
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// ReadFrom implements io.ReaderFrom using transfers of the advised size.
// Read failures of r are reported as ErrInvalidLocalSource.
func (w *WriteStream) ReadFrom(r io.Reader) (int64, error) {
	buf := bufpool.GetChunk(w.chunk)
	defer bufpool.Put(buf)

	var total int64
	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			m, err := w.Write(buf[:n])
			total += int64(m)
			if err != nil {
				return total, err
			}
		}
		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			return total, nil
		default:
			return total, &Error{Code: CodeInvalidLocalSource, Op: "push", Detail: w.name, Err: rerr}
		}
	}
}

// Commit finalizes the object. Calling it again after success is a no-op.
func (w *WriteStream) Commit() error {
	if w.committed {
		return nil
	}
	if w.closed {
		return &Error{Code: CodeSessionClosed, Op: "commit", Detail: w.name}
	}
	if err := w.raw.Commit(); err != nil {
		return transportError("commit", w.raw.ObjectID(), err)
	}
	w.committed = true
	return nil
}

// Flush commits the stream.
func (w *WriteStream) Flush() error {
	return w.Commit()
}

// ObjectID returns the ID of the created object. It is empty until Commit
// succeeds.
func (w *WriteStream) ObjectID() string {
	if !w.committed {
		return ""
	}
	return w.raw.ObjectID()
}

// Close releases the handle without committing.
func (w *WriteStream) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return transportError("close-resource", w.raw.ObjectID(), w.raw.Close())
}
