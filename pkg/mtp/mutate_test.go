package mtp_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/metrics"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

func readAll(t *testing.T, obj *mtp.Object) []byte {
	t.Helper()
	r, err := obj.Open(t.Context())
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestCreateFolder(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	id, err := env.storage.CreateFolder(ctx, "Podcasts")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	obj := env.resolve(t, "Podcasts")
	assert.Equal(t, id, obj.ID())
	assert.True(t, obj.IsFolder())

	nested, err := obj.CreateFolder(ctx, "2026")
	require.NoError(t, err)
	assert.Equal(t, nested, env.resolve(t, "Podcasts/2026").ID())
}

func TestCreateFolder_DuplicateNeverReachesDevice(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	_, err := env.storage.CreateFolder(ctx, "Music")
	require.Error(t, err)
	assert.ErrorIs(t, err, mtp.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "Music")
	assert.Zero(t, env.calls(t, metrics.OpCreateObject))
}

func TestCreateFolder_DuplicateFollowsCasePolicy(t *testing.T) {
	insensitive := newEnv(t, false)
	_, err := insensitive.storage.CreateFolder(t.Context(), "music")
	assert.ErrorIs(t, err, mtp.ErrAlreadyExists)

	sensitive := newEnv(t, true)
	_, err = sensitive.storage.CreateFolder(t.Context(), "music")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sensitive.calls(t, metrics.OpCreateObject))
}

func TestCreateFolder_InvalidName(t *testing.T) {
	env := newEnv(t, true)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "/abs", "C:", "trailing/"} {
		_, err := env.storage.CreateFolder(t.Context(), name)
		assert.ErrorIs(t, err, mtp.ErrInvalidName, "%q", name)
	}
	assert.Zero(t, env.calls(t, metrics.OpCreateObject))
}

func TestCreateFolder_TransportError(t *testing.T) {
	env := newEnv(t, true)
	boom := errors.New("device busy")
	env.dev.FailOn(emulator.OpCreateObject, boom)

	_, err := env.storage.CreateFolder(t.Context(), "New")
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, boom)
}

func TestPushReader_RoundTrip(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	payload := []byte("a payload larger than a single chunk of eight bytes")

	music := env.resolve(t, "Music")
	id, err := music.PushReader(ctx, "notes.txt", bytes.NewReader(payload), uint64(len(payload)), mtp.PushOptions{FailIfExists: true})
	require.NoError(t, err)

	obj := env.resolve(t, "Music/notes.txt")
	assert.Equal(t, id, obj.ID())
	assert.Equal(t, mtp.ContentTypeDocument, obj.ContentType())
	assert.Equal(t, payload, readAll(t, obj))

	props, err := obj.Properties(ctx, mtp.KeyObjectSize)
	require.NoError(t, err)
	size, err := props.Uint64(mtp.KeyObjectSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), size)
}

func TestPushReader_UnknownExtensionIsSniffed(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	text := "plain words without an extension"
	_, err := env.storage.PushReader(ctx, "README", strings.NewReader(text), uint64(len(text)), mtp.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypeDocument, env.resolve(t, "README").ContentType())

	blob := []byte{0x00, 0x01, 0x02, 0xfe, 0xff, 0x00}
	_, err = env.storage.PushReader(ctx, "blob.bin", bytes.NewReader(blob), uint64(len(blob)), mtp.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypeGenericFile, env.resolve(t, "blob.bin").ContentType())
}

func TestPushReader_EmptyFile(t *testing.T) {
	env := newEnv(t, true)

	_, err := env.storage.PushReader(t.Context(), "empty.txt", strings.NewReader(""), 0, mtp.PushOptions{})
	require.NoError(t, err)
	assert.Empty(t, readAll(t, env.resolve(t, "empty.txt")))
}

func TestPushReader_FailIfExists(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	download := env.resolve(t, "Download")

	_, err := download.PushReader(ctx, "readme.txt", strings.NewReader("x"), 1, mtp.PushOptions{FailIfExists: true})
	assert.ErrorIs(t, err, mtp.ErrAlreadyExists)
	assert.Zero(t, env.calls(t, metrics.OpCreateObjectWithData))

	// Without the check the device decides; the emulator accepts duplicates.
	_, err = download.PushReader(ctx, "readme.txt", strings.NewReader("x"), 1, mtp.PushOptions{})
	require.NoError(t, err)
}

func TestPushReader_NilReader(t *testing.T) {
	env := newEnv(t, true)

	_, err := env.storage.PushReader(t.Context(), "x.txt", nil, 0, mtp.PushOptions{})
	assert.ErrorIs(t, err, mtp.ErrInvalidLocalSource)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk unplugged") }

func TestPushReader_SourceReadFailure(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	_, err := env.storage.PushReader(ctx, "broken.txt", failingReader{}, 10, mtp.PushOptions{})
	assert.ErrorIs(t, err, mtp.ErrInvalidLocalSource)
	assert.Zero(t, env.calls(t, metrics.OpCommit))

	_, err = env.storage.ResolvePath(ctx, "broken.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound, "an uncommitted upload leaves nothing behind")
}

func TestPushReader_ShortSourceFailsCommit(t *testing.T) {
	env := newEnv(t, true)

	_, err := env.storage.PushReader(t.Context(), "short.txt", strings.NewReader("abc"), 10, mtp.PushOptions{})
	require.Error(t, err)
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, emulator.ErrSizeMismatch)
}

func TestPushFile(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	local := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(local, []byte("\xff\xd8\xff jpeg bytes"), 0o644))

	pictures := env.resolve(t, "Pictures")
	id, err := pictures.PushFile(ctx, local, mtp.PushOptions{FailIfExists: true})
	require.NoError(t, err)

	obj := env.resolve(t, "Pictures/photo.jpg")
	assert.Equal(t, id, obj.ID())
	assert.Equal(t, mtp.ContentTypeImage, obj.ContentType())
	assert.Equal(t, []byte("\xff\xd8\xff jpeg bytes"), readAll(t, obj))

	_, err = pictures.PushFile(ctx, local, mtp.PushOptions{FailIfExists: true})
	assert.ErrorIs(t, err, mtp.ErrAlreadyExists)
}

func TestPushFile_InvalidLocalSource(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	dir := t.TempDir()

	_, err := env.storage.PushFile(ctx, filepath.Join(dir, "missing.txt"), mtp.PushOptions{})
	assert.ErrorIs(t, err, mtp.ErrInvalidLocalSource)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = env.storage.PushFile(ctx, dir, mtp.PushOptions{})
	assert.ErrorIs(t, err, mtp.ErrInvalidLocalSource)
	assert.Contains(t, err.Error(), "not a regular file")

	assert.Zero(t, env.calls(t, metrics.OpCreateObjectWithData))
}

func TestCreateFile_CommitMakesVisible(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	w, err := env.storage.CreateFile(ctx, "late.txt", 5)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, uint32(testChunk), w.OptimalTransferSize())

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(5), w.BytesWritten())
	assert.Empty(t, w.ObjectID())

	_, err = env.storage.ResolvePath(ctx, "late.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound)

	require.NoError(t, w.Commit())
	assert.True(t, w.Committed())
	require.NoError(t, w.Flush(), "committing twice is a no-op")
	assert.Equal(t, w.ObjectID(), env.resolve(t, "late.txt").ID())
}

func TestCreateFile_CloseWithoutCommit(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	w, err := env.storage.CreateFile(ctx, "abandoned.txt", 3)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, mtp.ErrSessionClosed)
	assert.ErrorIs(t, w.Commit(), mtp.ErrSessionClosed)

	_, err = env.storage.ResolvePath(ctx, "abandoned.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestCreateFile_UnableToCreate(t *testing.T) {
	s := newFakeSession()
	s.nilUpload = true
	content := mtp.NewContent("fake", s, true)
	defer content.Close()

	root, err := content.Root(t.Context())
	require.NoError(t, err)

	_, err = root.CreateFile(t.Context(), "x.bin", 1)
	assert.ErrorIs(t, err, mtp.ErrUnableToCreate)

	_, err = root.PushReader(t.Context(), "x.bin", strings.NewReader("x"), 1, mtp.PushOptions{})
	assert.ErrorIs(t, err, mtp.ErrUnableToCreate)
}

func TestCreateFile_PropertyBag(t *testing.T) {
	s := newFakeSession()
	s.nilUpload = true
	content := mtp.NewContent("fake", s, true)
	defer content.Close()

	root, err := content.Root(t.Context())
	require.NoError(t, err)
	_, err = root.CreateFile(t.Context(), "report.pdf", 42)
	require.Error(t, err)

	bag := s.uploadBag
	require.NotNil(t, bag)
	parent, err := bag.String(mtp.KeyObjectParentID)
	require.NoError(t, err)
	assert.Equal(t, root.ID(), parent)
	size, err := bag.Uint64(mtp.KeyObjectSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), size)
	for _, key := range []mtp.PropertyKey{mtp.KeyObjectName, mtp.KeyObjectOriginalFileName} {
		name, err := bag.String(key)
		require.NoError(t, err, key.String())
		assert.Equal(t, "report.pdf", name)
	}
}

func TestDelete(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	readme := env.resolve(t, "Download/readme.txt")
	require.NoError(t, readme.Delete(ctx, false))

	_, err := env.storage.ResolvePath(ctx, "Download/readme.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound)

	for _, call := range []func() error{
		func() error { _, err := readme.Open(ctx); return err },
		func() error { _, err := readme.Children(ctx); return err },
		func() error { _, err := readme.Parent(ctx); return err },
		func() error { _, err := readme.Properties(ctx); return err },
		func() error { return readme.Delete(ctx, false) },
		func() error { return readme.MoveTo(ctx, env.storage.ID()) },
		func() error { _, err := readme.CreateFolder(ctx, "x"); return err },
	} {
		assert.ErrorIs(t, call(), mtp.ErrDeleted)
	}
	assert.Equal(t, "readme.txt", readme.Name(), "metadata accessors still work")
}

func TestDelete_NonEmptyFolder(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	music := env.resolve(t, "Music")
	err := music.Delete(ctx, false)
	require.Error(t, err)
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, emulator.ErrNotEmpty)

	// A failed delete does not consume the object.
	_, err = music.Children(ctx)
	require.NoError(t, err)

	require.NoError(t, music.Delete(ctx, true))
	_, err = env.storage.ResolvePath(ctx, "Music/Album/track.mp3")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestMoveTo(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	readme := env.resolve(t, "Download/readme.txt")
	pictures := env.resolve(t, "Pictures")
	require.NoError(t, readme.MoveTo(ctx, pictures.ID()))

	moved := env.resolve(t, "Pictures/readme.txt")
	assert.Equal(t, readme.ID(), moved.ID())
	pid, err := readme.ParentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, pictures.ID(), pid)

	_, err = env.storage.ResolvePath(ctx, "Download/readme.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestMoveTo_IntoOwnSubtree(t *testing.T) {
	env := newEnv(t, true)

	music := env.resolve(t, "Music")
	album := env.resolve(t, "Music/Album")
	err := music.MoveTo(t.Context(), album.ID())
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, emulator.ErrMoveIntoSelf)
}
