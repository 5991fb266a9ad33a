package mtp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/metrics"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

func TestResolve_NamedChild(t *testing.T) {
	env := newEnv(t, true)

	for _, name := range []string{"Download", "Music", "Pictures"} {
		obj := env.resolve(t, name)
		assert.Equal(t, name, obj.Name())
		assert.Equal(t, mtp.ContentTypeFolder, obj.ContentType())
	}

	file := env.resolve(t, "Music/some_playlist.m3u")
	assert.Equal(t, "some_playlist.m3u", file.Name())
	assert.Equal(t, mtp.ContentTypePlaylist, file.ContentType())
}

func TestResolve_CurrentDirIsSelf(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	music := env.resolve(t, "Music")

	before := env.calls(t, metrics.OpEnumerate)
	self, err := music.ResolvePath(ctx, ".")
	require.NoError(t, err)
	assert.Equal(t, music.ID(), self.ID())
	assert.Equal(t, before, env.calls(t, metrics.OpEnumerate), "no round trip for '.'")
}

func TestResolve_ParentDir(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	album := env.resolve(t, "Music/Album")
	parent, err := album.ResolvePath(ctx, "..")
	require.NoError(t, err)
	assert.Equal(t, "Music", parent.Name())

	up, err := env.storage.ResolvePath(ctx, "..")
	require.NoError(t, err)
	assert.Equal(t, mtp.RootObjectID, up.ID())
	assert.Equal(t, mtp.ContentTypeFunctionalObject, up.ContentType())

	_, err = env.root.ResolvePath(ctx, "..")
	assert.ErrorIs(t, err, mtp.ErrNotFound, "the root has no parent")

	_, err = env.root.Parent(ctx)
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestResolve_CurrentDirComponentsAreNoops(t *testing.T) {
	env := newEnv(t, true)

	want := env.resolve(t, "Music/Album")
	for _, p := range []string{"Music/./Album", "./Music/Album", "Music/Album/.", "././Music/././Album"} {
		assert.Equal(t, want.ID(), env.resolve(t, p).ID(), p)
	}
}

func TestResolve_ParentRoundTripIsTransparent(t *testing.T) {
	env := newEnv(t, true)

	want := env.resolve(t, "Music/Album")
	assert.Equal(t, want.ID(), env.resolve(t, "Music/some_playlist.m3u/../Album").ID())
	assert.Equal(t, want.ID(), env.resolve(t, "Download/../Music/Album").ID())
	assert.Equal(t, want.ID(), env.resolve(t, "Music/Album/../../Music/Album").ID())
}

func TestResolve_AbsolutePathRejected(t *testing.T) {
	env := newEnv(t, false)
	ctx := t.Context()

	for _, p := range []string{
		"/Music",
		`\Music`,
		"//Music/Album",
		`\\?\Music`,
		"C:",
		`C:\Music`,
		"c:/Music/Album",
		"/",
		"/does/not/exist",
	} {
		_, err := env.storage.ResolvePath(ctx, p)
		require.Error(t, err, p)
		assert.ErrorIs(t, err, mtp.ErrAbsolutePath, p)

		var e *mtp.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, p, e.Path)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	env := newEnv(t, false)

	obj := env.resolve(t, "download")
	assert.Equal(t, "Download", obj.Name())
	assert.Equal(t, "readme.txt", env.resolve(t, "DOWNLOAD/README.TXT").Name())
	assert.False(t, env.content.CaseSensitive())
}

func TestResolve_CaseSensitive(t *testing.T) {
	env := newEnv(t, true)

	_, err := env.storage.ResolvePath(t.Context(), "download")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
	assert.Equal(t, "Download", env.resolve(t, "Download").Name())
}

func TestResolve_SeparatorsNormalize(t *testing.T) {
	env := newEnv(t, true)

	want := env.resolve(t, "Music/Album/track.mp3")
	for _, p := range []string{`Music\Album\track.mp3`, "Music//Album///track.mp3", "Music/Album/track.mp3/", `Music\/Album/\track.mp3`} {
		assert.Equal(t, want.ID(), env.resolve(t, p).ID(), p)
	}
}

func TestResolve_EmptyPath(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	_, err := env.storage.ResolvePath(ctx, "")
	assert.ErrorIs(t, err, mtp.ErrNotFound)

	_, err = env.storage.Resolve(ctx, nil)
	assert.ErrorIs(t, err, mtp.ErrNotFound)

	// Whitespace is a legal object name, so this is a plain lookup.
	_, err = env.storage.ResolvePath(ctx, "   ")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}

func TestResolve_NotFoundCarriesPath(t *testing.T) {
	env := newEnv(t, true)

	_, err := env.storage.ResolvePath(t.Context(), "Music/Nope/track.mp3")
	require.ErrorIs(t, err, mtp.ErrNotFound)

	var e *mtp.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Music/Nope/track.mp3", e.Path)
	assert.Contains(t, err.Error(), "Nope")
}

func TestResolve_FirstDuplicateWins(t *testing.T) {
	env := newEnv(t, true)

	dup := env.resolve(t, "Dup")
	kids, err := dup.Children(t.Context())
	require.NoError(t, err)
	objs, err := kids.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"first.txt"}, names(objs))

	_, err = env.storage.ResolvePath(t.Context(), "Dup/second.txt")
	assert.ErrorIs(t, err, mtp.ErrNotFound, "later duplicates are unreachable by path")
}

func TestResolve_StopsAtFirstMatch(t *testing.T) {
	env := newEnv(t, true)

	before := env.calls(t, metrics.OpEnumerateNext)
	env.resolve(t, "Download")
	assert.Equal(t, before+1, env.calls(t, metrics.OpEnumerateNext), "Download is the first child")
}

func TestResolve_TransportErrorPropagates(t *testing.T) {
	env := newEnv(t, true)
	boom := errors.New("usb stall")
	env.dev.FailOn(emulator.OpEnumerate, boom)

	_, err := env.storage.ResolvePath(t.Context(), "Music")
	require.Error(t, err)
	assert.True(t, mtp.IsTransportError(err))
	assert.ErrorIs(t, err, boom)

	var e *mtp.Error
	require.ErrorAs(t, err, &e)
	assert.Empty(t, e.Path, "transport errors are returned verbatim")
}

func TestResolve_DriverSentinelUntouched(t *testing.T) {
	env := newEnv(t, true)
	env.dev.FailOn(emulator.OpEnumerate, mtp.ErrSessionClosed)

	_, err := env.storage.ResolvePath(t.Context(), "Download")
	require.ErrorIs(t, err, mtp.ErrSessionClosed)

	var e *mtp.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Download", e.Path)
	assert.NotSame(t, mtp.ErrSessionClosed, e)
	assert.Empty(t, mtp.ErrSessionClosed.Path, "package sentinels stay pristine")
}

func TestResolve_ChildResolvedOutOfBand(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	pictures := env.resolve(t, "Pictures")
	require.NoError(t, pictures.Delete(ctx, false))

	// The snapshot is consumed; a fresh lookup no longer finds it.
	_, err := pictures.ResolvePath(ctx, ".")
	assert.ErrorIs(t, err, mtp.ErrDeleted)
	_, err = env.storage.ResolvePath(ctx, "Pictures")
	assert.ErrorIs(t, err, mtp.ErrNotFound)
}
