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

func TestChildren_Order(t *testing.T) {
	env := newEnv(t, true)

	it, err := env.storage.Children(t.Context())
	require.NoError(t, err)
	objs, err := it.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Download", "Music", "Pictures", "Dup", "Dup"}, names(objs))
}

func TestChildren_RepeatableAcrossEnumerations(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	music := env.resolve(t, "Music")

	scan := func() []string {
		it, err := music.Children(ctx)
		require.NoError(t, err)
		objs, err := it.Collect(ctx)
		require.NoError(t, err)
		return names(objs)
	}
	first := scan()
	assert.Equal(t, []string{"some_playlist.m3u", "Album"}, first)
	assert.Equal(t, first, scan())
}

func TestChildren_RoundTrips(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	music := env.resolve(t, "Music")

	enumBefore := env.calls(t, metrics.OpEnumerateNext)
	propsBefore := env.calls(t, metrics.OpGetProperties)

	it, err := music.Children(ctx)
	require.NoError(t, err)
	_, err = it.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, enumBefore+3, env.calls(t, metrics.OpEnumerateNext), "two children and the final empty batch")
	assert.Equal(t, propsBefore+2, env.calls(t, metrics.OpGetProperties))
}

func TestChildren_ScannerLoop(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	it, err := env.resolve(t, "Download").Children(ctx)
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next(ctx) {
		got = append(got, it.Object().Name())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"readme.txt"}, got)

	assert.False(t, it.Next(ctx), "exhausted iterators stay exhausted")
	assert.Nil(t, it.Object())
	require.NoError(t, it.Close())
}

func TestChildren_EmptyFolder(t *testing.T) {
	env := newEnv(t, true)

	it, err := env.resolve(t, "Pictures").Children(t.Context())
	require.NoError(t, err)
	objs, err := it.Collect(t.Context())
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestChildren_BreakClosesCursor(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()

	it, err := env.storage.Children(ctx)
	require.NoError(t, err)
	for obj := range it.All(ctx) {
		assert.Equal(t, "Download", obj.Name())
		break
	}
	assert.False(t, it.Next(ctx))
	assert.NoError(t, it.Err())
}

func TestSubFoldersAndFiles(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	music := env.resolve(t, "Music")

	folders, err := music.SubFolders(ctx)
	require.NoError(t, err)
	objs, err := folders.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Album"}, names(objs))

	files, err := music.Files(ctx)
	require.NoError(t, err)
	objs, err = files.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"some_playlist.m3u"}, names(objs))

	// The root holds storages, which are neither plain folders nor files.
	folders, err = env.root.SubFolders(ctx)
	require.NoError(t, err)
	objs, err = folders.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, objs)

	files, err = env.root.Files(ctx)
	require.NoError(t, err)
	objs, err = files.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestChildren_TransportErrorMidway(t *testing.T) {
	env := newEnv(t, true)
	ctx := t.Context()
	boom := errors.New("cable pulled")

	it, err := env.storage.Children(ctx)
	require.NoError(t, err)
	require.True(t, it.Next(ctx))

	env.dev.FailOn(emulator.OpEnumerateNext, boom)
	assert.False(t, it.Next(ctx))
	assert.True(t, mtp.IsTransportError(it.Err()))
	assert.ErrorIs(t, it.Err(), boom)
	assert.NoError(t, it.Close())
}

func TestChildren_StartFailure(t *testing.T) {
	env := newEnv(t, true)
	env.dev.FailOn(emulator.OpEnumerate, errors.New("busy"))

	_, err := env.storage.Children(t.Context())
	assert.True(t, mtp.IsTransportError(err))
}
