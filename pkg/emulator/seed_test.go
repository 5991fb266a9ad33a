package emulator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

const seedYAML = `
storages:
  - name: Internal storage
    children:
      - name: Music
        children:
          - name: some_playlist.m3u
            content: "song.mp3\n"
          - name: Empty Album
            type: AudioAlbum
      - name: big.bin
        size: 40
      - name: .nomedia
        type: GenericFile
        hidden: true
  - name: SD card
    children:
      - name: DCIM
`

func TestParseSeed(t *testing.T) {
	seed, err := emulator.ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Storages, 2)
	assert.Equal(t, "Internal storage", seed.Storages[0].Name)
	assert.Len(t, seed.Storages[0].Children, 3)

	_, err = emulator.ParseSeed(strings.NewReader("storages:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	empty, err := emulator.ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Storages)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0644))

	seed, err := emulator.LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, seed.Storages, 2)

	_, err = emulator.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplySeed(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	seed, err := emulator.ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.NoError(t, f.dev.ApplySeed(ctx, seed))

	storages, err := f.dev.Storages(ctx)
	require.NoError(t, err)
	require.Len(t, storages, 2, "existing storage is reused by name")
	assert.Equal(t, f.storage, storages[0])

	byName := func(parent string) map[string]*mtp.PropertyBag {
		out := make(map[string]*mtp.PropertyBag)
		for _, id := range f.children(t, parent) {
			props, err := f.sess.GetObjectProperties(ctx, id, nil)
			require.NoError(t, err)
			name, err := props.String(mtp.KeyObjectName)
			require.NoError(t, err)
			out[name] = props
		}
		return out
	}

	top := byName(f.storage)
	require.Contains(t, top, "Music")
	require.Contains(t, top, "big.bin")
	require.Contains(t, top, ".nomedia")

	ct, err := top["Music"].GUID(mtp.KeyObjectContentType)
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypeFolder.GUID(), ct)

	size, err := top["big.bin"].Uint64(mtp.KeyObjectSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), size)

	hidden, err := top[".nomedia"].Bool(mtp.KeyObjectIsHidden)
	require.NoError(t, err)
	assert.True(t, hidden)

	musicID, err := top["Music"].String(mtp.KeyObjectID)
	require.NoError(t, err)
	music := byName(musicID)
	ct, err = music["some_playlist.m3u"].GUID(mtp.KeyObjectContentType)
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypePlaylist.GUID(), ct)
	ct, err = music["Empty Album"].GUID(mtp.KeyObjectContentType)
	require.NoError(t, err)
	assert.Equal(t, mtp.ContentTypeAudioAlbum.GUID(), ct)

	playlistID, err := music["some_playlist.m3u"].String(mtp.KeyObjectID)
	require.NoError(t, err)
	assert.Equal(t, "song.mp3\n", f.read(t, playlistID))
}

func TestApplySeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"StorageWithoutName", "storages:\n  - children: []\n"},
		{"ObjectWithoutName", "storages:\n  - name: s\n    children:\n      - type: Folder\n"},
		{"UnknownType", "storages:\n  - name: s\n    children:\n      - name: x\n        type: Hologram\n"},
		{"FileWithChildren", "storages:\n  - name: s\n    children:\n      - name: x.txt\n        type: Document\n        children:\n          - name: y\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seed, err := emulator.ParseSeed(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			assert.Error(t, f.dev.ApplySeed(t.Context(), seed))
		})
	}
}

func TestInferContentType(t *testing.T) {
	tests := map[string]mtp.ContentType{
		"some_playlist.m3u": mtp.ContentTypePlaylist,
		"SONG.MP3":          mtp.ContentTypeAudio,
		"photo.jpeg":        mtp.ContentTypeImage,
		"clip.mp4":          mtp.ContentTypeVideo,
		"notes.txt":         mtp.ContentTypeDocument,
		"archive.zip":       mtp.ContentTypeGenericFile,
		"README":            mtp.ContentTypeGenericFile,
	}
	for name, want := range tests {
		assert.Equal(t, want, emulator.InferContentType(name), name)
	}
}

func TestSniffContentType(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want mtp.ContentType
	}{
		"png":      {[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), mtp.ContentTypeImage},
		"mp3":      {[]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), mtp.ContentTypeAudio},
		"pdf":      {[]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), mtp.ContentTypeDocument},
		"vcard":    {[]byte("BEGIN:VCARD\nVERSION:3.0\nFN:Ada\nEND:VCARD\n"), mtp.ContentTypeContact},
		"calendar": {[]byte("BEGIN:VCALENDAR\nVERSION:2.0\nEND:VCALENDAR\n"), mtp.ContentTypeCalendar},
		"text":     {[]byte("just some words"), mtp.ContentTypeDocument},
		"binary":   {[]byte{0x00, 0x01, 0x02, 0xfe, 0xff, 0x00}, mtp.ContentTypeGenericFile},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, emulator.SniffContentType(tt.data))
		})
	}
}
