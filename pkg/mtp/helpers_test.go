package mtp_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator"
	"github.com/marmos91/mtpfs/pkg/metrics"
	"github.com/marmos91/mtpfs/pkg/mtp"
)

const testChunk = 8

// testTree is the default device layout. "Dup" appears twice on purpose.
const testTree = `
storages:
  - name: Internal storage
    children:
      - name: Download
        children:
          - name: readme.txt
            content: "read me"
      - name: Music
        children:
          - name: some_playlist.m3u
            content: "track.mp3\n"
          - name: Album
            children:
              - name: track.mp3
                size: 100
      - name: Pictures
      - name: Dup
        children:
          - name: first.txt
            content: "1"
      - name: Dup
        children:
          - name: second.txt
            content: "2"
`

type testEnv struct {
	dev     *emulator.Device
	device  *mtp.Device
	content *mtp.Content
	root    *mtp.Object
	storage *mtp.Object
	reg     *prometheus.Registry
}

func newEnv(t *testing.T, caseSensitive bool) *testEnv {
	t.Helper()
	ctx := t.Context()

	dev, err := emulator.NewDevice(ctx, emulator.DeviceConfig{
		ID:           "usb#vid_18d1&pid_4ee1",
		FriendlyName: "Pixel",
		ChunkSize:    testChunk,
	})
	require.NoError(t, err)
	seed, err := emulator.ParseSeed(strings.NewReader(testTree))
	require.NoError(t, err)
	require.NoError(t, dev.ApplySeed(ctx, seed))

	emu, err := emulator.New(dev)
	require.NoError(t, err)
	t.Cleanup(func() { _ = emu.Close() })

	reg := prometheus.NewRegistry()
	drv := metrics.InstrumentDriver(emu, metrics.NewMetrics(reg))

	info, err := mtp.NewProvider(drv).Device(ctx, "Pixel")
	require.NoError(t, err)
	device, err := info.Open(ctx, mtp.ClientInfo{Name: "mtpfs-test", Major: 1}, caseSensitive)
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })

	content := device.Content()
	t.Cleanup(func() { _ = content.Close() })

	root, err := content.Root(ctx)
	require.NoError(t, err)
	storage, err := root.ResolvePath(ctx, "Internal storage")
	require.NoError(t, err)

	return &testEnv{dev: dev, device: device, content: content, root: root, storage: storage, reg: reg}
}

// calls returns how many times op reached the driver so far.
func (e *testEnv) calls(t *testing.T, op string) uint64 {
	t.Helper()
	stats, err := metrics.Snapshot(e.reg)
	require.NoError(t, err)
	return stats.Count(op).Total()
}

// resolve resolves path from the storage and fails the test on error.
func (e *testEnv) resolve(t *testing.T, path string) *mtp.Object {
	t.Helper()
	obj, err := e.storage.ResolvePath(t.Context(), path)
	require.NoError(t, err, "resolve %q", path)
	return obj
}

func names(objs []*mtp.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name()
	}
	return out
}
