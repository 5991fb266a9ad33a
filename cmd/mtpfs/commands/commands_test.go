package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/mtp"
)

const cliSeed = `
storages:
  - name: Internal storage
    children:
      - name: Music
        children:
          - name: song.mp3
            content: "la la la"
      - name: Notes
        children:
          - name: todo.txt
            content: "buy milk"
          - name: .secret
            content: "x"
            hidden: true
`

// setupCLI writes a config with one persistent device under a temp dir and
// returns its path.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(cliSeed), 0644))

	cfg := fmt.Sprintf(`
logging:
  level: ERROR
devices:
  - id: "usb#test"
    name: Test phone
    seed: %q
    store:
      type: badger
      badger:
        path: %q
    blobs:
      type: filesystem
      filesystem:
        path: %q
`, seed, filepath.Join(dir, "objects"), filepath.Join(dir, "blobs"))

	path := filepath.Join(dir, "mtpfs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since flag variables outlive a single Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := GetRootCmd()
	resetFlags(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func listJSON(t *testing.T, cfgPath string, args ...string) []objectEntry {
	t.Helper()
	out, err := run(t, cfgPath, append([]string{"ls", "-o", "json"}, args...)...)
	require.NoError(t, err, out)

	var entries []objectEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries), out)
	return entries
}

func names(entries []objectEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestLs(t *testing.T) {
	cfg := setupCLI(t)

	assert.Equal(t, []string{"Internal storage"}, names(listJSON(t, cfg)))
	assert.Equal(t, []string{"Music", "Notes"}, names(listJSON(t, cfg, "Internal storage")))

	t.Run("hidden objects need --all", func(t *testing.T) {
		assert.Equal(t, []string{"todo.txt"}, names(listJSON(t, cfg, "Internal storage/Notes")))
		assert.Equal(t, []string{"todo.txt", ".secret"}, names(listJSON(t, cfg, "Internal storage/Notes", "--all")))
	})

	t.Run("names fold case by default", func(t *testing.T) {
		assert.Equal(t, []string{"song.mp3"}, names(listJSON(t, cfg, "internal STORAGE/music")))
	})

	t.Run("case-sensitive flag", func(t *testing.T) {
		_, err := run(t, cfg, "ls", "--case-sensitive", "internal storage")
		require.Error(t, err)
		assert.ErrorIs(t, err, mtp.ErrNotFound)
		assert.Equal(t, 2, ExitCode(err))
	})

	t.Run("files only", func(t *testing.T) {
		entries := listJSON(t, cfg, "Internal storage/Music", "--files")
		require.Len(t, entries, 1)
		assert.Equal(t, uint64(8), entries[0].Size)
	})
}

func TestRootPath(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "Internal storage")
	assert.Contains(t, out, "song.mp3")

	out, err = run(t, cfg, "stat", "", "-o", "json")
	require.NoError(t, err)
	var props map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &props), out)
	assert.Equal(t, mtp.RootObjectID, props["object.id"])

	_, err = run(t, cfg, "mkdir", "Scratch")
	require.NoError(t, err, "a single component is created under the root")
	assert.Equal(t, []string{"Internal storage", "Scratch"}, names(listJSON(t, cfg)))
}

func TestLs_Table(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "ls", "Internal storage/Music")
	require.NoError(t, err)
	assert.Contains(t, out, "song.mp3")
	assert.Contains(t, out, "8B")
}

func TestPushPull(t *testing.T) {
	cfg := setupCLI(t)
	local := t.TempDir()

	src := filepath.Join(local, "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("quarterly numbers"), 0644))

	_, err := run(t, cfg, "push", src, "Internal storage/Notes")
	require.NoError(t, err)
	assert.Contains(t, names(listJSON(t, cfg, "Internal storage/Notes")), "report.txt")

	t.Run("existing name is rejected", func(t *testing.T) {
		_, err := run(t, cfg, "push", src, "Internal storage/Notes")
		assert.ErrorIs(t, err, mtp.ErrAlreadyExists)
	})

	t.Run("replace", func(t *testing.T) {
		require.NoError(t, os.WriteFile(src, []byte("revised"), 0644))
		_, err := run(t, cfg, "push", src, "Internal storage/Notes", "--replace")
		require.NoError(t, err)

		dest := filepath.Join(t.TempDir(), "back.txt")
		_, err = run(t, cfg, "pull", "Internal storage/Notes/report.txt", dest)
		require.NoError(t, err)
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "revised", string(data))
	})

	t.Run("directory round trip", func(t *testing.T) {
		album := filepath.Join(local, "Album")
		require.NoError(t, os.MkdirAll(filepath.Join(album, "Disc 2"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(album, "01.mp3"), []byte("one"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(album, "Disc 2", "02.mp3"), []byte("two"), 0644))

		out, err := run(t, cfg, "push", album, "Internal storage/Music", "-o", "json")
		require.NoError(t, err)
		var res transferResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, 4, res.Objects)
		assert.Equal(t, int64(6), res.Bytes)

		dest := t.TempDir()
		_, err = run(t, cfg, "pull", "Internal storage/Music/Album", dest)
		require.Error(t, err, "folders need --recursive")

		_, err = run(t, cfg, "pull", "Internal storage/Music/Album", dest, "-r")
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dest, "Album", "Disc 2", "02.mp3"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})
}

func TestMkdirRmMv(t *testing.T) {
	cfg := setupCLI(t)

	_, err := run(t, cfg, "mkdir", "Internal storage/Backups/2026")
	require.ErrorIs(t, err, mtp.ErrNotFound, "parent is missing")

	_, err = run(t, cfg, "mkdir", "Internal storage/Backups/2026", "-p")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026"}, names(listJSON(t, cfg, "Internal storage/Backups")))

	_, err = run(t, cfg, "mkdir", "Internal storage/Backups/2026", "-p")
	require.NoError(t, err, "existing folders are fine with --parents")

	_, err = run(t, cfg, "mv", "Internal storage/Music/song.mp3", "Internal storage/Backups/2026")
	require.NoError(t, err)
	assert.Empty(t, listJSON(t, cfg, "Internal storage/Music"))
	assert.Equal(t, []string{"song.mp3"}, names(listJSON(t, cfg, "Internal storage/Backups/2026")))

	_, err = run(t, cfg, "mv", "Internal storage/Notes", "Internal storage/Notes/todo.txt")
	assert.Error(t, err, "destination must be a folder")

	_, err = run(t, cfg, "rm", "Internal storage/Backups")
	require.Error(t, err, "non-empty folder needs --recursive")

	_, err = run(t, cfg, "rm", "Internal storage/Backups", "-r", "--force")
	require.NoError(t, err)
	assert.Equal(t, []string{"Music", "Notes"}, names(listJSON(t, cfg, "Internal storage")))

	_, err = run(t, cfg, "rm", "")
	assert.Error(t, err)
}

func TestStat(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "stat", "Internal storage/Notes/todo.txt", "-o", "json")
	require.NoError(t, err)

	var props map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &props), out)
	assert.Equal(t, "todo.txt", props["object.name"])
}

func TestDevices(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "Test phone")
	assert.Contains(t, out, "usb#test")
}

func TestStatsFlag(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "tree", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "todo.txt")
	assert.Contains(t, out, "round trips")
}

func TestConfigCommands(t *testing.T) {
	cfg := setupCLI(t)

	out, err := run(t, cfg, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "badger/filesystem")

	out, err = run(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "usb#test")

	out, err = run(t, cfg, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "draft/2020-12")

	fresh := filepath.Join(t.TempDir(), "new.yaml")
	_, err = run(t, fresh, "config", "init")
	require.NoError(t, err)
	_, err = run(t, fresh, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	_, err = run(t, fresh, "config", "init", "--force")
	assert.NoError(t, err)
}
