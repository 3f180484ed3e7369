package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirCreatesSubdirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "pygpt")
	ws := New(root)

	require.NoError(t, ws.EnsureDir())

	for _, sub := range []string{SubdirCron, SubdirVoice, SubdirSessions} {
		info, err := os.Stat(ws.Subpath(sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ws := New(path)
	assert.Error(t, ws.EnsureDir())
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	ws := New(root)

	resolved, err := ws.ResolvePath("notes/todo.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes", "todo.txt"), resolved)
}

func TestResolvePathRejectsEscape(t *testing.T) {
	ws := New(t.TempDir())

	_, err := ws.ResolvePath("../outside")
	assert.Error(t, err)

	_, err = ws.ResolvePath("..")
	assert.Error(t, err)

	// Traversal that stays inside after cleaning is fine.
	resolved, err := ws.ResolvePath("a/../b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Path(), "b.txt"), resolved)
}

func TestResolvePathRejectsAbsolute(t *testing.T) {
	ws := New(t.TempDir())
	_, err := ws.ResolvePath("/etc/passwd")
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	ws := New("~/.pygpt")
	assert.Equal(t, filepath.Join(home, ".pygpt"), ws.Path())
	assert.Equal(t, "~/.pygpt", ws.BasePath())
}
