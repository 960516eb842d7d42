package assets

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "/static/generated", zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestSave_NamingAndContent(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(PrefixGen, "png", []byte("image-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, PrefixGen))
	assert.True(t, strings.HasSuffix(name, ".png"))

	data, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestSave_NamesAreUnique(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Save(PrefixUpload, "png", []byte("a"))
	require.NoError(t, err)
	b, err := store.Save(PrefixUpload, "png", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestURLFor(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "/static/generated/dream_abc.mp4", store.URLFor("dream_abc.mp4"))
}

func TestMoveIn(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	name, err := store.MoveIn(PrefixDream, "mp4", src)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, PrefixDream))
	assert.NoFileExists(t, src, "source must be moved, not copied")

	data, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	assert.Equal(t, []byte("video"), data)
}

func TestMoveIn_CopyFallbackAcrossFilesystems(t *testing.T) {
	store := newTestStore(t)
	// Rename fails with EXDEV when the remote client's temp dir lives
	// on another filesystem; MoveIn must fall back to copy and remove.
	store.rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	name, err := store.MoveIn(PrefixDream, "mp4", src)
	require.NoError(t, err)

	assert.NoFileExists(t, src, "source must be removed after the copy")
	data, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	assert.Equal(t, []byte("video"), data)
}

func TestMoveIn_MissingSource(t *testing.T) {
	store := newTestStore(t)

	_, err := store.MoveIn(PrefixDream, "mp4", filepath.Join(t.TempDir(), "gone.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "move asset")
}

func TestRemove_IgnoresMissing(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(PrefixResized, "jpg", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name, "resized_never-existed.jpg", ""))
	assert.NoFileExists(t, store.Path(name))
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	store := newTestStore(t)

	oldName, err := store.Save(PrefixResized, "jpg", []byte("old"))
	require.NoError(t, err)
	freshName, err := store.Save(PrefixDream, "mp4", []byte("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(oldName), past, past))

	removed, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, store.Path(oldName))
	assert.FileExists(t, store.Path(freshName))
}

func TestWritable(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Writable())
}
