package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePath(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	original := store.Path(Original, 7, "abc")
	optimized := store.Path(Optimized, 7, "abc")

	assert.NotEqual(t, original, optimized)
	assert.Equal(t, filepath.Join(store.originalRoot, "7", "abc"), original)
	assert.Equal(t, filepath.Join(store.optimizedRoot, "7", "abc"), optimized)
	// путь детерминирован и не требует существования файла
	assert.Equal(t, original, store.Path(Original, 7, "abc"))
}

func TestStoreEnsureOwnerIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.EnsureOwner(42))
	require.NoError(t, store.EnsureOwner(42))

	for _, v := range []Variant{Original, Optimized} {
		info, err := os.Stat(filepath.Dir(store.Path(v, 42, "x")))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.EnsureOwner(1))

	require.NoError(t, os.WriteFile(store.Path(Original, 1, "pic"), []byte("o"), 0o644))
	require.NoError(t, os.WriteFile(store.Path(Optimized, 1, "pic"), []byte("z"), 0o644))

	require.NoError(t, store.Delete(1, "pic"))
	assert.NoFileExists(t, store.Path(Original, 1, "pic"))
	assert.NoFileExists(t, store.Path(Optimized, 1, "pic"))

	// повторное удаление уже удалённого — не ошибка
	require.NoError(t, store.Delete(1, "pic"))
	require.NoError(t, store.Delete(1, "never-existed"))
}

func TestStoreDeleteOwner(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.EnsureOwner(5))

	require.NoError(t, os.WriteFile(store.Path(Original, 5, "a"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(store.Path(Optimized, 5, "b"), []byte("2"), 0o644))

	require.NoError(t, store.DeleteOwner(5))
	assert.NoDirExists(t, filepath.Dir(store.Path(Original, 5, "a")))
	assert.NoDirExists(t, filepath.Dir(store.Path(Optimized, 5, "b")))

	require.NoError(t, store.DeleteOwner(5))
}

func TestStoreLinkOriginal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.EnsureOwner(3))

	content := []byte("optimized bytes")
	require.NoError(t, os.WriteFile(store.Path(Optimized, 3, "pic"), content, 0o644))
	require.NoError(t, store.linkOriginal(3, "pic"))

	got, err := os.ReadFile(store.Path(Original, 3, "pic"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
