package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("presets/admin-1.json", []byte(`[]`)))
	require.NoError(t, store.Save("presets/admin-1.json", []byte(`[{"id":"a"}]`)))

	data, err := store.Read("presets/admin-1.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(store.Path("presets/admin-1.json")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, store.Delete("presets/admin-1.json"))
	require.NoError(t, store.Delete("presets/admin-1.json"))

	_, err = store.Read("presets/admin-1.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalStorageKeepsPathsInsideBaseDir(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "etc", "passwd"), store.Path("../../etc/passwd"))
	assert.Equal(t, filepath.Join(base, "tmp", "x"), store.Path("/tmp/x"))
}
