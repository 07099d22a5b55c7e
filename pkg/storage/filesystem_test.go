package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRejectsTraversal(t *testing.T) {
	base := filepath.Join(t.TempDir(), "store")
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	for _, name := range []string{
		"../escape.txt",
		"../../escape.txt",
		"nested/../../escape.txt",
		"/etc/passwd",
		`..\escape.txt`,
	} {
		_, err := store.SaveStream(name, strings.NewReader("payload"))
		assert.ErrorIs(t, err, ErrPathOutsideStorage, name)

		_, err = store.Open(name)
		assert.ErrorIs(t, err, ErrPathOutsideStorage, name)

		_, err = store.Path(name)
		assert.ErrorIs(t, err, ErrPathOutsideStorage, name)
	}

	_, statErr := os.Stat(filepath.Join(filepath.Dir(base), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorageKeepsRelativePathsUnderBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "store")
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	rel, err := store.SaveStream("submissions/sub-1.pdf", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "submissions/sub-1.pdf", rel)

	path, err := store.Path(rel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "submissions", "sub-1.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
