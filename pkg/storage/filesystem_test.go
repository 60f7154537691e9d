package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := Key("pdfs", "pw-1", "v1", "paper.pdf")
	require.Equal(t, "pdfs/pw-1/v1/paper.pdf", key)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Save(ctx, key, bytes.NewBufferString("%PDF-1.4"), -1))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)

	obj, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	require.Equal(t, "%PDF-1.4", string(data))
	require.EqualValues(t, len(data), obj.Size)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(store.Path(key))
	require.True(t, os.IsNotExist(err))

	_, err = store.Open(ctx, key)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(root, "media"))
	require.NoError(t, err)

	err = store.Save(ctx, "../outside.txt", bytes.NewBufferString("x"), 1)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "outside.txt"))
	require.True(t, os.IsNotExist(statErr))

	_, err = store.Exists(ctx, "")
	require.Error(t, err)
}

func TestLocalStorageDirectoryIsNotAnObject(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "code/pw-1/v1/code.zip", bytes.NewBufferString("zip"), 3))

	exists, err := store.Exists(ctx, "code/pw-1/v1")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = store.Open(ctx, "code/pw-1")
	require.ErrorIs(t, err, ErrNotExist)
}
