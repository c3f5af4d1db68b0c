package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveOpenDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	key, size, err := store.Save(strings.NewReader("contract body"))
	require.NoError(t, err)
	require.Equal(t, int64(len("contract body")), size)
	require.NoError(t, uuid.Validate(key))

	rc, err := store.Open(key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "contract body", string(data))

	require.NoError(t, store.Delete(key))
	_, err = store.Open(key)
	require.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting an already removed object is not an error.
	require.NoError(t, store.Delete(key))
}

func TestDiskStoreRejectsInvalidKey(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	require.Error(t, err)
	require.Error(t, store.Delete("not-a-uuid"))
}

func TestDiskStoreRequiresRoot(t *testing.T) {
	_, err := NewDiskStore("   ")
	require.Error(t, err)
}
