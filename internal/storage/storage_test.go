package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_PutOpenDelete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), 1024)
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Put(ctx, strings.NewReader("meeting minutes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("meeting minutes")), obj.Size)
	assert.Len(t, obj.Checksum, 64)

	rc, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "meeting minutes", string(body))

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, err = store.Open(ctx, obj.Key)
	require.ErrorIs(t, err, ErrBlobNotFound)

	require.NoError(t, store.Delete(ctx, obj.Key))
}

func TestLocalBlobStore_SameContentSameChecksum(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), 1024)
	require.NoError(t, err)

	a, err := store.Put(context.Background(), strings.NewReader("same"))
	require.NoError(t, err)
	b, err := store.Put(context.Background(), strings.NewReader("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestLocalBlobStore_TooLarge(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), strings.NewReader("too large"))
	require.ErrorIs(t, err, ErrBlobTooLarge)
}

func TestLocalBlobStore_RejectsTraversalKeys(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), 1024)
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../../etc/passwd")
	require.ErrorIs(t, err, ErrBlobNotFound)
}
