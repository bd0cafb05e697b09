package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryImageStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryImageStore()
	data := []byte{0x89, 'P', 'N', 'G'}

	require.NoError(t, store.Upload(ctx, "images/a.png", data, "image/png"))
	data[0] = 0

	got, contentType, ok := store.Get("images/a.png")
	require.True(t, ok)
	assert.Equal(t, byte(0x89), got[0], "upload keeps a copy")
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, 1, store.Uploads())

	exists, err := store.Exists(ctx, "images/a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	url, _, err := store.DownloadURL(ctx, "images/a.png")
	require.NoError(t, err)
	assert.Equal(t, "memory://images/a.png", url)

	require.NoError(t, store.Delete(ctx, "images/a.png"))
	require.NoError(t, store.Delete(ctx, "images/a.png"))
	exists, err = store.Exists(ctx, "images/a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, store.Upload(ctx, "", data, "image/png"), ErrStorageKeyRequired)
}
