package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UploadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("attachments")

	n, err := store.Upload(ctx, "12/a.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	data, ok := store.Get("12/a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, []string{"12/a.txt"}, store.Paths())
	assert.Equal(t, "memory://attachments/12/a.txt", store.PublicURL("12/a.txt"))

	require.NoError(t, store.Delete(ctx, "12/a.txt"))
	assert.ErrorIs(t, store.Delete(ctx, "12/a.txt"), ErrObjectNotFound)
	assert.Empty(t, store.Paths())
}

func TestMemoryStore_UploadReadErrorStoresNothing(t *testing.T) {
	store := NewMemoryStore("attachments")

	_, err := store.Upload(context.Background(), "12/b.txt", &brokenReader{}, "text/plain")
	require.Error(t, err)
	assert.Empty(t, store.Paths())
}

func TestGCSStore_PublicURL(t *testing.T) {
	store := NewGCSStore(nil, "task-attachments")

	assert.Equal(t,
		"https://storage.googleapis.com/task-attachments/7/abc-my%20file.pdf",
		store.PublicURL("7/abc-my file.pdf"))
}
