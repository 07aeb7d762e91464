package objectstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	content := []byte("%PDF-1.4 test document")
	obj, err := store.Upload(context.Background(), content, "invoice-001.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, obj.ID)
	assert.True(t, strings.HasPrefix(obj.URL, "file://"))
	assert.True(t, strings.HasSuffix(obj.ID, "_invoice-001.pdf"))

	got, err := store.Download(context.Background(), obj.ID)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStore_UniqueIDsPerUpload(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Upload(context.Background(), []byte("a"), "same.pdf")
	require.NoError(t, err)
	second, err := store.Upload(context.Background(), []byte("b"), "same.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestLocalStore_StripsDirectoryFromFilename(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	obj, err := store.Upload(context.Background(), []byte("x"), "../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, obj.ID, "..")
}

func TestLocalStore_DownloadRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "../outside")
	assert.Error(t, err)
}

func TestLocalStore_DownloadMissingObject(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "20260830/deadbeef_missing.pdf")
	assert.Error(t, err)
}

func TestNewLocalStore_EmptyDir(t *testing.T) {
	_, err := NewLocalStore("")
	assert.Error(t, err)
}
