package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapsync/zapsync/config"
	apperrors "github.com/zapsync/zapsync/internal/errors"
)

func newLocalTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(config.LocalStorageConfig{
		BasePath:  t.TempDir(),
		URLPrefix: "/files/",
	})
	require.NoError(t, err)
	return store
}

func TestLocalStorePutAndExists(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	result, err := store.Put(ctx, "zapsync/user_1/abc.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "zapsync/user_1/abc.txt", result.Locator)
	assert.Equal(t, "/files/zapsync/user_1/abc.txt", result.PublicURL)

	exists, err := store.Exists(ctx, result.Locator)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := os.ReadFile(filepath.Join(store.basePath, "zapsync", "user_1", "abc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStoreDelete(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	result, err := store.Put(ctx, "zapsync/user_1/gone.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, result.Locator))

	exists, err := store.Exists(ctx, result.Locator)
	require.NoError(t, err)
	assert.False(t, exists)

	// 重复删除视为成功
	require.NoError(t, store.Delete(ctx, result.Locator))
}

func TestNewStoreUnsupportedProvider(t *testing.T) {
	_, err := NewStore(config.StorageConfig{Provider: "ftp"})
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrStorageProviderNotSupported, appErr.Code)
}
