package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/pkg/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "files/report.pdf", strings.NewReader("%PDF-1.4"), "application/pdf"))

	rc, err := store.Open(ctx, "files/report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, "files/report.pdf"))
	_, err = store.Open(ctx, "files/report.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "files/report.pdf"))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save(ctx, "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Open(ctx, "covers/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestOpenDirectoryIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "covers/a.png", strings.NewReader("png"), "image/png"))

	_, err = store.Open(ctx, "covers")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanKey(t *testing.T) {
	key, err := CleanKey(`files\\nested//a.pdf`)
	require.NoError(t, err)
	assert.Equal(t, "files/nested/a.pdf", key)

	_, err = CleanKey("  ")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewSelectsLocalDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: config.StorageDriverLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
