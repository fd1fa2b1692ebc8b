package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/pkg/storage"
)

func mediaRouter(t *testing.T) (http.Handler, *storage.LocalStorage) {
	t.Helper()
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	h := NewMediaHandler(blobs, nil)
	r := testRouter()
	r.GET("/media/*path", h.Serve)
	return r, blobs
}

func TestMediaServesStoredFile(t *testing.T) {
	router, blobs := mediaRouter(t)
	require.NoError(t, blobs.Save(context.Background(), "covers/c1.png", bytes.NewReader([]byte("png-bytes")), "image/png"))

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/media/covers/c1.png", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestMediaRejectsUnknownPrefix(t *testing.T) {
	router, blobs := mediaRouter(t)
	require.NoError(t, blobs.Save(context.Background(), "private/secret.txt", bytes.NewReader([]byte("x")), "text/plain"))

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/media/private/secret.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaMissingFile(t *testing.T) {
	router, _ := mediaRouter(t)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/media/files/none.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaRejectsTraversal(t *testing.T) {
	router, _ := mediaRouter(t)

	rec := performRequest(router, httptest.NewRequest(http.MethodGet, "/media/files/..%2f..%2fetc%2fpasswd", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
