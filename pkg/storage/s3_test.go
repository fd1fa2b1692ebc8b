package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/pkg/config"
)

// bucketServer is a minimal path-style S3 endpoint backed by a map.
type bucketServer struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func (b *bucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.objects[r.URL.Path] = body
		b.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := b.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", b.contentTypes[r.URL.Path])
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *bucketServer) object(path string) ([]byte, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.objects[path]
	return body, b.contentTypes[path], ok
}

func newBucketServer(t *testing.T) (*bucketServer, config.S3Config) {
	t.Helper()
	t.Setenv("AWS_REQUEST_CHECKSUM_CALCULATION", "when_required")
	t.Setenv("AWS_RESPONSE_CHECKSUM_VALIDATION", "when_required")

	b := &bucketServer{objects: map[string][]byte{}, contentTypes: map[string]string{}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	return b, config.S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "portal",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	}
}

func TestS3StorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket, cfg := newBucketServer(t)
	store, err := NewS3Storage(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "files/report.pdf", strings.NewReader("%PDF-1.4"), "application/pdf"))
	body, contentType, ok := bucket.object("/portal/files/report.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), body)
	assert.Equal(t, "application/pdf", contentType)

	rc, err := store.Open(ctx, "files/report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, "files/report.pdf"))
	_, _, ok = bucket.object("/portal/files/report.pdf")
	assert.False(t, ok)

	_, err = store.Open(ctx, "files/report.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	bucket, cfg := newBucketServer(t)
	store, err := NewS3Storage(ctx, cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(ctx, "../secrets", strings.NewReader("x"), ""), ErrInvalidKey)
	_, err = store.Open(ctx, "covers/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidKey)
	_, _, ok := bucket.object("/portal/secrets")
	assert.False(t, ok)
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	store, err = New(ctx, config.StorageConfig{Driver: config.StorageDriverLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, cfg := newBucketServer(t)
	store, err = New(ctx, config.StorageConfig{Driver: config.StorageDriverS3, S3: cfg})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, store)

	_, err = New(ctx, config.StorageConfig{Driver: config.StorageDriverS3})
	assert.EqualError(t, err, "s3 bucket is required")

	_, err = New(ctx, config.StorageConfig{Driver: "gcs"})
	assert.EqualError(t, err, `unsupported storage driver "gcs"`)
}
