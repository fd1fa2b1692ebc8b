package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/response"
	"github.com/noah-isme/research-portal-api/pkg/storage"
)

var mediaPrefixes = []string{service.FilePrefix, service.CoverPrefix, service.ProfilePrefix}

// MediaHandler streams stored assets from the blob store.
type MediaHandler struct {
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewMediaHandler constructs the handler.
func NewMediaHandler(blobs storage.BlobStore, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{blobs: blobs, logger: logger}
}

// Serve godoc
// @Summary Download a stored asset
// @Tags Media
// @Produce octet-stream
// @Param path path string true "Asset key, e.g. files/<id>.pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/{path} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "file not found")
	key, err := storage.CleanKey(c.Param("path"))
	if err != nil || !allowedMediaKey(key) {
		response.Error(c, notFound)
		return
	}

	body, err := h.blobs.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(c, notFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Warn("media stream interrupted", zap.String("key", key), zap.Error(err))
	}
}

func allowedMediaKey(key string) bool {
	for _, prefix := range mediaPrefixes {
		if strings.HasPrefix(key, prefix+"/") {
			return true
		}
	}
	return false
}
