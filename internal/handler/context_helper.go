package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-portal-api/internal/middleware"
	"github.com/noah-isme/research-portal-api/internal/models"
	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// baseURL returns scheme://host of the request. Proxy headers count only when
// the peer passed middleware.TrustProxies.
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	host := c.Request.Host
	if !middleware.ProxyTrusted(c) {
		return scheme + "://" + host
	}
	if proto := strings.ToLower(firstHeaderValue(c.GetHeader("X-Forwarded-Proto"))); proto == "http" || proto == "https" {
		scheme = proto
	}
	if fwd := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// bindError turns a gin binding failure into a 400 with a readable message.
func bindError(err error, message string) error {
	if tooLarge := bodyTooLarge(err, validation.NonFieldErrors); tooLarge != nil {
		return tooLarge
	}
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, message), map[string][]string{
		validation.NonFieldErrors: {err.Error()},
	})
}

// multipartError is bindError for a multipart payload. A body over the
// route's cap is reported against field.
func multipartError(err error, field, message string) error {
	if tooLarge := bodyTooLarge(err, field); tooLarge != nil {
		return tooLarge
	}
	return bindError(err, message)
}

// bodyTooLarge maps a read cut off by middleware.LimitBody to a field error.
func bodyTooLarge(err error, field string) error {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return nil
	}
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "request body too large"), map[string][]string{
		field: {fmt.Sprintf("Ensure the request body is no larger than %d bytes.", maxErr.Limit)},
	})
}

// formAsset opens an optional multipart file part. The returned close
// function is always safe to call.
func formAsset(c *gin.Context, field string) (*service.AssetUpload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, multipartError(err, field, "invalid multipart payload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
	}
	return &service.AssetUpload{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, nil
}
