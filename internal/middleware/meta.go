package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaContextKey = "response_meta"

// Meta keys set by handlers.
const (
	MetaCacheHit       = "cache_hit"
	MetaCount          = "count"
	MetaProcessingTime = "processing_time_ms"
)

// WithResponseMeta gives each request a metadata map that list handlers fill
// and echo in the envelope. processing_time_ms is measured up to the moment
// ExtractMeta is called.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaContextKey, map[string]interface{}{})
		c.Set(metaContextKey+".start", time.Now())
		c.Next()
	}
}

// SetCacheHit marks whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)[MetaCacheHit] = hit
}

// SetCount records the number of items in a list response.
func SetCount(c *gin.Context, n int) {
	meta(c)[MetaCount] = n
}

// ExtractMeta returns the metadata collected for the current request, or nil
// when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get(metaContextKey)
	if !ok {
		return nil
	}
	m, _ := value.(map[string]interface{})
	if m == nil {
		return nil
	}
	if start, ok := c.Get(metaContextKey + ".start"); ok {
		if t, ok := start.(time.Time); ok {
			m[MetaProcessingTime] = time.Since(t).Milliseconds()
		}
	}
	return m
}

func meta(c *gin.Context) map[string]interface{} {
	if value, ok := c.Get(metaContextKey); ok {
		if m, ok := value.(map[string]interface{}); ok {
			return m
		}
	}
	m := map[string]interface{}{}
	c.Set(metaContextKey, m)
	return m
}
