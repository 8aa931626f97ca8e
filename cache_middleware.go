package ginblog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheKeyGenerator derives the cache key of a request.
type CacheKeyGenerator func(c *gin.Context) string

// TagGenerator returns the invalidation tags of a cached response.
type TagGenerator func(c *gin.Context) []string

type cacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// DefaultKeyGenerator hashes the path and the canonically ordered query.
func DefaultKeyGenerator(c *gin.Context) string {
	key := c.Request.URL.Path + "?" + c.Request.URL.Query().Encode()
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

const cacheTTLKey = "cache_ttl"

// SetCacheTTL caps how long the response to the current request may stay
// cached. A ttl of zero or less skips caching it.
func SetCacheTTL(c *gin.Context, ttl time.Duration) {
	c.Set(cacheTTLKey, ttl)
}

// StaticTags always tags responses with tags.
func StaticTags(tags ...string) TagGenerator {
	return func(*gin.Context) []string {
		return tags
	}
}

// CacheMiddleware serves GET responses from service and stores successful
// misses under the tags produced by tagGen.
func CacheMiddleware(service CacheService, duration time.Duration, tagGen TagGenerator, keyGen CacheKeyGenerator) gin.HandlerFunc {
	if keyGen == nil {
		keyGen = DefaultKeyGenerator
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := keyGen(c)

		cachedData, err := service.Get(c.Request.Context(), key)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Cache read failed", slog.String("key", key), slog.Any("err", err))
		}
		if err == nil && cachedData != nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		writer := &cacheWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		ttl := duration
		if value, ok := c.Get(cacheTTLKey); ok {
			limit, _ := value.(time.Duration)
			if limit <= 0 {
				return
			}
			ttl = min(ttl, limit)
		}
		tags := []string{}
		if tagGen != nil {
			tags = tagGen(c)
		}
		// detached from the request so a closed client does not cancel the write
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		if err := service.Set(ctx, key, writer.body.Bytes(), tags, ttl); err != nil {
			slog.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.Any("err", err))
		}
	}
}
