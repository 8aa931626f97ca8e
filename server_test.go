package ginblog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestServer_New(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()

	assert.NotNil(t, server)
	assert.NotNil(t, server.engine)
	assert.Equal(t, server.engine, server.Engine())
}

func TestServer_SetBasePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New().SetBasePath("/api/v1")

	server.Group("").GET("/test", func(c *Context) (string, error) {
		return "test", nil
	})

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1", server.BasePath())
}

func TestServer_BindFileService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	files := NewMemoryFileService("/files")
	server := New().BindFileService(files)

	server.Group("").GET("/fs", func(c *Context) (string, error) {
		if c.GetFileService() != files {
			return "", ErrBadRequest.New("file service not bound")
		}
		return "ok", nil
	})

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/fs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CustomCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()

	origins := []string{"http://localhost:3000"}
	methods := []string{"GET", "POST"}
	headers := []string{"Content-Type"}
	maxAge := 24 * time.Hour

	server.CustomCORS(origins, methods, headers, maxAge)

	server.engine.GET("/test", func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	server.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestServer_EnableMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New().SetBasePath("/api").EnableMetrics("/metrics")
	server.Group("").GET("/ping", func() (string, error) {
		return "pong", nil
	})

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `ginblog_http_requests_total{method="GET",route="/api/ping",status="200"} 1`), body)
}

func TestServer_Start(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()
	server.SetRuntime(RuntimeHTTP)

	assert.Error(t, server.Start(-1))
	assert.Error(t, server.Start(70000))
}
