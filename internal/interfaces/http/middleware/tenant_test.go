package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupTenantMiddlewareRouter(cfg TenantMiddlewareConfig) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)

	var resolved uuid.UUID
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		resolved = GetTenantID(c)
		c.String(http.StatusOK, "ok")
	}
	router.GET("/api/v1/documents", handler)
	router.GET("/health", handler)

	return router, &resolved
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New()

	t.Run("resolves a valid tenant header into context", func(t *testing.T) {
		router, resolved := setupTenantMiddlewareRouter(DefaultTenantConfig())

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, *resolved)
	})

	t.Run("rejects a malformed tenant header", func(t *testing.T) {
		router, _ := setupTenantMiddlewareRouter(DefaultTenantConfig())

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		req.Header.Set(TenantHeaderKey, "not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects the nil UUID", func(t *testing.T) {
		router, _ := setupTenantMiddlewareRouter(DefaultTenantConfig())

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		req.Header.Set(TenantHeaderKey, uuid.Nil.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lets a missing header through when not required", func(t *testing.T) {
		router, resolved := setupTenantMiddlewareRouter(DefaultTenantConfig())

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uuid.Nil, *resolved)
	})

	t.Run("rejects a missing header when required", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = true
		router, _ := setupTenantMiddlewareRouter(cfg)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = true
		router, _ := setupTenantMiddlewareRouter(cfg)

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skips configured prefixes", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = true
		cfg.SkipPathPrefixes = []string{"/api/v1/documents"}
		router, _ := setupTenantMiddlewareRouter(cfg)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
