package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func metricsAuthRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", MetricsAuth(token), func(c *gin.Context) {
		c.String(http.StatusOK, "metrics data")
	})
	return router
}

func doMetricsRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMetricsAuth(t *testing.T) {
	t.Run("no token configured allows access", func(t *testing.T) {
		w := doMetricsRequest(metricsAuthRouter(""), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := doMetricsRequest(metricsAuthRouter("s3cret"), "Bearer s3cret")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		w := doMetricsRequest(metricsAuthRouter("s3cret"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Metrics")
	})

	t.Run("wrong token", func(t *testing.T) {
		w := doMetricsRequest(metricsAuthRouter("s3cret"), "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := doMetricsRequest(metricsAuthRouter("s3cret"), "Basic s3cret")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
