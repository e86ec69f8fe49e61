package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	t.Run("Generated", func(t *testing.T) {
		w := get(r, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("Propagated", func(t *testing.T) {
		w := get(r, map[string]string{"X-Request-ID": "abc-123"})
		assert.Equal(t, "abc-123", w.Body.String())
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	w := get(newRouter(SecurityHeaders()), nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS only in release mode")
}

func TestRateLimit(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		r := newRouter(RateLimit(0))
		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, get(r, nil).Code)
		}
	})

	t.Run("Rejects_Burst_Overflow", func(t *testing.T) {
		r := newRouter(RequestID(), RateLimit(2))
		codes := make([]int, 0, 5)
		for i := 0; i < 5; i++ {
			codes = append(codes, get(r, nil).Code)
		}
		assert.Equal(t, http.StatusOK, codes[0])
		assert.Equal(t, http.StatusOK, codes[1])
		assert.Contains(t, codes[2:], http.StatusTooManyRequests)
	})
}

func TestRequestLogger(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing

	w := get(newRouter(RequestID(), RequestLogger(logger)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
