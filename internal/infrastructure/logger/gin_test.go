package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// findRequestLog returns the "HTTP Request" entry among the recorded logs
func findRequestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			return entry
		}
	}
	t.Fatal("no HTTP Request log recorded")
	return observer.LoggedEntry{}
}

func serveLogged(level zapcore.Level, register func(*gin.Engine), method, target string) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	register(router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w, recorded
}

func TestGinMiddleware(t *testing.T) {
	t.Run("successful request logs at info with standard fields", func(t *testing.T) {
		w, recorded := serveLogged(zapcore.InfoLevel, func(r *gin.Engine) {
			r.GET("/stock/locations", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"locations": []string{}})
			})
		}, "GET", "/stock/locations")

		require.Equal(t, http.StatusOK, w.Code)
		entry := findRequestLog(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		keys := make(map[string]bool)
		for _, field := range entry.Context {
			keys[field.Key] = true
		}
		for _, key := range []string{"status", "latency", "client_ip", "user_agent", "method", "path"} {
			assert.True(t, keys[key], "missing field %q", key)
		}
	})

	t.Run("client error logs at warn", func(t *testing.T) {
		_, recorded := serveLogged(zapcore.WarnLevel, func(r *gin.Engine) {
			r.POST("/returns", func(c *gin.Context) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing items"})
			})
		}, "POST", "/returns")

		assert.Equal(t, zapcore.WarnLevel, findRequestLog(t, recorded).Level)
	})

	t.Run("server error logs at error", func(t *testing.T) {
		_, recorded := serveLogged(zapcore.ErrorLevel, func(r *gin.Engine) {
			r.POST("/stock/allocations", func(c *gin.Context) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "tx failed"})
			})
		}, "POST", "/stock/allocations")

		assert.Equal(t, zapcore.ErrorLevel, findRequestLog(t, recorded).Level)
	})

	t.Run("query string is logged when present", func(t *testing.T) {
		_, recorded := serveLogged(zapcore.InfoLevel, func(r *gin.Engine) {
			r.GET("/returns", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{})
			})
		}, "GET", "/returns?status=PENDING&page=1")

		entry := findRequestLog(t, recorded)
		found := false
		for _, field := range entry.Context {
			if field.Key == "query" {
				found = true
				assert.Contains(t, field.String, "status=PENDING")
			}
		}
		assert.True(t, found)
	})

	t.Run("request ID set by upstream middleware is carried", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-restock-1")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/stock/locations", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/stock/locations", nil))

		entry := findRequestLog(t, recorded)
		found := false
		for _, field := range entry.Context {
			if field.Key == "request_id" {
				found = true
				assert.Equal(t, "req-restock-1", field.String)
			}
		}
		assert.True(t, found)
	})

	t.Run("request-scoped logger lands in the request context", func(t *testing.T) {
		core, _ := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))

		var fromCtx *zap.Logger
		router.GET("/stock/locations", func(c *gin.Context) {
			fromCtx = FromContext(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/stock/locations", nil))

		require.NotNil(t, fromCtx)
		assert.NotPanics(t, func() { fromCtx.Info("reachable") })
	})
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.POST("/returns/:id/pickup/complete", func(c *gin.Context) {
		panic("nil aggregate")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/returns/abc/pickup/complete", nil)

	assert.NotPanics(t, func() { router.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0].Message, "Panic recovered")
}

func TestGetGinLogger(t *testing.T) {
	t.Run("returns the request-scoped logger set by the middleware", func(t *testing.T) {
		core, _ := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))

		var got *zap.Logger
		router.GET("/stock/locations", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/stock/locations", nil))
		assert.NotNil(t, got)
	})

	t.Run("falls back to a no-op logger without the middleware", func(t *testing.T) {
		var got *zap.Logger
		router := gin.New()
		router.GET("/stock/locations", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/stock/locations", nil))

		require.NotNil(t, got)
		assert.NotPanics(t, func() { got.Info("no-op") })
	})
}
