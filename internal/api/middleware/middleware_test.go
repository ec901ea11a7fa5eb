package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/chirp/pkg/auth"
	"github.com/d60-Lab/chirp/pkg/logger"
)

func init() { gin.SetMode(gin.TestMode) }

func newTokens() *auth.TokenManager { return auth.NewTokenManager("secret", "chirp", time.Hour) }

func whoami(c *gin.Context) { c.String(http.StatusOK, CurrentUserID(c)) }

func TestRequireAuth(t *testing.T) {
	tokens := newTokens()
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), whoami)

	token, err := tokens.Generate("user_a", "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "user_a"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "user_a"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens()
	r := gin.New()
	r.GET("/me", OptionalAuth(tokens), whoami)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", w.Body.String())
}

func TestIPThrottle(t *testing.T) {
	th := NewIPThrottle(1, 2)
	now := time.Now()

	assert.True(t, th.allow("1.1.1.1", now))
	assert.True(t, th.allow("1.1.1.1", now))
	assert.False(t, th.allow("1.1.1.1", now))
	// 其他 IP 独立计数
	assert.True(t, th.allow("2.2.2.2", now))
	// 1 秒后补充一个令牌
	assert.True(t, th.allow("1.1.1.1", now.Add(time.Second)))

	assert.Equal(t, 0, th.Cleanup(now.Add(time.Minute)))
	assert.Equal(t, 2, th.Cleanup(now.Add(10*time.Minute)))
}

func TestIPThrottle_Middleware(t *testing.T) {
	th := NewIPThrottle(0.001, 1)
	r := gin.New()
	r.Use(th.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRequestLoggerAndReportErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	r := gin.New()
	r.Use(RequestLogger(), ReportErrors())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.AbortWithStatus(http.StatusInternalServerError)
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "db down", failed[0].ContextMap()["error"])

	access := logs.FilterMessage("request").All()
	require.Len(t, access, 2)
	assert.Equal(t, zapcore.InfoLevel, access[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, access[1].Level)
}
