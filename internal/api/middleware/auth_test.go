package middleware

import (
	"Murmur/internal/api/config"
	"Murmur/internal/pkg/security"
	"Murmur/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(tm *security.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		id, err := service.ActorFrom(c.Request.Context())
		if err != nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, "%d", id)
	}
	r.GET("/strict", AuthMiddleware(tm), whoami)
	r.GET("/optional", AuthOptionalMiddleware(tm), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tm := security.NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "Murmur"})
	token, err := tm.GenerateToken(42, "alice")
	require.NoError(t, err)
	r := newAuthRouter(tm)

	tests := []struct {
		name     string
		path     string
		header   string
		wantBody string
	}{
		{"strict with header", "/strict", "Bearer " + token, "42"},
		{"strict with query", "/strict?token=" + token, "", "42"},
		{"strict missing", "/strict", "", "Token 缺失或格式错误"},
		{"strict garbage", "/strict", "Bearer nope", "Token 无效或已过期"},
		{"optional anonymous", "/optional", "", "anonymous"},
		{"optional garbage", "/optional", "Bearer nope", "anonymous"},
		{"optional valid", "/optional", "Bearer " + token, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestTraceMiddleware_EchoesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Trace-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Trace-ID"), 36)
}
