package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"address_book/internal/middleware"
	"address_book/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AuthMiddleware(secret))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": c.GetString("caller")})
	})
	return r
}

func TestAuthMissingHeader(t *testing.T) {
	r := protectedRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	r := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	r := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthValidToken(t *testing.T) {
	token, err := utils.GenerateToken("ops-cli", secret, time.Hour)
	require.NoError(t, err)

	r := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ops-cli")
}
