package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/numberplay/numberplay-backend/auth"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthedRoute(tokens *auth.TokenManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", middleware.RequireAuth(tokens), func(c *gin.Context) {
		id, ok := middleware.UserID(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 0, 0)
	r := setupAuthedRoute(tokens)

	access, _, err := tokens.IssuePair(42)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestRequireAuthRejections(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 0, 0)
	r := setupAuthedRoute(tokens)

	_, refresh, err := tokens.IssuePair(42)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer garbage"},
		{name: "refresh token on access route", header: "Bearer " + refresh},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
