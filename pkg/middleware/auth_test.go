package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatanalytics/pkg/auth"
	pkgErrors "chatanalytics/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(m *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(m), func(c *gin.Context) {
		id, _ := GetUserID(c)
		claims, ok := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":   id,
			"temporary": IsTemporary(c),
			"claims":    ok && claims.Subject == id,
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	m := auth.NewJWTManager(auth.Config{Secret: "s3cret", TempSubjectPrefix: "tmp_"})
	r := newAuthRouter(m)

	valid, err := m.GenerateAccessToken("user-7", "")
	require.NoError(t, err)
	temp, err := m.GenerateAccessToken("tmp_abc", "")
	require.NoError(t, err)

	expired, err := auth.NewJWTManager(auth.Config{Secret: "s3cret", AccessExpiry: -time.Minute}).GenerateAccessToken("user-7", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		reason string
	}{
		{"missing header", "", http.StatusUnauthorized, pkgErrors.ReasonUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, pkgErrors.ReasonUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized, pkgErrors.ReasonUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized, pkgErrors.ReasonUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, pkgErrors.ReasonTokenExpired},
		{"temporary session", "Bearer " + temp, http.StatusForbidden, pkgErrors.ReasonForbidden},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.reason != "" {
				var body pkgErrors.UnifiedErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.reason, body.ErrorCode)
				assert.Equal(t, "/me", body.Path)
			}
		})
	}
}

func TestAuthMiddleware_SetsContext(t *testing.T) {
	m := auth.NewJWTManager(auth.Config{Secret: "s3cret", TempSubjectPrefix: "tmp_", AllowTemporarySessions: true})
	r := newAuthRouter(m)

	token, err := m.GenerateAccessToken("tmp_abc", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"tmp_abc","temporary":true,"claims":true}`, w.Body.String())
}
