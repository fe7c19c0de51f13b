package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/identity"
	"github.com/yukikurage/project-management-api/internal/models"
)

type resolverFunc func(ctx context.Context, token string) (*models.User, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

func newRouter(resolver PrincipalResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireAuth(resolver))
	r.GET("/whoami", func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": principal.ID, "user_id": userID})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (*models.User, error) {
		switch token {
		case "good":
			return &models.User{ID: 7}, nil
		case "expired":
			return nil, identity.ErrExpiredCredential
		default:
			return nil, identity.ErrInvalidCredential
		}
	})
	router := newRouter(resolver)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired token", "Bearer expired", http.StatusUnauthorized, "EXPIRED_CREDENTIALS"},
		{"bad token", "Bearer forged", http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"valid token", "Bearer good", http.StatusOK, `"user_id":7`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequireAuth_VerifierUnavailable(t *testing.T) {
	router := newRouter(resolverFunc(func(context.Context, string) (*models.User, error) {
		return nil, identity.ErrVerificationUnavailable
	}))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(constants.HeaderAuthorization, "Bearer any")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(constants.HeaderRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())
	assert.Contains(t, logs.String(), generated)
	assert.Contains(t, logs.String(), `"path":"/ping"`)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(constants.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(constants.HeaderRequestID))
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(constants.ContextKeyUserID, 9)
	_, ok = GetUserID(c)
	assert.False(t, ok)

	c.Set(constants.ContextKeyUserID, uint64(9))
	id, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), id)
}
