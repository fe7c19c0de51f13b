package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/identity"
	"github.com/yukikurage/project-management-api/internal/services"
)

func respond(t *testing.T, err error) (int, APIError) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Respond(c, err)

	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("load: %w", services.ErrTaskNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{"last owner", services.ErrLastOwnerProtected, http.StatusConflict, ErrCodeLastOwner},
		{"sole owner", fmt.Errorf("%w: projects [1]", services.ErrSoleOwner), http.StatusConflict, ErrCodeSoleOwner},
		{"already member", services.ErrAlreadyMember, http.StatusConflict, ErrCodeAlreadyExists},
		{"duplicate name", services.ErrDuplicateName, http.StatusConflict, ErrCodeAlreadyExists},
		{"expired", identity.ErrExpiredCredential, http.StatusUnauthorized, ErrCodeExpiredCredentials},
		{"revoked", identity.ErrRevokedCredential, http.StatusUnauthorized, ErrCodeRevokedCredentials},
		{"invalid", identity.ErrInvalidCredential, http.StatusUnauthorized, ErrCodeInvalidCredentials},
		{"verifier down", identity.ErrVerificationUnavailable, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"no ai", services.ErrAIServiceNotConfigured, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"no ai tasks", services.ErrAINoValidTasks, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestRespond_HidesInternalMessages(t *testing.T) {
	_, body := respond(t, errors.New("dial tcp 10.0.0.5:3306: refused"))
	assert.Equal(t, "Internal server error", body.Message)
}

func TestRespond_NotFoundMessageNamesResource(t *testing.T) {
	status, body := respond(t, services.ErrProjectNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Project not found", body.Message)

	_, body = respond(t, services.ErrRecurrenceNotFound)
	assert.Equal(t, "Recurrence not found", body.Message)

	assert.ErrorIs(t, services.ErrTaskNotFound, services.ErrNotFound)
	assert.NotErrorIs(t, services.ErrTaskNotFound, services.ErrProjectNotFound)
}

func TestRespond_ValidationDetails(t *testing.T) {
	status, body := respond(t, &services.ValidationError{Field: "name", Reason: "is required"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrCodeInvalidInput, body.Code)
	details, ok := body.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "name", details["field"])
	assert.Equal(t, "is required", details["reason"])
}
