package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/identity"
	"github.com/yukikurage/project-management-api/internal/services"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeExpiredCredentials = "EXPIRED_CREDENTIALS"
	ErrCodeRevokedCredentials = "REVOKED_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"

	// Business logic errors
	ErrCodeLastOwner = "LAST_OWNER"
	ErrCodeSoleOwner = "SOLE_OWNER"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond maps a service error to its HTTP status and error body. Unknown
// errors are logged and reported as 500 without their message.
func Respond(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		BadRequestWithDetails(c, validation.Error(), gin.H{"field": validation.Field, "reason": validation.Reason})
	case errors.Is(err, identity.ErrVerificationUnavailable):
		ServiceUnavailable(c, "Token verification is temporarily unavailable")
	case errors.Is(err, identity.ErrExpiredCredential):
		RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeExpiredCredentials, "Token expired"))
	case errors.Is(err, identity.ErrRevokedCredential):
		RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeRevokedCredentials, "Token revoked"))
	case errors.Is(err, identity.ErrInvalidCredential):
		RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeInvalidCredentials, "Invalid token"))
	case errors.Is(err, services.ErrForbidden):
		Forbidden(c, "")
	case errors.Is(err, services.ErrNotFound):
		NotFound(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrLastOwnerProtected):
		RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeLastOwner, "Project must keep at least one owner"))
	case errors.Is(err, services.ErrSoleOwner):
		RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeSoleOwner, "Transfer ownership of your projects before deleting the account"))
	case errors.Is(err, services.ErrAlreadyMember):
		RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeAlreadyExists, "User is already a member of this project"))
	case errors.Is(err, services.ErrDuplicateName):
		RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeAlreadyExists, "Name already in use"))
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		ServiceUnavailable(c, "AI service is not configured")
	case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
		RespondWithError(c, http.StatusUnprocessableEntity, NewAPIError(ErrCodeInvalidInput, capitalize(err.Error())))
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		InternalError(c, "")
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
