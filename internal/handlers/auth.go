package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

// UserHandler serves the acting principal's profile, settings and account.
type UserHandler struct {
	identityService *services.IdentityService
	userService     *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(identityService *services.IdentityService, userService *services.UserService) *UserHandler {
	return &UserHandler{
		identityService: identityService,
		userService:     userService,
	}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// LookupUser finds a user by exact email.
func (h *UserHandler) LookupUser(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	user, err := h.userService.LookupByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserLookupDTO(*user))
}

// Profile returns the full profile with settings.
func (h *UserHandler) Profile(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	profile, err := h.userService.Profile(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileDTO(*profile))
}

// UpdateProfile applies a partial profile update.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileDTO(*profile))
}

// Settings returns the user's settings.
func (h *UserHandler) Settings(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	settings, err := h.userService.Settings(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingsDTO(*settings))
}

// UpdateSettings applies a partial settings update.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.userService.UpdateSettings(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToSettingsDTO(*settings))
}

// RevokeTokens invalidates every token issued to the user so far.
func (h *UserHandler) RevokeTokens(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.identityService.RevokeTokens(c.Request.Context(), user); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAccount removes the user. Refused while the user is the sole owner
// of any project.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), user); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
