package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

// TagHandler serves the user's private tags and project categories.
type TagHandler struct {
	tagService      *services.TagService
	categoryService *services.CategoryService
}

func NewTagHandler(tagService *services.TagService, categoryService *services.CategoryService) *TagHandler {
	return &TagHandler{
		tagService:      tagService,
		categoryService: categoryService,
	}
}

func (h *TagHandler) ListTags(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	tags, err := h.tagService.List(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": dto.ToTagDTOs(tags)})
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.TagRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTagDTO(*tag))
}

func (h *TagHandler) UpdateTag(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	tagID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.TagRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.tagService.Update(c.Request.Context(), user, tagID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTagDTO(*tag))
}

func (h *TagHandler) DeleteTag(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	tagID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), user, tagID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TagHandler) ListCategories(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	categories, err := h.categoryService.List(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": dto.ToCategoryDTOs(categories)})
}

func (h *TagHandler) CreateCategory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCategoryDTO(*category))
}

func (h *TagHandler) UpdateCategory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), user, categoryID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryDTO(*category))
}

func (h *TagHandler) DeleteCategory(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), user, categoryID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
