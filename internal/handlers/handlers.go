package handlers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// Health reports that the process is serving requests.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// principal returns the authenticated user or writes a 401.
func principal(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return nil, false
	}
	return user, true
}

// pathID parses a positive numeric path parameter or writes a 400.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// queryUint parses an optional numeric query parameter.
func queryUint(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid "+name, gin.H{"field": name, "reason": "must be a positive integer"})
		return nil, false
	}
	return &v, true
}

// queryTime parses an optional RFC 3339 timestamp or YYYY-MM-DD date.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	apierrors.BadRequestWithDetails(c, "Invalid "+name, gin.H{"field": name, "reason": "must be a date"})
	return nil, false
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// formFile opens a multipart file field. The returned file must be closed.
func formFile(c *gin.Context, field string, maxBytes int64) (services.Upload, multipart.File, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		apierrors.BadRequestWithDetails(c, "Missing file", gin.H{"field": field, "reason": "is required"})
		return services.Upload{}, nil, false
	}
	if maxBytes > 0 && header.Size > maxBytes {
		apierrors.BadRequestWithDetails(c, "File is too large", gin.H{"field": field, "reason": "is too large"})
		return services.Upload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return services.Upload{}, nil, false
	}
	return services.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, file, true
}

// serveBlob streams stored file contents as a download.
func serveBlob(c *gin.Context, name, contentType string, size int64, body io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, contentType, body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}
