package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// ProjectHandler serves projects and everything hanging off them: members,
// the board, notes and documents.
type ProjectHandler struct {
	projectService    *services.ProjectService
	membershipService *services.MembershipService
	now               func() time.Time
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, membershipService *services.MembershipService) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		membershipService: membershipService,
		now:               time.Now,
	}
}

// ListProjects returns the projects the user created or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListProjectsInput{
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ProjectStatus(raw)
		input.Status = &status
	}
	categoryID, ok := queryUint(c, "category_id")
	if !ok {
		return
	}
	input.CategoryID = categoryID

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), user, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total, h.now()))
}

// CreateProject creates a project with its owner membership and board
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.projectService.CreateProject(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProjectDetailDTO(*detail, h.now()))
}

// GetProject returns a project with members, board and progress
func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.projectService.GetProject(c.Request.Context(), user, projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*detail, h.now()))
}

// UpdateProject applies a partial update
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.projectService.UpdateProject(c.Request.Context(), user, projectID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*detail, h.now()))
}

// DeleteProject deletes a project and everything it owns
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), user, projectID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers returns the project's members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.membershipService.ListMembers(c.Request.Context(), user, projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// AddMember adds a user to the project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.membershipService.AddMember(c.Request.Context(), user, projectID, services.AddMemberInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToMemberDTO(*member))
}

// ChangeRole changes a member's role
func (h *ProjectHandler) ChangeRole(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.membershipService.ChangeRole(c.Request.Context(), user, projectID, userID, req.Role)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// RemoveMember removes a member, or lets a member leave
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	if err := h.membershipService.RemoveMember(c.Request.Context(), user, projectID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBoard returns the project's board, creating it on first access
func (h *ProjectHandler) GetBoard(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	board, err := h.projectService.GetOrCreateBoard(c.Request.Context(), user, projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*board))
}

// CreateColumn adds a column to the board
func (h *ProjectHandler) CreateColumn(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ColumnRequest
	if !bindJSON(c, &req) {
		return
	}

	column, err := h.projectService.CreateColumn(c.Request.Context(), user, projectID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToColumnDTO(*column))
}

// UpdateColumn renames, recolors or moves a column
func (h *ProjectHandler) UpdateColumn(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	columnID, ok := pathID(c, "column_id")
	if !ok {
		return
	}

	var req dto.ColumnRequest
	if !bindJSON(c, &req) {
		return
	}

	column, err := h.projectService.UpdateColumn(c.Request.Context(), user, projectID, columnID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToColumnDTO(*column))
}

// DeleteColumn removes a column; its tasks keep existing without a column
func (h *ProjectHandler) DeleteColumn(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	columnID, ok := pathID(c, "column_id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteColumn(c.Request.Context(), user, projectID, columnID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListNotes returns the project's notes
func (h *ProjectHandler) ListNotes(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	notes, err := h.projectService.ListNotes(c.Request.Context(), user, projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": dto.ToNoteDTOs(notes)})
}

// CreateNote adds a note to the project
func (h *ProjectHandler) CreateNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := h.projectService.CreateNote(c.Request.Context(), user, projectID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToNoteDTO(*note))
}

// UpdateNote edits a note written by the user
func (h *ProjectHandler) UpdateNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	var req dto.NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := h.projectService.UpdateNote(c.Request.Context(), user, projectID, noteID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToNoteDTO(*note))
}

// DeleteNote removes a note
func (h *ProjectHandler) DeleteNote(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteNote(c.Request.Context(), user, projectID, noteID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDocuments returns the project's documents
func (h *ProjectHandler) ListDocuments(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	docs, err := h.projectService.ListDocuments(c.Request.Context(), user, projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": dto.ToDocumentDTOs(docs)})
}

// UploadDocument stores a multipart "file" upload on the project
func (h *ProjectHandler) UploadDocument(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	upload, file, ok := formFile(c, "file", 0)
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.projectService.UploadDocument(c.Request.Context(), user, projectID, services.DocumentInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		File:        upload,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToDocumentDTO(*doc))
}

// DownloadDocument streams a document's contents
func (h *ProjectHandler) DownloadDocument(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	documentID, ok := pathID(c, "document_id")
	if !ok {
		return
	}

	doc, body, err := h.projectService.OpenDocument(c.Request.Context(), user, projectID, documentID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	defer body.Close()

	serveBlob(c, doc.FileName, doc.ContentType, doc.Size, body)
}

// DeleteDocument removes a document and its stored file
func (h *ProjectHandler) DeleteDocument(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	documentID, ok := pathID(c, "document_id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteDocument(c.Request.Context(), user, projectID, documentID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
