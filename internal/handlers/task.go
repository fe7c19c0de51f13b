package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		now:         time.Now,
	}
}

// listInput reads the task filters shared by list and export.
func listInput(c *gin.Context) (services.ListTasksInput, bool) {
	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		AssignedToMe: queryBool(c, "assigned_to_me"),
		DueToday:     queryBool(c, "due_today"),
		Overdue:      queryBool(c, "overdue"),
		Search:       c.Query("search"),
		Sort:         c.Query("sort"),
		Page:         params.Page,
		PageSize:     params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		input.Priority = &priority
	}

	ids := []struct {
		name string
		dst  **uint64
	}{
		{"project_id", &input.ProjectID},
		{"assignee_id", &input.AssigneeID},
		{"creator_id", &input.CreatorID},
		{"parent_task_id", &input.ParentID},
		{"tag_id", &input.TagID},
	}
	for _, id := range ids {
		v, ok := queryUint(c, id.name)
		if !ok {
			return input, false
		}
		*id.dst = v
	}

	var ok bool
	if input.DueDateFrom, ok = queryTime(c, "due_date_from"); !ok {
		return input, false
	}
	if input.DueDateTo, ok = queryTime(c, "due_date_to"); !ok {
		return input, false
	}
	return input, true
}

// ListTasks returns the tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	input, ok := listInput(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), user, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, input.Page, input.PageSize, total, h.now()))
}

// ExportTasks streams every visible task matching the filters as
// newline-delimited JSON, ignoring pagination.
func (h *TaskHandler) ExportTasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	input, ok := listInput(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.VisibleTasks(c.Request.Context(), user, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	now := h.now()
	for task, err := range tasks {
		if err != nil {
			// Headers are already sent; the truncated stream is the signal.
			slog.ErrorContext(c.Request.Context(), "task export failed", "user_id", user.ID, "error", err)
			return
		}
		if err := enc.Encode(dto.ToTaskDTO(*task, now)); err != nil {
			return
		}
	}
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// ListSubtasks returns the direct children of a task
func (h *TaskHandler) ListSubtasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListSubtasks(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks, h.now())})
}

// CreateTask creates a new task, personal or inside a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), user, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, h.now()))
}

// UpdateTask applies a partial update
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), user, taskID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), user, taskID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTask sets the task's assignee
func (h *TaskHandler) AssignTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AssignTask(c.Request.Context(), user, taskID, req.UserID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// UnassignTask clears the task's assignee
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.UnassignTask(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// SetTags replaces the task's tags
func (h *TaskHandler) SetTags(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetTagsRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.SetTags(c.Request.Context(), user, taskID, req.TagIDs)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, h.now()))
}

// GetRecurrence returns the task's recurrence pattern
func (h *TaskHandler) GetRecurrence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pattern, err := h.taskService.GetRecurrence(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurrenceDTO(*pattern))
}

// SetRecurrence creates or replaces the task's recurrence pattern
func (h *TaskHandler) SetRecurrence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RecurrenceRequest
	if !bindJSON(c, &req) {
		return
	}
	input, unknown := req.Input()
	if len(unknown) > 0 {
		apierrors.BadRequestWithDetails(c, "Invalid weekdays", gin.H{
			"field":  "weekdays",
			"reason": "unknown weekday " + strings.Join(unknown, ", "),
		})
		return
	}

	pattern, err := h.taskService.SetRecurrence(c.Request.Context(), user, taskID, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurrenceDTO(*pattern))
}

// DeleteRecurrence removes the task's recurrence pattern
func (h *TaskHandler) DeleteRecurrence(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteRecurrence(c.Request.Context(), user, taskID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments returns the task's comments, oldest first
func (h *TaskHandler) ListComments(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.taskService.ListComments(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(comments)})
}

// CreateComment adds a comment to the task
func (h *TaskHandler) CreateComment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.taskService.CreateComment(c.Request.Context(), user, taskID, req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UpdateComment edits the user's own comment
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.taskService.UpdateComment(c.Request.Context(), user, taskID, commentID, req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment removes a comment
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteComment(c.Request.Context(), user, taskID, commentID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAttachments returns the task's attachments
func (h *TaskHandler) ListAttachments(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	attachments, err := h.taskService.ListAttachments(c.Request.Context(), user, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": dto.ToAttachmentDTOs(attachments)})
}

// UploadAttachment stores a multipart "file" upload on the task
func (h *TaskHandler) UploadAttachment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	upload, file, ok := formFile(c, "file", 0)
	if !ok {
		return
	}
	defer file.Close()

	attachment, err := h.taskService.UploadAttachment(c.Request.Context(), user, taskID, upload)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*attachment))
}

// DownloadAttachment streams an attachment's contents
func (h *TaskHandler) DownloadAttachment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachment_id")
	if !ok {
		return
	}

	attachment, body, err := h.taskService.OpenAttachment(c.Request.Context(), user, taskID, attachmentID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	defer body.Close()

	serveBlob(c, attachment.Name, attachment.ContentType, attachment.Size, body)
}

// DeleteAttachment removes an attachment and its stored file
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteAttachment(c.Request.Context(), user, taskID, attachmentID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateTasks uses AI to draft tasks from free text. Drafts are returned,
// not stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	var req dto.GenerateTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{Text: req.Text})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// VoiceToText transcribes a multipart "audio" upload
func (h *TaskHandler) VoiceToText(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	upload, file, ok := formFile(c, "audio", constants.MaxAudioUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	text, err := h.taskService.TranscribeVoice(c.Request.Context(), upload)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TranscriptionDTO{Text: text})
}
