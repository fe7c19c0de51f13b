package dto

import (
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// TagDTO represents a tag in API responses
type TagDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RecurrenceDTO represents a recurrence pattern in API responses
type RecurrenceDTO struct {
	Frequency  models.RecurrenceFrequency `json:"frequency"`
	Interval   int                        `json:"interval"`
	Weekdays   []string                   `json:"weekdays"`
	DayOfMonth *int                       `json:"day_of_month"`
	StartDate  time.Time                  `json:"start_date"`
	EndDate    *time.Time                 `json:"end_date"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	ReminderDate   *time.Time          `json:"reminder_date"`
	EstimatedHours *float64            `json:"estimated_hours"`
	CompletedAt    *time.Time          `json:"completed_at"`
	ProjectID      *uint64             `json:"project_id"`
	CreatorID      *uint64             `json:"creator_id"`
	AssigneeID     *uint64             `json:"assignee_id"`
	ParentTaskID   *uint64             `json:"parent_task_id"`
	ColumnID       *uint64             `json:"column_id"`
	IsOverdue      bool                `json:"is_overdue"`
	DaysUntilDue   *int                `json:"days_until_due"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Creator        *UserDTO            `json:"creator,omitempty"`
	Assignee       *UserDTO            `json:"assignee,omitempty"`
	Tags           []TagDTO            `json:"tags"`
	Recurrence     *RecurrenceDTO      `json:"recurrence,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title          string              `json:"title" binding:"required"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	ReminderDate   *time.Time          `json:"reminder_date"`
	EstimatedHours *float64            `json:"estimated_hours"`
	ProjectID      *uint64             `json:"project_id"`
	AssigneeID     *uint64             `json:"assignee_id"`
	ParentTaskID   *uint64             `json:"parent_task_id"`
	ColumnID       *uint64             `json:"column_id"`
	TagIDs         []uint64            `json:"tag_ids"`
}

func (r CreateTaskRequest) Input() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		DueDate:        r.DueDate,
		ReminderDate:   r.ReminderDate,
		EstimatedHours: r.EstimatedHours,
		ProjectID:      r.ProjectID,
		AssigneeID:     r.AssigneeID,
		ParentTaskID:   r.ParentTaskID,
		ColumnID:       r.ColumnID,
		TagIDs:         r.TagIDs,
	}
}

// UpdateTaskRequest is the body of PATCH /api/tasks/:id. Nullable fields
// sent as null are cleared.
type UpdateTaskRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Status         *models.TaskStatus   `json:"status"`
	Priority       *models.TaskPriority `json:"priority"`
	DueDate        Nullable[time.Time]  `json:"due_date"`
	ReminderDate   Nullable[time.Time]  `json:"reminder_date"`
	EstimatedHours Nullable[float64]    `json:"estimated_hours"`
	AssigneeID     Nullable[uint64]     `json:"assignee_id"`
	ParentTaskID   Nullable[uint64]     `json:"parent_task_id"`
	ColumnID       Nullable[uint64]     `json:"column_id"`
}

func (r UpdateTaskRequest) Input() services.UpdateTaskInput {
	return services.UpdateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		DueDate:        r.DueDate.Ptr(),
		ClearDueDate:   r.DueDate.Cleared(),
		ReminderDate:   r.ReminderDate.Ptr(),
		ClearReminder:  r.ReminderDate.Cleared(),
		EstimatedHours: r.EstimatedHours.Ptr(),
		ClearEstimate:  r.EstimatedHours.Cleared(),
		AssigneeID:     r.AssigneeID.Ptr(),
		ClearAssignee:  r.AssigneeID.Cleared(),
		ParentTaskID:   r.ParentTaskID.Ptr(),
		ClearParent:    r.ParentTaskID.Cleared(),
		ColumnID:       r.ColumnID.Ptr(),
		ClearColumn:    r.ColumnID.Cleared(),
	}
}

// AssignTaskRequest is the body of POST /api/tasks/:id/assign
type AssignTaskRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

// SetTagsRequest is the body of PUT /api/tasks/:id/tags
type SetTagsRequest struct {
	TagIDs []uint64 `json:"tag_ids"`
}

// GenerateTasksRequest is the body of POST /api/tasks/generate
type GenerateTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// RecurrenceRequest is the body of PUT /api/tasks/:id/recurrence
type RecurrenceRequest struct {
	Frequency  models.RecurrenceFrequency `json:"frequency" binding:"required"`
	Interval   int                        `json:"interval"`
	Weekdays   []string                   `json:"weekdays"`
	DayOfMonth *int                       `json:"day_of_month"`
	StartDate  time.Time                  `json:"start_date" binding:"required"`
	EndDate    *time.Time                 `json:"end_date"`
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Input converts the request; unknown weekday names are returned so the
// caller can reject them.
func (r RecurrenceRequest) Input() (services.RecurrenceInput, []string) {
	in := services.RecurrenceInput{
		Frequency:  r.Frequency,
		Interval:   r.Interval,
		DayOfMonth: r.DayOfMonth,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
	}
	flags := map[time.Weekday]*bool{
		time.Monday:    &in.Monday,
		time.Tuesday:   &in.Tuesday,
		time.Wednesday: &in.Wednesday,
		time.Thursday:  &in.Thursday,
		time.Friday:    &in.Friday,
		time.Saturday:  &in.Saturday,
		time.Sunday:    &in.Sunday,
	}
	var unknown []string
	for _, name := range r.Weekdays {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		*flags[day] = true
	}
	return in, unknown
}

// ToTagDTO converts a Tag model to TagDTO
func ToTagDTO(tag models.Tag) TagDTO {
	return TagDTO{ID: tag.ID, Name: tag.Name, Color: tag.Color}
}

// ToRecurrenceDTO converts a RecurringTaskPattern model to RecurrenceDTO
func ToRecurrenceDTO(pattern models.RecurringTaskPattern) RecurrenceDTO {
	days := pattern.Weekdays()
	weekdays := make([]string, len(days))
	for i, day := range days {
		weekdays[i] = strings.ToLower(day.String())
	}
	return RecurrenceDTO{
		Frequency:  pattern.Frequency,
		Interval:   pattern.Interval,
		Weekdays:   weekdays,
		DayOfMonth: pattern.DayOfMonth,
		StartDate:  pattern.StartDate,
		EndDate:    pattern.EndDate,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		ReminderDate:   task.ReminderDate,
		EstimatedHours: task.EstimatedHours,
		CompletedAt:    task.CompletedAt,
		ProjectID:      task.ProjectID,
		CreatorID:      task.CreatorID,
		AssigneeID:     task.AssigneeID,
		ParentTaskID:   task.ParentTaskID,
		ColumnID:       task.ColumnID,
		IsOverdue:      task.IsOverdue(now),
		DaysUntilDue:   task.DaysUntilDue(now),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		Creator:        toUserPtr(task.Creator),
		Assignee:       toUserPtr(task.Assignee),
		Tags:           make([]TagDTO, len(task.Tags)),
	}
	for i, tag := range task.Tags {
		dto.Tags[i] = ToTagDTO(tag)
	}

	// Include recurrence if preloaded
	if task.Recurrence != nil {
		recurrence := ToRecurrenceDTO(*task.Recurrence)
		dto.Recurrence = &recurrence
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}
	return items
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64, now time.Time) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks, now),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}
