package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	repos       *repository.Repositories
	blobs       storage.BlobStore
	extractor   TaskExtractor
	transcriber Transcriber
	now         func() time.Time
}

// NewTaskService creates a new TaskService. ai may be nil when no AI
// provider is configured.
func NewTaskService(repos *repository.Repositories, blobs storage.BlobStore, ai *AIService) *TaskService {
	s := &TaskService{
		repos: repos,
		blobs: blobs,
		now:   time.Now,
	}
	if ai != nil {
		s.extractor = ai
		s.transcriber = ai
	}
	return s
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	ProjectID    *uint64
	AssigneeID   *uint64
	CreatorID    *uint64
	ParentID     *uint64
	TagID        *uint64
	DueDateFrom  *time.Time
	DueDateTo    *time.Time
	AssignedToMe bool
	DueToday     bool
	Overdue      bool
	Search       string
	Sort         string
	Page         int
	PageSize     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	DueDate        *time.Time
	ReminderDate   *time.Time
	EstimatedHours *float64
	ProjectID      *uint64
	AssigneeID     *uint64
	ParentTaskID   *uint64
	ColumnID       *uint64
	TagIDs         []uint64
}

// UpdateTaskInput represents input for updating a task; nil leaves a field as is
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	DueDate        *time.Time
	ClearDueDate   bool
	ReminderDate   *time.Time
	ClearReminder  bool
	EstimatedHours *float64
	ClearEstimate  bool
	AssigneeID     *uint64
	ClearAssignee  bool
	ParentTaskID   *uint64
	ClearParent    bool
	ColumnID       *uint64
	ClearColumn    bool
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

var taskPreloads = []string{"Creator", "Assignee", "Tags", "Recurrence"}

func (s *TaskService) filter(actor *models.User, input ListTasksInput) (repository.TaskFilter, error) {
	if input.Status != nil && !input.Status.Valid() {
		return repository.TaskFilter{}, invalid("status", "unknown task status")
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return repository.TaskFilter{}, invalid("priority", "unknown task priority")
	}
	switch input.Sort {
	case "", repository.SortCreated, repository.SortDueDate, repository.SortPriority:
	default:
		return repository.TaskFilter{}, invalid("sort", "must be created, due_date or priority")
	}

	now := s.now().UTC()
	filter := repository.TaskFilter{
		VisibleTo:   actor.ID,
		Status:      input.Status,
		Priority:    input.Priority,
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		CreatorID:   input.CreatorID,
		ParentID:    input.ParentID,
		TagID:       input.TagID,
		DueDateFrom: input.DueDateFrom,
		DueDateTo:   input.DueDateTo,
		Overdue:     input.Overdue,
		Now:         now,
		Search:      strings.TrimSpace(input.Search),
		Sort:        input.Sort,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	if input.AssignedToMe {
		filter.AssigneeID = &actor.ID
	}
	if input.DueToday {
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}
	return filter, nil
}

// ListTasks returns one page of tasks visible to actor and the total match count
func (s *TaskService) ListTasks(ctx context.Context, actor *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter, err := s.filter(actor, input)
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.repos.WithContext(ctx).Tasks.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// VisibleTasks streams every task visible to actor that matches input.
// Paging fields are ignored. Filtering happens in the database and rows are
// read one at a time.
func (s *TaskService) VisibleTasks(ctx context.Context, actor *models.User, input ListTasksInput) (iter.Seq2[*models.Task, error], error) {
	input.Page, input.PageSize = 0, 0
	filter, err := s.filter(actor, input)
	if err != nil {
		return nil, err
	}
	return s.repos.WithContext(ctx).Tasks.Stream(filter), nil
}

// GetTask returns a visible task with related data
func (s *TaskService) GetTask(ctx context.Context, actor *models.User, taskID uint64) (*models.Task, error) {
	repos := s.repos.WithContext(ctx)
	task, err := repos.Tasks.FindByID(taskID, taskPreloads...)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	if err := engine(repos).Require(actor, authz.TaskResource(task), authz.ActionView); err != nil {
		return nil, err
	}
	return task, nil
}

// ListSubtasks returns the visible direct children of a task
func (s *TaskService) ListSubtasks(ctx context.Context, actor *models.User, taskID uint64) ([]models.Task, error) {
	if _, err := s.GetTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	tasks, _, err := s.repos.WithContext(ctx).Tasks.List(repository.TaskFilter{
		VisibleTo: actor.ID,
		ParentID:  &taskID,
		Now:       s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return tasks, nil
}

func findTask(tx *repository.Repositories, taskID uint64, lock bool) (*models.Task, error) {
	var (
		task *models.Task
		err  error
	)
	if lock {
		task, err = tx.Tasks.LockByID(taskID)
	} else {
		task, err = tx.Tasks.FindByID(taskID)
	}
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	return task, nil
}

// checkAssignee verifies the user exists and, for project tasks, can see the project.
func checkAssignee(tx *repository.Repositories, project *models.Project, userID uint64) error {
	user, err := tx.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("assignee_id", "unknown user")
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	if project == nil {
		return nil
	}
	decision, err := engine(tx).Authorize(user, authz.ProjectResource(project), authz.ActionView)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return invalid("assignee_id", "user cannot see the project")
	}
	return nil
}

// checkParent verifies the parent is visible to actor and lives in the same project.
func checkParent(tx *repository.Repositories, actor *models.User, parentID uint64, projectID *uint64) error {
	parent, err := tx.Tasks.FindByID(parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("parent_task_id", "unknown task")
		}
		return fmt.Errorf("failed to find parent task: %w", err)
	}
	decision, err := engine(tx).Authorize(actor, authz.TaskResource(parent), authz.ActionView)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return invalid("parent_task_id", "unknown task")
	}
	if !sameProject(parent.ProjectID, projectID) {
		return invalid("parent_task_id", "must belong to the same project")
	}
	return nil
}

// checkNoCycle walks up from newParentID and fails if it reaches taskID.
func checkNoCycle(tx *repository.Repositories, taskID, newParentID uint64) error {
	seen := map[uint64]bool{}
	for current := &newParentID; current != nil; {
		if *current == taskID {
			return invalid("parent_task_id", "would create a cycle")
		}
		if seen[*current] {
			return nil
		}
		seen[*current] = true

		next, err := tx.Tasks.ParentOf(*current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to walk task parents: %w", err)
		}
		current = next
	}
	return nil
}

func checkColumn(tx *repository.Repositories, columnID uint64, projectID *uint64) error {
	if projectID == nil {
		return invalid("column_id", "task has no project")
	}
	ok, err := tx.Boards.ColumnInProject(columnID, *projectID)
	if err != nil {
		return fmt.Errorf("failed to check column: %w", err)
	}
	if !ok {
		return invalid("column_id", "column is not on the project board")
	}
	return nil
}

func sameProject(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func checkReminder(reminder, due *time.Time) error {
	if reminder != nil && due != nil && reminder.After(*due) {
		return invalid("reminder_date", "must not be after the due date")
	}
	return nil
}

func ownedTags(tx *repository.Repositories, actor *models.User, ids []uint64) ([]models.Tag, error) {
	ids = uniqueUint64(ids)
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	tags, err := tx.Tags.FindOwned(actor.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	if len(tags) != len(ids) {
		return nil, invalid("tag_ids", "unknown tag")
	}
	return tags, nil
}

// CreateTask validates and stores a new task created by actor
func (s *TaskService) CreateTask(ctx context.Context, actor *models.User, input CreateTaskInput) (*models.Task, error) {
	title, err := requiredName("title", input.Title, 200)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, invalid("status", "unknown task status")
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, invalid("priority", "unknown task priority")
	}
	if err := checkReminder(input.ReminderDate, input.DueDate); err != nil {
		return nil, err
	}
	if input.EstimatedHours != nil && *input.EstimatedHours < 0 {
		return nil, invalid("estimated_hours", "must not be negative")
	}

	creatorID := actor.ID
	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        utcPtr(input.DueDate),
		ReminderDate:   utcPtr(input.ReminderDate),
		EstimatedHours: input.EstimatedHours,
		ProjectID:      input.ProjectID,
		CreatorID:      &creatorID,
		AssigneeID:     input.AssigneeID,
		ParentTaskID:   input.ParentTaskID,
		ColumnID:       input.ColumnID,
	}
	if task.Status == models.TaskStatusDone {
		completed := s.now().UTC()
		task.CompletedAt = &completed
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var project *models.Project
		if input.ProjectID != nil {
			if project, err = tx.Projects.FindByID(*input.ProjectID); err != nil {
				return notFound(err, ErrProjectNotFound, "find project")
			}
			if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionCreateTask); err != nil {
				return err
			}
		}
		if input.AssigneeID != nil {
			if err := checkAssignee(tx, project, *input.AssigneeID); err != nil {
				return err
			}
		}
		if input.ParentTaskID != nil {
			if err := checkParent(tx, actor, *input.ParentTaskID, input.ProjectID); err != nil {
				return err
			}
		}
		if input.ColumnID != nil {
			if err := checkColumn(tx, *input.ColumnID, input.ProjectID); err != nil {
				return err
			}
		}
		tags, err := ownedTags(tx, actor, input.TagIDs)
		if err != nil {
			return err
		}

		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if len(tags) > 0 {
			if err := tx.Tasks.ReplaceTags(task, tags); err != nil {
				return fmt.Errorf("failed to tag task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created", "task_id", task.ID, "user_id", actor.ID)
	return s.GetTask(ctx, actor, task.ID)
}

// UpdateTask applies a partial update. Moving a task under one of its own
// descendants is rejected. completed_at follows the done status.
func (s *TaskService) UpdateTask(ctx context.Context, actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.TaskResource(task), authz.ActionUpdate); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Title != nil {
			title, err := requiredName("title", *input.Title, 200)
			if err != nil {
				return err
			}
			fields["title"] = title
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return invalid("status", "unknown task status")
			}
			fields["status"] = *input.Status
			switch {
			case *input.Status == models.TaskStatusDone && task.Status != models.TaskStatusDone:
				fields["completed_at"] = s.now().UTC()
			case *input.Status != models.TaskStatusDone:
				fields["completed_at"] = nil
			}
		}
		if input.Priority != nil {
			if !input.Priority.Valid() {
				return invalid("priority", "unknown task priority")
			}
			fields["priority"] = *input.Priority
		}

		due, reminder := task.DueDate, task.ReminderDate
		if input.ClearDueDate {
			due = nil
			fields["due_date"] = nil
		} else if input.DueDate != nil {
			due = utcPtr(input.DueDate)
			fields["due_date"] = *due
		}
		if input.ClearReminder {
			reminder = nil
			fields["reminder_date"] = nil
		} else if input.ReminderDate != nil {
			reminder = utcPtr(input.ReminderDate)
			fields["reminder_date"] = *reminder
		}
		if err := checkReminder(reminder, due); err != nil {
			return err
		}

		if input.ClearEstimate {
			fields["estimated_hours"] = nil
		} else if input.EstimatedHours != nil {
			if *input.EstimatedHours < 0 {
				return invalid("estimated_hours", "must not be negative")
			}
			fields["estimated_hours"] = *input.EstimatedHours
		}

		if input.ClearAssignee {
			fields["assignee_id"] = nil
		} else if input.AssigneeID != nil {
			project, err := taskProject(tx, task)
			if err != nil {
				return err
			}
			if err := checkAssignee(tx, project, *input.AssigneeID); err != nil {
				return err
			}
			fields["assignee_id"] = *input.AssigneeID
		}

		if input.ClearParent {
			fields["parent_task_id"] = nil
		} else if input.ParentTaskID != nil {
			if err := checkParent(tx, actor, *input.ParentTaskID, task.ProjectID); err != nil {
				return err
			}
			if err := checkNoCycle(tx, task.ID, *input.ParentTaskID); err != nil {
				return err
			}
			fields["parent_task_id"] = *input.ParentTaskID
		}

		if input.ClearColumn {
			fields["column_id"] = nil
		} else if input.ColumnID != nil {
			if err := checkColumn(tx, *input.ColumnID, task.ProjectID); err != nil {
				return err
			}
			fields["column_id"] = *input.ColumnID
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.Tasks.Update(taskID, fields); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, actor, taskID)
}

func taskProject(tx *repository.Repositories, task *models.Task) (*models.Project, error) {
	if task.ProjectID == nil {
		return nil, nil
	}
	project, err := tx.Projects.FindByID(*task.ProjectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return project, nil
}

// DeleteTask removes a task with its comments, attachments and recurrence.
// Subtasks are kept and become root tasks.
func (s *TaskService) DeleteTask(ctx context.Context, actor *models.User, taskID uint64) error {
	var blobKeys []string
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.TaskResource(task), authz.ActionDelete); err != nil {
			return err
		}
		if blobKeys, err = tx.Attachments.StorageKeysByTask(taskID); err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}
		if err := tx.Tasks.Delete(taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, blobKeys)
	slog.InfoContext(ctx, "task deleted", "task_id", taskID, "user_id", actor.ID)
	return nil
}

// AssignTask sets the task's assignee
func (s *TaskService) AssignTask(ctx context.Context, actor *models.User, taskID, userID uint64) (*models.Task, error) {
	return s.UpdateTask(ctx, actor, taskID, UpdateTaskInput{AssigneeID: &userID})
}

// UnassignTask clears the task's assignee
func (s *TaskService) UnassignTask(ctx context.Context, actor *models.User, taskID uint64) (*models.Task, error) {
	return s.UpdateTask(ctx, actor, taskID, UpdateTaskInput{ClearAssignee: true})
}

// GenerateTasks uses AI to generate task drafts from text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.extractor == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, invalid("text", "is required")
	}

	aiTasks, err := s.extractor.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		aiTask.Title = truncate(aiTask.Title, 200)

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// TranscribeVoice converts an uploaded recording to text
func (s *TaskService) TranscribeVoice(ctx context.Context, audio Upload) (string, error) {
	if s.transcriber == nil {
		return "", ErrAIServiceNotConfigured
	}
	name, err := audio.name()
	if err != nil {
		return "", err
	}

	text, err := s.transcriber.Transcribe(ctx, name, audio.Body)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return text, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
