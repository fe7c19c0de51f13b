package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// OpenTaskStatuses are the statuses a task can be overdue in.
var OpenTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known task priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	Title          string       `gorm:"type:varchar(200);not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	Priority       TaskPriority `gorm:"type:varchar(10);not null;default:'medium';index" json:"priority"`
	DueDate        *time.Time   `gorm:"index" json:"due_date"`
	ReminderDate   *time.Time   `json:"reminder_date"`
	EstimatedHours *float64     `json:"estimated_hours"`
	CompletedAt    *time.Time   `json:"completed_at"`
	ProjectID      *uint64      `gorm:"index" json:"project_id"`
	CreatorID      *uint64      `gorm:"index" json:"creator_id"`
	AssigneeID     *uint64      `gorm:"index" json:"assignee_id"`
	ParentTaskID   *uint64      `gorm:"index" json:"parent_task_id"`
	ColumnID       *uint64      `gorm:"index" json:"column_id"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Relations
	Project    *Project              `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	Creator    *User                 `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL" json:"creator,omitempty"`
	Assignee   *User                 `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	ParentTask *Task                 `gorm:"foreignKey:ParentTaskID;constraint:OnDelete:SET NULL" json:"-"`
	Column     *KanbanColumn         `gorm:"foreignKey:ColumnID;constraint:OnDelete:SET NULL" json:"-"`
	Tags       []Tag                 `gorm:"many2many:task_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Recurrence *RecurringTaskPattern `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"recurrence,omitempty"`
}

// IsOverdue reports whether the due date has passed and the task is not done.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusDone {
		return false
	}
	return t.DueDate.Before(now)
}

// DaysUntilDue returns whole days until the due date, floored at zero, or nil
// when the task has no due date.
func (t Task) DaysUntilDue(now time.Time) *int {
	if t.DueDate == nil {
		return nil
	}
	days := 0
	if remaining := t.DueDate.Sub(now); remaining > 0 {
		days = int(remaining / (24 * time.Hour))
	}
	return &days
}

// IsCreator reports whether userID created the task.
func (t Task) IsCreator(userID uint64) bool {
	return t.CreatorID != nil && *t.CreatorID == userID
}

// IsAssignee reports whether userID is assigned to the task.
func (t Task) IsAssignee(userID uint64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskComment is a comment left on a task.
type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	AuthorID  *uint64   `gorm:"index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task   *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
}

// TaskAttachment is a file uploaded to a task.
type TaskAttachment struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TaskID      uint64    `gorm:"not null;index" json:"task_id"`
	UploaderID  *uint64   `gorm:"index" json:"uploader_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ContentType string    `gorm:"type:varchar(127)" json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `gorm:"type:varchar(255);not null" json:"-"`
	Checksum    string    `gorm:"type:varchar(64)" json:"checksum"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	// Relations
	Task     *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Uploader *User `gorm:"foreignKey:UploaderID;constraint:OnDelete:SET NULL" json:"uploader,omitempty"`
}
