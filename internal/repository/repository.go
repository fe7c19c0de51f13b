package repository

import (
	"context"
	"iter"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for principal data access
type UserRepository interface {
	// Create creates a new user together with its settings row
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64, preload ...string) (*models.User, error)

	// FindByFirebaseUID finds a user by identity-provider subject
	FindByFirebaseUID(uid string) (*models.User, error)

	// FindByEmail finds the oldest user with exactly this email
	FindByEmail(email string) (*models.User, error)

	// Update applies a partial update to a user
	Update(id uint64, fields map[string]interface{}) error

	// FindSettings returns the settings row of a user
	FindSettings(userID uint64) (*models.UserSettings, error)

	// UpdateSettings applies a partial update to a user's settings
	UpdateSettings(userID uint64, fields map[string]interface{}) error

	// Delete removes a user. Authored content is detached and owned content
	// (memberships, settings, tags, categories) is deleted.
	Delete(id uint64) error
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	VisibleTo  uint64
	Status     *models.ProjectStatus
	CategoryID *uint64
	Search     string
	Page       int
	PageSize   int
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// Create creates a new project row
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// LockByID finds a project and locks its row for the rest of the transaction
	LockByID(id uint64) (*models.Project, error)

	// List retrieves projects visible to a user with filtering and pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update applies a partial update to a project
	Update(id uint64, fields map[string]interface{}) error

	// Delete removes a project and everything it owns
	Delete(id uint64) error

	// TaskStats counts the project's tasks and how many are done
	TaskStats(id uint64) (total int64, done int64, err error)

	// AddMember adds a membership row
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific membership
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// LockMembers locks and returns all membership rows of a project
	LockMembers(projectID uint64) ([]models.ProjectMember, error)

	// ListMembers lists all members of a project with their users
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// UpdateMemberRole changes the role of a membership
	UpdateMemberRole(projectID, userID uint64, role models.ProjectRole) error

	// RemoveMember deletes a membership row
	RemoveMember(projectID, userID uint64) error

	// MemberRole returns the role of a user in a project, if any
	MemberRole(projectID, userID uint64) (models.ProjectRole, bool, error)

	// CountOwners counts owner memberships of a project
	CountOwners(projectID uint64) (int64, error)

	// SoleOwnedProjectIDs lists projects where the user is the only owner
	SoleOwnedProjectIDs(userID uint64) ([]uint64, error)
}

// BoardRepository defines the interface for Kanban board data access
type BoardRepository interface {
	// Create creates a board together with its columns
	Create(board *models.KanbanBoard) error

	// FindByProjectID finds the board of a project with ordered columns
	FindByProjectID(projectID uint64) (*models.KanbanBoard, error)

	// FindColumn finds a column on a board
	FindColumn(boardID, columnID uint64) (*models.KanbanColumn, error)

	// ColumnInProject reports whether a column belongs to the project's board
	ColumnInProject(columnID, projectID uint64) (bool, error)

	// NextColumnOrder returns the order value after the board's last column
	NextColumnOrder(boardID uint64) (int, error)

	// CreateColumn adds a column
	CreateColumn(column *models.KanbanColumn) error

	// UpdateColumn applies a partial update to a column
	UpdateColumn(id uint64, fields map[string]interface{}) error

	// DeleteColumn removes a column and detaches its tasks
	DeleteColumn(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	VisibleTo   uint64
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	ProjectID   *uint64
	AssigneeID  *uint64
	CreatorID   *uint64
	ParentID    *uint64
	TagID       *uint64
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Overdue     bool
	Now         time.Time
	Search      string
	Sort        string
	Page        int
	PageSize    int
}

const (
	SortCreated  = "created"
	SortDueDate  = "due_date"
	SortPriority = "priority"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// LockByID finds a task and locks its row for the rest of the transaction
	LockByID(id uint64) (*models.Task, error)

	// List retrieves visible tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Stream yields visible tasks one row at a time
	Stream(filter TaskFilter) iter.Seq2[*models.Task, error]

	// Update applies a partial update to a task
	Update(id uint64, fields map[string]interface{}) error

	// Delete removes a task and its comments, attachments and recurrence
	Delete(id uint64) error

	// ParentOf returns the parent id of a task, nil for a root task
	ParentOf(id uint64) (*uint64, error)

	// ReplaceTags sets the task's tags
	ReplaceTags(task *models.Task, tags []models.Tag) error

	// FindRecurrence returns the task's recurrence pattern
	FindRecurrence(taskID uint64) (*models.RecurringTaskPattern, error)

	// SaveRecurrence creates or replaces the task's recurrence pattern
	SaveRecurrence(pattern *models.RecurringTaskPattern) error

	// DeleteRecurrence removes the task's recurrence pattern
	DeleteRecurrence(taskID uint64) error
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(comment *models.TaskComment) error
	FindByID(taskID, id uint64) (*models.TaskComment, error)
	ListByTask(taskID uint64) ([]models.TaskComment, error)
	Update(id uint64, content string) error
	Delete(id uint64) error
}

// AttachmentRepository defines the interface for task attachment data access
type AttachmentRepository interface {
	Create(attachment *models.TaskAttachment) error
	FindByID(taskID, id uint64) (*models.TaskAttachment, error)
	ListByTask(taskID uint64) ([]models.TaskAttachment, error)
	Delete(id uint64) error

	// StorageKeysByTask lists blob keys of a task's attachments
	StorageKeysByTask(taskID uint64) ([]string, error)

	// StorageKeysByProject lists blob keys of attachments on a project's tasks
	StorageKeysByProject(projectID uint64) ([]string, error)
}

// NoteRepository defines the interface for project note data access
type NoteRepository interface {
	Create(note *models.ProjectNote) error
	FindByID(projectID, id uint64) (*models.ProjectNote, error)
	ListByProject(projectID uint64) ([]models.ProjectNote, error)
	Update(id uint64, fields map[string]interface{}) error
	Delete(id uint64) error
}

// DocumentRepository defines the interface for project document data access
type DocumentRepository interface {
	Create(doc *models.ProjectDocument) error
	FindByID(projectID, id uint64) (*models.ProjectDocument, error)
	ListByProject(projectID uint64) ([]models.ProjectDocument, error)
	Delete(id uint64) error
}

// TagRepository defines the interface for tag data access
type TagRepository interface {
	Create(tag *models.Tag) error
	FindByID(id uint64) (*models.Tag, error)
	ListByOwner(ownerID uint64) ([]models.Tag, error)

	// FindOwned returns the tags among ids that belong to ownerID
	FindOwned(ownerID uint64, ids []uint64) ([]models.Tag, error)

	Update(id uint64, fields map[string]interface{}) error
	Delete(id uint64) error
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(category *models.Category) error
	FindByID(id uint64) (*models.Category, error)
	ListByOwner(ownerID uint64) ([]models.Category, error)
	Update(id uint64, fields map[string]interface{}) error

	// Delete removes a category and detaches its projects
	Delete(id uint64) error
}

// Repositories bundles every repository over a single *gorm.DB so that a
// transaction hands out a consistent set.
type Repositories struct {
	db *gorm.DB

	Users       UserRepository
	Projects    ProjectRepository
	Boards      BoardRepository
	Tasks       TaskRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
	Notes       NoteRepository
	Documents   DocumentRepository
	Tags        TagRepository
	Categories  CategoryRepository
}

// New creates the repository set over db
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Users:       NewUserRepository(db),
		Projects:    NewProjectRepository(db),
		Boards:      NewBoardRepository(db),
		Tasks:       NewTaskRepository(db),
		Comments:    NewCommentRepository(db),
		Attachments: NewAttachmentRepository(db),
		Notes:       NewNoteRepository(db),
		Documents:   NewDocumentRepository(db),
		Tags:        NewTagRepository(db),
		Categories:  NewCategoryRepository(db),
	}
}

// WithContext returns a set bound to ctx so queries abort when it is cancelled
func (r *Repositories) WithContext(ctx context.Context) *Repositories {
	return New(r.db.WithContext(ctx))
}

// Transaction runs fn with a repository set bound to a single transaction.
// Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// DB exposes the underlying handle
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
