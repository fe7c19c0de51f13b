package repository

import (
	"iter"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task row; tags are attached separately
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// LockByID finds a task and locks its row
func (r *GormTaskRepository) LockByID(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// VisibleTo restricts a task query to rows the user created, is assigned
// to, or can see through membership of the task's project.
func VisibleTo(db *gorm.DB, userID uint64) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		memberSubQuery := db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = tasks.project_id").
			Where("project_members.user_id = ?", userID)
		return query.Where("tasks.creator_id = ? OR tasks.assignee_id = ? OR EXISTS (?)", userID, userID, memberSubQuery)
	}
}

func (r *GormTaskRepository) filtered(filter TaskFilter) *gorm.DB {
	query := r.db.Model(&models.Task{}).Scopes(VisibleTo(r.db, filter.VisibleTo))

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.ParentID != nil {
		query = query.Where("tasks.parent_task_id = ?", *filter.ParentID)
	}
	if filter.TagID != nil {
		tagSubQuery := r.db.Table("task_tags").
			Select("1").
			Where("task_tags.task_id = tasks.id").
			Where("task_tags.tag_id = ?", *filter.TagID)
		query = query.Where("EXISTS (?)", tagSubQuery)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}
	if filter.Overdue {
		query = query.Where("tasks.due_date < ? AND tasks.status IN ?", filter.Now, models.OpenTaskStatuses)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ?", like, like)
	}

	return query
}

func ordered(query *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortDueDate:
		query = query.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	case SortPriority:
		query = query.Order("CASE tasks.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END")
	}
	return query.Order("tasks.created_at DESC").Order("tasks.id DESC")
}

// List retrieves visible tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task
	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := ordered(query, filter.Sort)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Assignee").Preload("Tags").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Stream yields visible tasks one row at a time from the database cursor.
// The connection stays checked out until iteration stops.
func (r *GormTaskRepository) Stream(filter TaskFilter) iter.Seq2[*models.Task, error] {
	return func(yield func(*models.Task, error) bool) {
		rows, err := ordered(r.filtered(filter), filter.Sort).Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var task models.Task
			if err := r.db.ScanRows(rows, &task); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&task, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Update applies a partial update to a task
func (r *GormTaskRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a task and the rows that hang off it
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_tags WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		children := []interface{}{
			&models.TaskComment{},
			&models.TaskAttachment{},
			&models.RecurringTaskPattern{},
		}
		for _, model := range children {
			if err := tx.Where("task_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Task{}).Where("parent_task_id = ?", id).Update("parent_task_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ParentOf returns the parent id of a task, nil for a root task
func (r *GormTaskRepository) ParentOf(id uint64) (*uint64, error) {
	var task models.Task
	if err := r.db.Select("id", "parent_task_id").First(&task, id).Error; err != nil {
		return nil, err
	}
	return task.ParentTaskID, nil
}

// ReplaceTags sets the task's tags
func (r *GormTaskRepository) ReplaceTags(task *models.Task, tags []models.Tag) error {
	return r.db.Model(task).Association("Tags").Replace(tags)
}

// FindRecurrence returns the task's recurrence pattern
func (r *GormTaskRepository) FindRecurrence(taskID uint64) (*models.RecurringTaskPattern, error) {
	var pattern models.RecurringTaskPattern
	if err := r.db.Where("task_id = ?", taskID).First(&pattern).Error; err != nil {
		return nil, err
	}
	return &pattern, nil
}

// SaveRecurrence creates or replaces the task's recurrence pattern
func (r *GormTaskRepository) SaveRecurrence(pattern *models.RecurringTaskPattern) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}},
		UpdateAll: true,
	}).Create(pattern).Error
}

// DeleteRecurrence removes the task's recurrence pattern
func (r *GormTaskRepository) DeleteRecurrence(taskID uint64) error {
	result := r.db.Where("task_id = ?", taskID).Delete(&models.RecurringTaskPattern{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
