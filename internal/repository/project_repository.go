package repository

import (
	"errors"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project row without associations
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// LockByID finds a project and locks its row
func (r *GormProjectRepository) LockByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// visibleProjects restricts a query to projects the user created or belongs to
func (r *GormProjectRepository) visibleProjects(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		memberSubQuery := r.db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = projects.id").
			Where("project_members.user_id = ?", userID)
		return db.Where("projects.creator_id = ? OR EXISTS (?)", userID, memberSubQuery)
	}
}

// List retrieves projects visible to a user with filtering and pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	var projects []models.Project

	query := r.db.Model(&models.Project{}).Scopes(r.visibleProjects(filter.VisibleTo))

	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("projects.category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("projects.name LIKE ? OR projects.description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("projects.updated_at DESC").Order("projects.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Category").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update applies a partial update to a project
func (r *GormProjectRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Project{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a project and everything it owns in one transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		projectTasks := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		if err := tx.Exec("DELETE FROM task_tags WHERE task_id IN (?)", projectTasks).Error; err != nil {
			return err
		}
		taskChildren := []interface{}{
			&models.TaskComment{},
			&models.TaskAttachment{},
			&models.RecurringTaskPattern{},
		}
		for _, model := range taskChildren {
			if err := tx.Where("task_id IN (?)", projectTasks).Delete(model).Error; err != nil {
				return err
			}
		}
		// Personal subtasks may point at project tasks.
		if err := tx.Model(&models.Task{}).Where("parent_task_id IN (?)", projectTasks).Update("parent_task_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		boards := tx.Model(&models.KanbanBoard{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("board_id IN (?)", boards).Delete(&models.KanbanColumn{}).Error; err != nil {
			return err
		}

		projectChildren := []interface{}{
			&models.KanbanBoard{},
			&models.ProjectMember{},
			&models.ProjectNote{},
			&models.ProjectDocument{},
		}
		for _, model := range projectChildren {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// TaskStats counts the project's tasks and how many are done
func (r *GormProjectRepository) TaskStats(id uint64) (int64, int64, error) {
	var stats struct {
		Total int64
		Done  int64
	}
	err := r.db.Model(&models.Task{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS done", models.TaskStatusDone).
		Where("project_id = ?", id).
		Scan(&stats).Error
	return stats.Total, stats.Done, err
}

// AddMember adds a membership row
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Omit(clause.Associations).Create(member).Error
}

// FindMember finds a specific membership
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// LockMembers locks and returns all membership rows of a project
func (r *GormProjectRepository) LockMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ?", projectID).
		Order("id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at").
		Order("id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMemberRole changes the role of a membership
func (r *GormProjectRepository) UpdateMemberRole(projectID, userID uint64, role models.ProjectRole) error {
	result := r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveMember deletes a membership row
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	result := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MemberRole returns the role of a user in a project, if any
func (r *GormProjectRepository) MemberRole(projectID, userID uint64) (models.ProjectRole, bool, error) {
	member, err := r.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return member.Role, true, nil
}

// CountOwners counts owner memberships of a project
func (r *GormProjectRepository) CountOwners(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND role = ?", projectID, models.RoleOwner).
		Count(&count).Error
	return count, err
}

// SoleOwnedProjectIDs lists projects where the user is the only owner. The
// membership rows of every project the user owns are locked.
func (r *GormProjectRepository) SoleOwnedProjectIDs(userID uint64) ([]uint64, error) {
	owned := r.db.Model(&models.ProjectMember{}).
		Select("project_id").
		Where("user_id = ? AND role = ?", userID, models.RoleOwner)

	var owners []models.ProjectMember
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id IN (?) AND role = ?", owned, models.RoleOwner).
		Order("project_id").
		Find(&owners).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint64]int)
	for _, m := range owners {
		counts[m.ProjectID]++
	}

	ids := []uint64{}
	for _, m := range owners {
		if m.UserID == userID && counts[m.ProjectID] == 1 {
			ids = append(ids, m.ProjectID)
		}
	}
	return ids, nil
}
