package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// Create creates a board together with its columns
func (r *GormBoardRepository) Create(board *models.KanbanBoard) error {
	return r.db.Create(board).Error
}

func orderedColumns(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("id ASC")
}

// FindByProjectID finds the board of a project with ordered columns
func (r *GormBoardRepository) FindByProjectID(projectID uint64) (*models.KanbanBoard, error) {
	var board models.KanbanBoard
	if err := r.db.Preload("Columns", orderedColumns).
		Where("project_id = ?", projectID).
		First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// FindColumn finds a column on a board
func (r *GormBoardRepository) FindColumn(boardID, columnID uint64) (*models.KanbanColumn, error) {
	var column models.KanbanColumn
	if err := r.db.Where("board_id = ? AND id = ?", boardID, columnID).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ColumnInProject reports whether a column belongs to the project's board
func (r *GormBoardRepository) ColumnInProject(columnID, projectID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.KanbanColumn{}).
		Joins("JOIN kanban_boards ON kanban_boards.id = kanban_columns.board_id").
		Where("kanban_columns.id = ? AND kanban_boards.project_id = ?", columnID, projectID).
		Count(&count).Error
	return count > 0, err
}

// NextColumnOrder returns the order value after the board's last column
func (r *GormBoardRepository) NextColumnOrder(boardID uint64) (int, error) {
	var next int
	err := r.db.Model(&models.KanbanColumn{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("board_id = ?", boardID).
		Scan(&next).Error
	return next, err
}

// CreateColumn adds a column
func (r *GormBoardRepository) CreateColumn(column *models.KanbanColumn) error {
	return r.db.Create(column).Error
}

// UpdateColumn applies a partial update to a column
func (r *GormBoardRepository) UpdateColumn(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.KanbanColumn{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteColumn removes a column and detaches its tasks
func (r *GormBoardRepository) DeleteColumn(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("column_id = ?", id).Update("column_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.KanbanColumn{}, id).Error
	})
}
