package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

func (r *GormTagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

func (r *GormTagRepository) FindByID(id uint64) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *GormTagRepository) ListByOwner(ownerID uint64) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Where("owner_id = ?", ownerID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindOwned returns the tags among ids that belong to ownerID
func (r *GormTagRepository) FindOwned(ownerID uint64, ids []uint64) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormTagRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Tag{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormTagRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, id).Error
	})
}

// GormCategoryRepository is a GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *GormCategoryRepository) FindByID(id uint64) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormCategoryRepository) ListByOwner(ownerID uint64) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Where("owner_id = ?", ownerID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormCategoryRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a category and detaches its projects
func (r *GormCategoryRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}
