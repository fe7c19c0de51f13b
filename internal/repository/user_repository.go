package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user; a non-nil Settings is inserted in the same statement batch
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64, preload ...string) (*models.User, error) {
	var user models.User
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByFirebaseUID finds a user by identity-provider subject
func (r *GormUserRepository) FindByFirebaseUID(uid string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds the oldest user with exactly this email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).Order("id").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies a partial update to a user
func (r *GormUserRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// FindSettings returns the settings row of a user
func (r *GormUserRepository) FindSettings(userID uint64) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := r.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies a partial update to a user's settings
func (r *GormUserRepository) UpdateSettings(userID uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.UserSettings{}).Where("user_id = ?", userID).Updates(fields).Error
}

// Delete removes a user. Authorship references are nulled and owned rows are
// deleted explicitly so drivers without FK enforcement end up consistent.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		detach := []struct {
			model  interface{}
			column string
		}{
			{&models.Task{}, "creator_id"},
			{&models.Task{}, "assignee_id"},
			{&models.Project{}, "creator_id"},
			{&models.TaskComment{}, "author_id"},
			{&models.TaskAttachment{}, "uploader_id"},
			{&models.ProjectNote{}, "created_by_id"},
			{&models.ProjectDocument{}, "uploaded_by_id"},
		}
		for _, d := range detach {
			if err := tx.Model(d.model).Where(d.column+" = ?", id).Update(d.column, nil).Error; err != nil {
				return err
			}
		}

		ownedCategories := tx.Model(&models.Category{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Model(&models.Project{}).Where("category_id IN (?)", ownedCategories).Update("category_id", nil).Error; err != nil {
			return err
		}
		ownedTags := tx.Model(&models.Tag{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id IN (?)", ownedTags).Error; err != nil {
			return err
		}

		owned := []struct {
			model  interface{}
			column string
		}{
			{&models.Tag{}, "owner_id"},
			{&models.Category{}, "owner_id"},
			{&models.ProjectMember{}, "user_id"},
			{&models.UserSettings{}, "user_id"},
		}
		for _, o := range owned {
			if err := tx.Where(o.column+" = ?", id).Delete(o.model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, id).Error
	})
}
