package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.TaskComment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

func (r *GormCommentRepository) FindByID(taskID, id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.Preload("Author").
		Where("task_id = ? AND id = ?", taskID, id).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) ListByTask(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *GormCommentRepository) Update(id uint64, content string) error {
	return r.db.Model(&models.TaskComment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *GormCommentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskComment{}, id).Error
}

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(attachment *models.TaskAttachment) error {
	return r.db.Omit(clause.Associations).Create(attachment).Error
}

func (r *GormAttachmentRepository) FindByID(taskID, id uint64) (*models.TaskAttachment, error) {
	var attachment models.TaskAttachment
	if err := r.db.Where("task_id = ? AND id = ?", taskID, id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *GormAttachmentRepository) ListByTask(taskID uint64) ([]models.TaskAttachment, error) {
	var attachments []models.TaskAttachment
	if err := r.db.Preload("Uploader").
		Where("task_id = ?", taskID).
		Order("uploaded_at ASC").
		Order("id ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *GormAttachmentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskAttachment{}, id).Error
}

func (r *GormAttachmentRepository) StorageKeysByTask(taskID uint64) ([]string, error) {
	var keys []string
	err := r.db.Model(&models.TaskAttachment{}).Where("task_id = ?", taskID).Pluck("storage_key", &keys).Error
	return keys, err
}

func (r *GormAttachmentRepository) StorageKeysByProject(projectID uint64) ([]string, error) {
	var keys []string
	projectTasks := r.db.Model(&models.Task{}).Select("id").Where("project_id = ?", projectID)
	err := r.db.Model(&models.TaskAttachment{}).Where("task_id IN (?)", projectTasks).Pluck("storage_key", &keys).Error
	return keys, err
}

// GormNoteRepository is a GORM implementation of NoteRepository
type GormNoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &GormNoteRepository{db: db}
}

func (r *GormNoteRepository) Create(note *models.ProjectNote) error {
	return r.db.Omit(clause.Associations).Create(note).Error
}

func (r *GormNoteRepository) FindByID(projectID, id uint64) (*models.ProjectNote, error) {
	var note models.ProjectNote
	if err := r.db.Preload("CreatedBy").
		Where("project_id = ? AND id = ?", projectID, id).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *GormNoteRepository) ListByProject(projectID uint64) ([]models.ProjectNote, error) {
	var notes []models.ProjectNote
	if err := r.db.Preload("CreatedBy").
		Where("project_id = ?", projectID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *GormNoteRepository) Update(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.ProjectNote{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormNoteRepository) Delete(id uint64) error {
	return r.db.Delete(&models.ProjectNote{}, id).Error
}

// GormDocumentRepository is a GORM implementation of DocumentRepository
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) Create(doc *models.ProjectDocument) error {
	return r.db.Omit(clause.Associations).Create(doc).Error
}

func (r *GormDocumentRepository) FindByID(projectID, id uint64) (*models.ProjectDocument, error) {
	var doc models.ProjectDocument
	if err := r.db.Where("project_id = ? AND id = ?", projectID, id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *GormDocumentRepository) ListByProject(projectID uint64) ([]models.ProjectDocument, error) {
	var docs []models.ProjectDocument
	if err := r.db.Preload("UploadedBy").
		Where("project_id = ?", projectID).
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *GormDocumentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.ProjectDocument{}, id).Error
}
