package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// NoteDTO represents a project note in API responses
type NoteDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy *UserDTO  `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteRequest is the body of note create and update requests
type NoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (r NoteRequest) Input() services.NoteInput {
	return services.NoteInput{Title: r.Title, Content: r.Content}
}

// DocumentDTO represents an uploaded project document
type DocumentDTO struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	UploadedBy  *UserDTO  `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// TagRequest is the body of tag create and update requests
type TagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (r TagRequest) Input() services.TagInput {
	return services.TagInput{Name: r.Name, Color: r.Color}
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	Author    *UserDTO  `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentRequest is the body of comment create and update requests
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AttachmentDTO represents a task attachment in API responses
type AttachmentDTO struct {
	ID          uint64    `json:"id"`
	TaskID      uint64    `json:"task_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	Uploader    *UserDTO  `json:"uploader,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// TranscriptionDTO is the result of a voice-to-text request
type TranscriptionDTO struct {
	Text string `json:"text"`
}

// ToNoteDTO converts a ProjectNote model to NoteDTO
func ToNoteDTO(note models.ProjectNote) NoteDTO {
	return NoteDTO{
		ID:        note.ID,
		ProjectID: note.ProjectID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedBy: toUserPtr(note.CreatedBy),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// ToDocumentDTO converts a ProjectDocument model to DocumentDTO
func ToDocumentDTO(doc models.ProjectDocument) DocumentDTO {
	return DocumentDTO{
		ID:          doc.ID,
		ProjectID:   doc.ProjectID,
		Title:       doc.Title,
		Description: doc.Description,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		Checksum:    doc.Checksum,
		UploadedBy:  toUserPtr(doc.UploadedBy),
		UploadedAt:  doc.UploadedAt,
	}
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Author:    toUserPtr(comment.Author),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// ToAttachmentDTO converts a TaskAttachment model to AttachmentDTO
func ToAttachmentDTO(attachment models.TaskAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:          attachment.ID,
		TaskID:      attachment.TaskID,
		Name:        attachment.Name,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		Checksum:    attachment.Checksum,
		Uploader:    toUserPtr(attachment.Uploader),
		UploadedAt:  attachment.UploadedAt,
	}
}

// mapSlice converts each element of items with convert.
func mapSlice[M any, D any](items []M, convert func(M) D) []D {
	out := make([]D, len(items))
	for i, item := range items {
		out[i] = convert(item)
	}
	return out
}

func ToNoteDTOs(notes []models.ProjectNote) []NoteDTO {
	return mapSlice(notes, ToNoteDTO)
}

func ToDocumentDTOs(docs []models.ProjectDocument) []DocumentDTO {
	return mapSlice(docs, ToDocumentDTO)
}

func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	return mapSlice(comments, ToCommentDTO)
}

func ToAttachmentDTOs(attachments []models.TaskAttachment) []AttachmentDTO {
	return mapSlice(attachments, ToAttachmentDTO)
}

func ToTagDTOs(tags []models.Tag) []TagDTO {
	return mapSlice(tags, ToTagDTO)
}

func ToCategoryDTOs(categories []models.Category) []CategoryDTO {
	return mapSlice(categories, ToCategoryDTO)
}
