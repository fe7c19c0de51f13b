package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
)

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

func (u Upload) name() (string, error) {
	name := strings.TrimSpace(filepath.Base(u.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", invalid("file", "is required")
	}
	if len([]rune(name)) > 255 {
		return "", invalid("file", "name is too long")
	}
	return name, nil
}

// NoteInput represents a note create or update; nil leaves a field as is.
type NoteInput struct {
	Title   *string
	Content *string
}

// DocumentInput represents the metadata of an uploaded document.
type DocumentInput struct {
	Title       string
	Description string
	File        Upload
}

// putBlob stores the upload and maps the size limit to a validation error.
func putBlob(ctx context.Context, blobs storage.BlobStore, body io.Reader) (storage.Object, error) {
	if blobs == nil {
		return storage.Object{}, errors.New("file storage is not configured")
	}
	obj, err := blobs.Put(ctx, body)
	if errors.Is(err, storage.ErrBlobTooLarge) {
		return storage.Object{}, invalid("file", "is too large")
	}
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to store file: %w", err)
	}
	return obj, nil
}

func viewProject(tx *repository.Repositories, actor *models.User, projectID uint64) (*models.Project, error) {
	project, err := tx.Projects.FindByID(projectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionView); err != nil {
		return nil, err
	}
	return project, nil
}

// ListNotes returns the project's notes, most recently edited first.
func (s *ProjectService) ListNotes(ctx context.Context, actor *models.User, projectID uint64) ([]models.ProjectNote, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := viewProject(repos, actor, projectID); err != nil {
		return nil, err
	}
	notes, err := repos.Notes.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// CreateNote adds a note authored by actor.
func (s *ProjectService) CreateNote(ctx context.Context, actor *models.User, projectID uint64, input NoteInput) (*models.ProjectNote, error) {
	if input.Title == nil {
		return nil, invalid("title", "is required")
	}
	title, err := requiredName("title", *input.Title, 255)
	if err != nil {
		return nil, err
	}
	content := ""
	if input.Content != nil {
		content = *input.Content
	}

	authorID := actor.ID
	note := &models.ProjectNote{
		ProjectID:   projectID,
		Title:       title,
		Content:     content,
		CreatedByID: &authorID,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.NoteResource(project, &authorID), authz.ActionContribute); err != nil {
			return err
		}
		if err := tx.Notes.Create(note); err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	note.CreatedBy = actor
	return note, nil
}

// UpdateNote edits a note. Only its author may edit it.
func (s *ProjectService) UpdateNote(ctx context.Context, actor *models.User, projectID, noteID uint64, input NoteInput) (*models.ProjectNote, error) {
	var note *models.ProjectNote
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		existing, err := tx.Notes.FindByID(projectID, noteID)
		if err != nil {
			return notFound(err, ErrNoteNotFound, "find note")
		}
		if err := engine(tx).Require(actor, authz.NoteResource(project, existing.CreatedByID), authz.ActionUpdate); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Title != nil {
			title, err := requiredName("title", *input.Title, 255)
			if err != nil {
				return err
			}
			fields["title"] = title
		}
		if input.Content != nil {
			fields["content"] = *input.Content
		}
		if len(fields) > 0 {
			if err := tx.Notes.Update(noteID, fields); err != nil {
				return fmt.Errorf("failed to update note: %w", err)
			}
		}
		note, err = tx.Notes.FindByID(projectID, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes a note. Its author or a project moderator may do so.
func (s *ProjectService) DeleteNote(ctx context.Context, actor *models.User, projectID, noteID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		note, err := tx.Notes.FindByID(projectID, noteID)
		if err != nil {
			return notFound(err, ErrNoteNotFound, "find note")
		}
		if err := engine(tx).Require(actor, authz.NoteResource(project, note.CreatedByID), authz.ActionDelete); err != nil {
			return err
		}
		if err := tx.Notes.Delete(noteID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return nil
	})
}

// ListDocuments returns the project's documents, newest first.
func (s *ProjectService) ListDocuments(ctx context.Context, actor *models.User, projectID uint64) ([]models.ProjectDocument, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := viewProject(repos, actor, projectID); err != nil {
		return nil, err
	}
	docs, err := repos.Documents.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// UploadDocument stores the file and records it on the project. The file is
// written before the row; if the row cannot be written the file is removed.
func (s *ProjectService) UploadDocument(ctx context.Context, actor *models.User, projectID uint64, input DocumentInput) (*models.ProjectDocument, error) {
	fileName, err := input.File.name()
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fileName
	}
	if title, err = requiredName("title", title, 255); err != nil {
		return nil, err
	}

	uploaderID := actor.ID
	repos := s.repos.WithContext(ctx)
	project, err := viewProject(repos, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine(repos).Require(actor, authz.DocumentResource(project, &uploaderID), authz.ActionContribute); err != nil {
		return nil, err
	}

	obj, err := putBlob(ctx, s.blobs, input.File.Body)
	if err != nil {
		return nil, err
	}

	doc := &models.ProjectDocument{
		ProjectID:    projectID,
		Title:        title,
		Description:  input.Description,
		FileName:     fileName,
		ContentType:  input.File.ContentType,
		Size:         obj.Size,
		StorageKey:   obj.Key,
		Checksum:     obj.Checksum,
		UploadedByID: &uploaderID,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.DocumentResource(project, &uploaderID), authz.ActionContribute); err != nil {
			return err
		}
		if err := tx.Documents.Create(doc); err != nil {
			return fmt.Errorf("failed to record document: %w", err)
		}
		return nil
	})
	if err != nil {
		removeBlobs(context.WithoutCancel(ctx), s.blobs, []string{obj.Key})
		return nil, err
	}

	slog.InfoContext(ctx, "document uploaded", "project_id", projectID, "document_id", doc.ID, "size", doc.Size)
	doc.UploadedBy = actor
	return doc, nil
}

// OpenDocument returns the document and a reader over its contents. The
// caller closes the reader.
func (s *ProjectService) OpenDocument(ctx context.Context, actor *models.User, projectID, documentID uint64) (*models.ProjectDocument, io.ReadCloser, error) {
	repos := s.repos.WithContext(ctx)
	project, err := viewProject(repos, actor, projectID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := repos.Documents.FindByID(projectID, documentID)
	if err != nil {
		return nil, nil, notFound(err, ErrDocumentNotFound, "find document")
	}
	if err := engine(repos).Require(actor, authz.DocumentResource(project, doc.UploadedByID), authz.ActionView); err != nil {
		return nil, nil, err
	}
	if s.blobs == nil {
		return nil, nil, errors.New("file storage is not configured")
	}

	body, err := s.blobs.Open(ctx, doc.StorageKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, body, nil
}

// DeleteDocument removes the document row and then its file.
func (s *ProjectService) DeleteDocument(ctx context.Context, actor *models.User, projectID, documentID uint64) error {
	var key string
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		doc, err := tx.Documents.FindByID(projectID, documentID)
		if err != nil {
			return notFound(err, ErrDocumentNotFound, "find document")
		}
		if err := engine(tx).Require(actor, authz.DocumentResource(project, doc.UploadedByID), authz.ActionDelete); err != nil {
			return err
		}
		if err := tx.Documents.Delete(documentID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		key = doc.StorageKey
		return nil
	})
	if err != nil {
		return err
	}
	removeBlobs(ctx, s.blobs, []string{key})
	return nil
}
