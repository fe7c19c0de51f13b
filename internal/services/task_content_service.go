package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
)

// RecurrenceInput describes how a task repeats
type RecurrenceInput struct {
	Frequency  models.RecurrenceFrequency
	Interval   int
	Monday     bool
	Tuesday    bool
	Wednesday  bool
	Thursday   bool
	Friday     bool
	Saturday   bool
	Sunday     bool
	DayOfMonth *int
	StartDate  time.Time
	EndDate    *time.Time
}

func (in RecurrenceInput) pattern(taskID uint64) (*models.RecurringTaskPattern, error) {
	if !in.Frequency.Valid() {
		return nil, invalid("frequency", "must be daily, weekly, monthly or yearly")
	}
	if in.Interval == 0 {
		in.Interval = 1
	}
	if in.Interval < 1 {
		return nil, invalid("interval", "must be at least 1")
	}
	if in.StartDate.IsZero() {
		return nil, invalid("start_date", "is required")
	}
	start := in.StartDate.UTC()
	if err := validRange("end_date", &start, in.EndDate); err != nil {
		return nil, err
	}
	if in.DayOfMonth != nil && (*in.DayOfMonth < 1 || *in.DayOfMonth > 31) {
		return nil, invalid("day_of_month", "must be between 1 and 31")
	}

	p := &models.RecurringTaskPattern{
		TaskID:     taskID,
		Frequency:  in.Frequency,
		Interval:   in.Interval,
		Monday:     in.Monday,
		Tuesday:    in.Tuesday,
		Wednesday:  in.Wednesday,
		Thursday:   in.Thursday,
		Friday:     in.Friday,
		Saturday:   in.Saturday,
		Sunday:     in.Sunday,
		DayOfMonth: in.DayOfMonth,
		StartDate:  start,
		EndDate:    utcPtr(in.EndDate),
	}
	if p.Frequency == models.RecurrenceWeekly && len(p.Weekdays()) == 0 {
		return nil, invalid("weekdays", "weekly recurrence needs at least one day")
	}
	return p, nil
}

// visibleTask loads a task and requires action on it.
func visibleTask(tx *repository.Repositories, actor *models.User, taskID uint64, action authz.Action, lock bool) (*models.Task, error) {
	task, err := findTask(tx, taskID, lock)
	if err != nil {
		return nil, err
	}
	if err := engine(tx).Require(actor, authz.TaskResource(task), action); err != nil {
		return nil, err
	}
	return task, nil
}

// SetTags replaces the task's tags with actor's tags named by tagIDs
func (s *TaskService) SetTags(ctx context.Context, actor *models.User, taskID uint64, tagIDs []uint64) (*models.Task, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := visibleTask(tx, actor, taskID, authz.ActionUpdate, true)
		if err != nil {
			return err
		}
		tags, err := ownedTags(tx, actor, tagIDs)
		if err != nil {
			return err
		}
		if err := tx.Tasks.ReplaceTags(task, tags); err != nil {
			return fmt.Errorf("failed to tag task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTask(ctx, actor, taskID)
}

// GetRecurrence returns the task's recurrence pattern
func (s *TaskService) GetRecurrence(ctx context.Context, actor *models.User, taskID uint64) (*models.RecurringTaskPattern, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := visibleTask(repos, actor, taskID, authz.ActionView, false); err != nil {
		return nil, err
	}
	pattern, err := repos.Tasks.FindRecurrence(taskID)
	if err != nil {
		return nil, notFound(err, ErrRecurrenceNotFound, "find recurrence")
	}
	return pattern, nil
}

// SetRecurrence creates or replaces the task's recurrence pattern
func (s *TaskService) SetRecurrence(ctx context.Context, actor *models.User, taskID uint64, input RecurrenceInput) (*models.RecurringTaskPattern, error) {
	pattern, err := input.pattern(taskID)
	if err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := visibleTask(tx, actor, taskID, authz.ActionUpdate, true); err != nil {
			return err
		}
		if err := tx.Tasks.SaveRecurrence(pattern); err != nil {
			return fmt.Errorf("failed to save recurrence: %w", err)
		}
		pattern, err = tx.Tasks.FindRecurrence(taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pattern, nil
}

// DeleteRecurrence stops the task from repeating
func (s *TaskService) DeleteRecurrence(ctx context.Context, actor *models.User, taskID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := visibleTask(tx, actor, taskID, authz.ActionUpdate, true); err != nil {
			return err
		}
		if err := tx.Tasks.DeleteRecurrence(taskID); err != nil {
			return notFound(err, ErrRecurrenceNotFound, "delete recurrence")
		}
		return nil
	})
}

// ListComments returns the task's comments, oldest first
func (s *TaskService) ListComments(ctx context.Context, actor *models.User, taskID uint64) ([]models.TaskComment, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := visibleTask(repos, actor, taskID, authz.ActionView, false); err != nil {
		return nil, err
	}
	comments, err := repos.Comments.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func commentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("content", "is required")
	}
	return content, nil
}

// CreateComment adds a comment by actor to a visible task
func (s *TaskService) CreateComment(ctx context.Context, actor *models.User, taskID uint64, content string) (*models.TaskComment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	comment := &models.TaskComment{TaskID: taskID, AuthorID: &authorID, Content: content}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.CommentResource(task, &authorID), authz.ActionContribute); err != nil {
			return err
		}
		if err := tx.Comments.Create(comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	comment.Author = actor
	return comment, nil
}

// UpdateComment edits a comment. Only its author may edit it.
func (s *TaskService) UpdateComment(ctx context.Context, actor *models.User, taskID, commentID uint64, content string) (*models.TaskComment, error) {
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}

	var comment *models.TaskComment
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		existing, err := tx.Comments.FindByID(taskID, commentID)
		if err != nil {
			return notFound(err, ErrCommentNotFound, "find comment")
		}
		if err := engine(tx).Require(actor, authz.CommentResource(task, existing.AuthorID), authz.ActionUpdate); err != nil {
			return err
		}
		if err := tx.Comments.Update(commentID, content); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		comment, err = tx.Comments.FindByID(taskID, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment. Its author or a project moderator may do so.
func (s *TaskService) DeleteComment(ctx context.Context, actor *models.User, taskID, commentID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		comment, err := tx.Comments.FindByID(taskID, commentID)
		if err != nil {
			return notFound(err, ErrCommentNotFound, "find comment")
		}
		if err := engine(tx).Require(actor, authz.CommentResource(task, comment.AuthorID), authz.ActionDelete); err != nil {
			return err
		}
		if err := tx.Comments.Delete(commentID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
}

// ListAttachments returns the task's attachments, oldest first
func (s *TaskService) ListAttachments(ctx context.Context, actor *models.User, taskID uint64) ([]models.TaskAttachment, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := visibleTask(repos, actor, taskID, authz.ActionView, false); err != nil {
		return nil, err
	}
	attachments, err := repos.Attachments.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// UploadAttachment stores the file and records it on the task. The file is
// removed again if the row cannot be written.
func (s *TaskService) UploadAttachment(ctx context.Context, actor *models.User, taskID uint64, file Upload) (*models.TaskAttachment, error) {
	name, err := file.name()
	if err != nil {
		return nil, err
	}

	uploaderID := actor.ID
	repos := s.repos.WithContext(ctx)
	task, err := findTask(repos, taskID, false)
	if err != nil {
		return nil, err
	}
	if err := engine(repos).Require(actor, authz.AttachmentResource(task, &uploaderID), authz.ActionContribute); err != nil {
		return nil, err
	}

	obj, err := putBlob(ctx, s.blobs, file.Body)
	if err != nil {
		return nil, err
	}

	attachment := &models.TaskAttachment{
		TaskID:      taskID,
		UploaderID:  &uploaderID,
		Name:        name,
		ContentType: file.ContentType,
		Size:        obj.Size,
		StorageKey:  obj.Key,
		Checksum:    obj.Checksum,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.AttachmentResource(task, &uploaderID), authz.ActionContribute); err != nil {
			return err
		}
		if err := tx.Attachments.Create(attachment); err != nil {
			return fmt.Errorf("failed to record attachment: %w", err)
		}
		return nil
	})
	if err != nil {
		removeBlobs(context.WithoutCancel(ctx), s.blobs, []string{obj.Key})
		return nil, err
	}

	slog.InfoContext(ctx, "attachment uploaded", "task_id", taskID, "attachment_id", attachment.ID, "size", attachment.Size)
	attachment.Uploader = actor
	return attachment, nil
}

// OpenAttachment returns the attachment and a reader over its contents. The
// caller closes the reader.
func (s *TaskService) OpenAttachment(ctx context.Context, actor *models.User, taskID, attachmentID uint64) (*models.TaskAttachment, io.ReadCloser, error) {
	repos := s.repos.WithContext(ctx)
	task, err := visibleTask(repos, actor, taskID, authz.ActionView, false)
	if err != nil {
		return nil, nil, err
	}
	attachment, err := repos.Attachments.FindByID(taskID, attachmentID)
	if err != nil {
		return nil, nil, notFound(err, ErrAttachmentNotFound, "find attachment")
	}
	if err := engine(repos).Require(actor, authz.AttachmentResource(task, attachment.UploaderID), authz.ActionView); err != nil {
		return nil, nil, err
	}
	if s.blobs == nil {
		return nil, nil, errors.New("file storage is not configured")
	}

	body, err := s.blobs.Open(ctx, attachment.StorageKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return attachment, body, nil
}

// DeleteAttachment removes the attachment row and then its file
func (s *TaskService) DeleteAttachment(ctx context.Context, actor *models.User, taskID, attachmentID uint64) error {
	var key string
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		task, err := findTask(tx, taskID, true)
		if err != nil {
			return err
		}
		attachment, err := tx.Attachments.FindByID(taskID, attachmentID)
		if err != nil {
			return notFound(err, ErrAttachmentNotFound, "find attachment")
		}
		if err := engine(tx).Require(actor, authz.AttachmentResource(task, attachment.UploaderID), authz.ActionDelete); err != nil {
			return err
		}
		if err := tx.Attachments.Delete(attachmentID); err != nil {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
		key = attachment.StorageKey
		return nil
	})
	if err != nil {
		return err
	}
	removeBlobs(ctx, s.blobs, []string{key})
	return nil
}
