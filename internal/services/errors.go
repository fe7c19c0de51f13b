package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/authz"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = authz.ErrNotFound
	ErrForbidden          = authz.ErrForbidden
	ErrLastOwnerProtected = authz.ErrLastOwnerProtected

	ErrUserNotFound       error = &notFoundError{resource: "user"}
	ErrProjectNotFound    error = &notFoundError{resource: "project"}
	ErrMemberNotFound     error = &notFoundError{resource: "member"}
	ErrBoardNotFound      error = &notFoundError{resource: "board"}
	ErrColumnNotFound     error = &notFoundError{resource: "column"}
	ErrTaskNotFound       error = &notFoundError{resource: "task"}
	ErrCommentNotFound    error = &notFoundError{resource: "comment"}
	ErrAttachmentNotFound error = &notFoundError{resource: "attachment"}
	ErrNoteNotFound       error = &notFoundError{resource: "note"}
	ErrDocumentNotFound   error = &notFoundError{resource: "document"}
	ErrTagNotFound        error = &notFoundError{resource: "tag"}
	ErrCategoryNotFound   error = &notFoundError{resource: "category"}
	ErrRecurrenceNotFound error = &notFoundError{resource: "recurrence"}

	ErrAlreadyMember = errors.New("user is already a member of this project")
	ErrDuplicateName = errors.New("name already in use")
	ErrSoleOwner     = errors.New("account is the sole owner of one or more projects")

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// notFoundError names a missing resource and matches ErrNotFound.
type notFoundError struct {
	resource string
}

func (e *notFoundError) Error() string {
	return e.resource + " not found"
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// notFound maps gorm.ErrRecordNotFound to the given sentinel and wraps
// anything else as an infrastructure failure.
func notFound(err error, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
