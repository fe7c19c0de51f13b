package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
	"gorm.io/gorm"
)

// ProjectService provides business logic for projects, their boards and
// their notes and documents.
type ProjectService struct {
	repos *repository.Repositories
	blobs storage.BlobStore
	now   func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(repos *repository.Repositories, blobs storage.BlobStore) *ProjectService {
	return &ProjectService{
		repos: repos,
		blobs: blobs,
		now:   time.Now,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name            string
	Description     string
	Status          models.ProjectStatus
	StartDate       *time.Time
	EndDate         *time.Time
	CategoryID      *uint64
	Color           string
	Icon            string
	IsPublic        bool
	NextMeetingDate *time.Time
}

// UpdateProjectInput represents a partial project update; nil leaves a field as is.
type UpdateProjectInput struct {
	Name             *string
	Description      *string
	Status           *models.ProjectStatus
	StartDate        *time.Time
	ClearStartDate   bool
	EndDate          *time.Time
	ClearEndDate     bool
	CategoryID       *uint64
	ClearCategory    bool
	Color            *string
	Icon             *string
	IsPublic         *bool
	NextMeetingDate  *time.Time
	ClearNextMeeting bool
}

// ListProjectsInput represents filters for listing projects.
type ListProjectsInput struct {
	Status     *models.ProjectStatus
	CategoryID *uint64
	Search     string
	Page       int
	PageSize   int
}

// ProjectDetail is a project with its members, board and task counters.
type ProjectDetail struct {
	Project   *models.Project
	Role      models.ProjectRole
	Members   []models.ProjectMember
	Board     *models.KanbanBoard
	TaskCount int64
	DoneCount int64
}

// Progress returns the share of done tasks as a whole percentage.
func (d ProjectDetail) Progress() int {
	if d.TaskCount == 0 {
		return 0
	}
	return int(d.DoneCount * 100 / d.TaskCount)
}

// ColumnInput represents a column create or update; nil leaves a field as is.
type ColumnInput struct {
	Name  *string
	Color *string
	Order *int
}

func engine(tx *repository.Repositories) *authz.Engine {
	return authz.New(tx.Projects)
}

func lockProject(tx *repository.Repositories, id uint64) (*models.Project, error) {
	project, err := tx.Projects.LockByID(id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return project, nil
}

func newBoard(projectID uint64) *models.KanbanBoard {
	return &models.KanbanBoard{
		ProjectID: projectID,
		Name:      constants.DefaultBoardName,
		Columns:   models.DefaultKanbanColumns(),
	}
}

// CreateProject creates the project, the creator's owner membership, the
// board and its default columns in one transaction. Any failure, including
// cancellation of ctx, leaves nothing behind.
func (s *ProjectService) CreateProject(ctx context.Context, actor *models.User, input CreateProjectInput) (*ProjectDetail, error) {
	name, err := requiredName("name", input.Name, 255)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusPlanning
	}
	if !input.Status.Valid() {
		return nil, invalid("status", "unknown project status")
	}
	color, err := validColor("color", input.Color, constants.DefaultColor)
	if err != nil {
		return nil, err
	}
	if err := validRange("end_date", input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	creatorID := actor.ID
	project := &models.Project{
		Name:            name,
		Description:     input.Description,
		Status:          input.Status,
		StartDate:       utcPtr(input.StartDate),
		EndDate:         utcPtr(input.EndDate),
		CreatorID:       &creatorID,
		CategoryID:      input.CategoryID,
		Color:           color,
		Icon:            strings.TrimSpace(input.Icon),
		IsPublic:        input.IsPublic,
		NextMeetingDate: utcPtr(input.NextMeetingDate),
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if input.CategoryID != nil {
			if err := ensureOwnCategory(tx, actor, *input.CategoryID); err != nil {
				return err
			}
		}
		if err := tx.Projects.Create(project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		owner := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    actor.ID,
			Role:      models.RoleOwner,
		}
		if err := tx.Projects.AddMember(owner); err != nil {
			return fmt.Errorf("failed to add owner to project: %w", err)
		}
		if err := tx.Boards.Create(newBoard(project.ID)); err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "project created", "project_id", project.ID, "user_id", actor.ID)
	return s.GetProject(ctx, actor, project.ID)
}

func ensureOwnCategory(tx *repository.Repositories, actor *models.User, categoryID uint64) error {
	category, err := tx.Categories.FindByID(categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("category_id", "unknown category")
		}
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category.OwnerID != actor.ID {
		return invalid("category_id", "unknown category")
	}
	return nil
}

// ListProjects returns projects the actor created or is a member of.
func (s *ProjectService) ListProjects(ctx context.Context, actor *models.User, input ListProjectsInput) ([]models.Project, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, invalid("status", "unknown project status")
	}

	projects, total, err := s.repos.WithContext(ctx).Projects.List(repository.ProjectFilter{
		VisibleTo:  actor.ID,
		Status:     input.Status,
		CategoryID: input.CategoryID,
		Search:     strings.TrimSpace(input.Search),
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// GetProject returns a visible project with members, board and counters.
func (s *ProjectService) GetProject(ctx context.Context, actor *models.User, projectID uint64) (*ProjectDetail, error) {
	repos := s.repos.WithContext(ctx)

	project, err := repos.Projects.FindByID(projectID, "Creator", "Category")
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	if err := engine(repos).Require(actor, authz.ProjectResource(project), authz.ActionView); err != nil {
		return nil, err
	}

	detail := &ProjectDetail{Project: project}
	if role, ok, err := repos.Projects.MemberRole(projectID, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to look up role: %w", err)
	} else if ok {
		detail.Role = role
	}
	if detail.Members, err = repos.Projects.ListMembers(projectID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	board, err := repos.Boards.FindByProjectID(projectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	detail.Board = board
	if detail.TaskCount, detail.DoneCount, err = repos.Projects.TaskStats(projectID); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	return detail, nil
}

// UpdateProject applies a partial update. Any status transition is allowed.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *models.User, projectID uint64, input UpdateProjectInput) (*ProjectDetail, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionUpdate); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			name, err := requiredName("name", *input.Name, 255)
			if err != nil {
				return err
			}
			fields["name"] = name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return invalid("status", "unknown project status")
			}
			fields["status"] = *input.Status
		}

		start, end := project.StartDate, project.EndDate
		if input.ClearStartDate {
			start = nil
			fields["start_date"] = nil
		} else if input.StartDate != nil {
			start = utcPtr(input.StartDate)
			fields["start_date"] = *start
		}
		if input.ClearEndDate {
			end = nil
			fields["end_date"] = nil
		} else if input.EndDate != nil {
			end = utcPtr(input.EndDate)
			fields["end_date"] = *end
		}
		if err := validRange("end_date", start, end); err != nil {
			return err
		}

		if input.ClearCategory {
			fields["category_id"] = nil
		} else if input.CategoryID != nil {
			if err := ensureOwnCategory(tx, actor, *input.CategoryID); err != nil {
				return err
			}
			fields["category_id"] = *input.CategoryID
		}
		if input.Color != nil {
			color, err := validColor("color", *input.Color, constants.DefaultColor)
			if err != nil {
				return err
			}
			fields["color"] = color
		}
		if input.Icon != nil {
			fields["icon"] = strings.TrimSpace(*input.Icon)
		}
		if input.IsPublic != nil {
			fields["is_public"] = *input.IsPublic
		}
		if input.ClearNextMeeting {
			fields["next_meeting_date"] = nil
		} else if input.NextMeetingDate != nil {
			fields["next_meeting_date"] = input.NextMeetingDate.UTC()
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.Projects.Update(projectID, fields); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, actor, projectID)
}

// DeleteProject removes the project and everything it owns. Stored files are
// removed after the transaction commits.
func (s *ProjectService) DeleteProject(ctx context.Context, actor *models.User, projectID uint64) error {
	var blobKeys []string
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionDelete); err != nil {
			return err
		}

		attachmentKeys, err := tx.Attachments.StorageKeysByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}
		docs, err := tx.Documents.ListByProject(projectID)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		blobKeys = attachmentKeys
		for _, doc := range docs {
			blobKeys = append(blobKeys, doc.StorageKey)
		}

		if err := tx.Projects.Delete(projectID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, blobKeys)
	slog.InfoContext(ctx, "project deleted", "project_id", projectID, "user_id", actor.ID)
	return nil
}

// removeBlobs deletes stored files after their rows are gone. Failures are
// logged and leave orphaned files behind.
func removeBlobs(ctx context.Context, blobs storage.BlobStore, keys []string) {
	if blobs == nil {
		return
	}
	for _, key := range keys {
		if err := blobs.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "failed to remove blob", "key", key, "error", err)
		}
	}
}

// GetOrCreateBoard returns the project's board, creating it with the default
// columns when missing. The project row lock serializes first access and
// the unique board index catches anything that slips past it.
func (s *ProjectService) GetOrCreateBoard(ctx context.Context, actor *models.User, projectID uint64) (*models.KanbanBoard, error) {
	var board *models.KanbanBoard
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionView); err != nil {
			return err
		}
		board, err = ensureBoard(tx, projectID)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		board, err = s.repos.WithContext(ctx).Boards.FindByProjectID(projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read board: %w", err)
		}
		return board, nil
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

func ensureBoard(tx *repository.Repositories, projectID uint64) (*models.KanbanBoard, error) {
	board, err := tx.Boards.FindByProjectID(projectID)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	board = newBoard(projectID)
	if err := tx.Boards.Create(board); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	slog.Info("board created", "project_id", projectID, "board_id", board.ID)
	return board, nil
}

// boardForEdit locks the project, checks board edit rights and returns the board.
func boardForEdit(tx *repository.Repositories, actor *models.User, projectID uint64) (*models.KanbanBoard, error) {
	project, err := lockProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionEditBoard); err != nil {
		return nil, err
	}
	return ensureBoard(tx, projectID)
}

// CreateColumn appends a column to the project's board unless an order is given.
func (s *ProjectService) CreateColumn(ctx context.Context, actor *models.User, projectID uint64, input ColumnInput) (*models.KanbanColumn, error) {
	if input.Name == nil {
		return nil, invalid("name", "is required")
	}
	name, err := requiredName("name", *input.Name, 100)
	if err != nil {
		return nil, err
	}
	color := ""
	if input.Color != nil {
		color = *input.Color
	}
	if color, err = validColor("color", color, constants.DefaultColor); err != nil {
		return nil, err
	}
	if input.Order != nil && *input.Order < 0 {
		return nil, invalid("order", "must not be negative")
	}

	column := &models.KanbanColumn{Name: name, Color: color}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		board, err := boardForEdit(tx, actor, projectID)
		if err != nil {
			return err
		}
		column.BoardID = board.ID
		if input.Order != nil {
			column.Order = *input.Order
		} else if column.Order, err = tx.Boards.NextColumnOrder(board.ID); err != nil {
			return fmt.Errorf("failed to compute column order: %w", err)
		}
		if err := tx.Boards.CreateColumn(column); err != nil {
			return fmt.Errorf("failed to create column: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// UpdateColumn renames, recolors or reorders a column.
func (s *ProjectService) UpdateColumn(ctx context.Context, actor *models.User, projectID, columnID uint64, input ColumnInput) (*models.KanbanColumn, error) {
	var column *models.KanbanColumn
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		board, err := boardForEdit(tx, actor, projectID)
		if err != nil {
			return err
		}
		if _, err := tx.Boards.FindColumn(board.ID, columnID); err != nil {
			return notFound(err, ErrColumnNotFound, "find column")
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			name, err := requiredName("name", *input.Name, 100)
			if err != nil {
				return err
			}
			fields["name"] = name
		}
		if input.Color != nil {
			color, err := validColor("color", *input.Color, constants.DefaultColor)
			if err != nil {
				return err
			}
			fields["color"] = color
		}
		if input.Order != nil {
			if *input.Order < 0 {
				return invalid("order", "must not be negative")
			}
			fields["position"] = *input.Order
		}
		if len(fields) > 0 {
			if err := tx.Boards.UpdateColumn(columnID, fields); err != nil {
				return fmt.Errorf("failed to update column: %w", err)
			}
		}

		column, err = tx.Boards.FindColumn(board.ID, columnID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// DeleteColumn removes a column; its tasks stay on the project without a column.
func (s *ProjectService) DeleteColumn(ctx context.Context, actor *models.User, projectID, columnID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		board, err := boardForEdit(tx, actor, projectID)
		if err != nil {
			return err
		}
		if _, err := tx.Boards.FindColumn(board.ID, columnID); err != nil {
			return notFound(err, ErrColumnNotFound, "find column")
		}
		if err := tx.Boards.DeleteColumn(columnID); err != nil {
			return fmt.Errorf("failed to delete column: %w", err)
		}
		return nil
	})
}
