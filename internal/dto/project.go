package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// CategoryDTO represents a project category in API responses
type CategoryDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectDTO represents a project in list responses
type ProjectDTO struct {
	ID              uint64               `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Status          models.ProjectStatus `json:"status"`
	StartDate       *time.Time           `json:"start_date"`
	EndDate         *time.Time           `json:"end_date"`
	CreatorID       *uint64              `json:"creator_id"`
	Category        *CategoryDTO         `json:"category,omitempty"`
	Color           string               `json:"color"`
	Icon            string               `json:"icon"`
	IsPublic        bool                 `json:"is_public"`
	NextMeetingDate *time.Time           `json:"next_meeting_date"`
	IsOverdue       bool                 `json:"is_overdue"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// MemberDTO represents a project membership in API responses
type MemberDTO struct {
	User     *UserDTO           `json:"user,omitempty"`
	UserID   uint64             `json:"user_id"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ColumnDTO represents a board column in API responses
type ColumnDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Color string `json:"color"`
}

// BoardDTO represents a Kanban board in API responses
type BoardDTO struct {
	ID        uint64      `json:"id"`
	ProjectID uint64      `json:"project_id"`
	Name      string      `json:"name"`
	Columns   []ColumnDTO `json:"columns"`
}

// ProjectDetailDTO represents a single project with members and board
type ProjectDetailDTO struct {
	ProjectDTO
	Creator   *UserDTO           `json:"creator,omitempty"`
	Role      models.ProjectRole `json:"role,omitempty"`
	Members   []MemberDTO        `json:"members"`
	Board     *BoardDTO          `json:"board,omitempty"`
	TaskCount int64              `json:"task_count"`
	DoneCount int64              `json:"completed_task_count"`
	Progress  int                `json:"progress"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO `json:"projects"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// CreateProjectRequest is the body of POST /api/projects
type CreateProjectRequest struct {
	Name            string               `json:"name" binding:"required"`
	Description     string               `json:"description"`
	Status          models.ProjectStatus `json:"status"`
	StartDate       *time.Time           `json:"start_date"`
	EndDate         *time.Time           `json:"end_date"`
	CategoryID      *uint64              `json:"category_id"`
	Color           string               `json:"color"`
	Icon            string               `json:"icon"`
	IsPublic        bool                 `json:"is_public"`
	NextMeetingDate *time.Time           `json:"next_meeting_date"`
}

func (r CreateProjectRequest) Input() services.CreateProjectInput {
	return services.CreateProjectInput{
		Name:            r.Name,
		Description:     r.Description,
		Status:          r.Status,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		CategoryID:      r.CategoryID,
		Color:           r.Color,
		Icon:            r.Icon,
		IsPublic:        r.IsPublic,
		NextMeetingDate: r.NextMeetingDate,
	}
}

// UpdateProjectRequest is the body of PATCH /api/projects/:id. Dates and the
// category may be sent as null to clear them.
type UpdateProjectRequest struct {
	Name            *string               `json:"name"`
	Description     *string               `json:"description"`
	Status          *models.ProjectStatus `json:"status"`
	StartDate       Nullable[time.Time]   `json:"start_date"`
	EndDate         Nullable[time.Time]   `json:"end_date"`
	CategoryID      Nullable[uint64]      `json:"category_id"`
	Color           *string               `json:"color"`
	Icon            *string               `json:"icon"`
	IsPublic        *bool                 `json:"is_public"`
	NextMeetingDate Nullable[time.Time]   `json:"next_meeting_date"`
}

func (r UpdateProjectRequest) Input() services.UpdateProjectInput {
	return services.UpdateProjectInput{
		Name:             r.Name,
		Description:      r.Description,
		Status:           r.Status,
		StartDate:        r.StartDate.Ptr(),
		ClearStartDate:   r.StartDate.Cleared(),
		EndDate:          r.EndDate.Ptr(),
		ClearEndDate:     r.EndDate.Cleared(),
		CategoryID:       r.CategoryID.Ptr(),
		ClearCategory:    r.CategoryID.Cleared(),
		Color:            r.Color,
		Icon:             r.Icon,
		IsPublic:         r.IsPublic,
		NextMeetingDate:  r.NextMeetingDate.Ptr(),
		ClearNextMeeting: r.NextMeetingDate.Cleared(),
	}
}

// AddMemberRequest is the body of POST /api/projects/:id/members
type AddMemberRequest struct {
	UserID uint64             `json:"user_id" binding:"required"`
	Role   models.ProjectRole `json:"role"`
}

// ChangeRoleRequest is the body of PATCH /api/projects/:id/members/:user_id
type ChangeRoleRequest struct {
	Role models.ProjectRole `json:"role" binding:"required"`
}

// ColumnRequest is the body of column create and update requests
type ColumnRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Order *int    `json:"order"`
}

func (r ColumnRequest) Input() services.ColumnInput {
	return services.ColumnInput{Name: r.Name, Color: r.Color, Order: r.Order}
}

// CategoryRequest is the body of category create and update requests
type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

func (r CategoryRequest) Input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

// ToCategoryDTO converts a Category model to CategoryDTO
func ToCategoryDTO(category models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Color:       category.Color,
		Icon:        category.Icon,
		CreatedAt:   category.CreatedAt,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project, now time.Time) ProjectDTO {
	dto := ProjectDTO{
		ID:              project.ID,
		Name:            project.Name,
		Description:     project.Description,
		Status:          project.Status,
		StartDate:       project.StartDate,
		EndDate:         project.EndDate,
		CreatorID:       project.CreatorID,
		Color:           project.Color,
		Icon:            project.Icon,
		IsPublic:        project.IsPublic,
		NextMeetingDate: project.NextMeetingDate,
		IsOverdue:       project.IsOverdue(now),
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
	}

	// Include category if preloaded
	if project.Category != nil {
		category := ToCategoryDTO(*project.Category)
		dto.Category = &category
	}
	return dto
}

// ToMemberDTO converts a ProjectMember model to MemberDTO
func ToMemberDTO(member models.ProjectMember) MemberDTO {
	return MemberDTO{
		User:     toUserPtr(member.User),
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToMemberDTOs converts a slice of memberships
func ToMemberDTOs(members []models.ProjectMember) []MemberDTO {
	items := make([]MemberDTO, len(members))
	for i, m := range members {
		items[i] = ToMemberDTO(m)
	}
	return items
}

// ToColumnDTO converts a KanbanColumn model to ColumnDTO
func ToColumnDTO(column models.KanbanColumn) ColumnDTO {
	return ColumnDTO{
		ID:    column.ID,
		Name:  column.Name,
		Order: column.Order,
		Color: column.Color,
	}
}

// ToBoardDTO converts a KanbanBoard model to BoardDTO
func ToBoardDTO(board models.KanbanBoard) BoardDTO {
	columns := make([]ColumnDTO, len(board.Columns))
	for i, column := range board.Columns {
		columns[i] = ToColumnDTO(column)
	}
	return BoardDTO{
		ID:        board.ID,
		ProjectID: board.ProjectID,
		Name:      board.Name,
		Columns:   columns,
	}
}

// ToProjectDetailDTO converts a ProjectDetail to ProjectDetailDTO
func ToProjectDetailDTO(detail services.ProjectDetail, now time.Time) ProjectDetailDTO {
	dto := ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(*detail.Project, now),
		Creator:    toUserPtr(detail.Project.Creator),
		Role:       detail.Role,
		Members:    ToMemberDTOs(detail.Members),
		TaskCount:  detail.TaskCount,
		DoneCount:  detail.DoneCount,
		Progress:   detail.Progress(),
	}
	if detail.Board != nil {
		board := ToBoardDTO(*detail.Board)
		dto.Board = &board
	}
	return dto
}

// ToProjectListResponse converts a page of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, page, pageSize int, totalCount int64, now time.Time) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project, now)
	}

	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		pages++
	}
	return pages
}
