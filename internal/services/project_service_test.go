package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ProjectServiceTestSuite struct {
	serviceSuite
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}

func (s *ProjectServiceTestSuite) TestCreateProject_InitializesOwnerAndBoard() {
	owner := s.createUser("owner")

	detail := s.createProject(owner, "  Launch  ")

	s.Equal("Launch", detail.Project.Name)
	s.Equal(models.ProjectStatusPlanning, detail.Project.Status)
	s.Equal("#3498db", detail.Project.Color)
	s.Equal(models.RoleOwner, detail.Role)
	s.Require().Len(detail.Members, 1)
	s.Equal(owner.ID, detail.Members[0].UserID)
	s.Equal(models.RoleOwner, detail.Members[0].Role)

	s.Require().NotNil(detail.Board)
	s.Equal("Kanban Board", detail.Board.Name)
	names := make([]string, len(detail.Board.Columns))
	for i, c := range detail.Board.Columns {
		names[i] = c.Name
		s.Equal(i, c.Order)
	}
	s.Equal([]string{"To Do", "In Progress", "Review", "Done"}, names)
	s.Equal(0, detail.Progress())

	var members, boards, columns int64
	s.db.Model(&models.ProjectMember{}).Count(&members)
	s.db.Model(&models.KanbanBoard{}).Count(&boards)
	s.db.Model(&models.KanbanColumn{}).Count(&columns)
	s.Equal(int64(1), members)
	s.Equal(int64(1), boards)
	s.Equal(int64(4), columns)
}

func (s *ProjectServiceTestSuite) TestCreateProject_Validation() {
	owner := s.createUser("owner")
	svc := s.projectService()

	_, err := svc.CreateProject(s.ctx, owner, CreateProjectInput{Name: "   "})
	s.requireField(err, "name")

	_, err = svc.CreateProject(s.ctx, owner, CreateProjectInput{Name: "p", Status: "finished"})
	s.requireField(err, "status")

	_, err = svc.CreateProject(s.ctx, owner, CreateProjectInput{Name: "p", Color: "red"})
	s.requireField(err, "color")

	start := s.now
	end := s.now.Add(-time.Hour)
	_, err = svc.CreateProject(s.ctx, owner, CreateProjectInput{Name: "p", StartDate: &start, EndDate: &end})
	s.requireField(err, "end_date")

	var count int64
	s.db.Model(&models.Project{}).Count(&count)
	s.Zero(count)
}

func (s *ProjectServiceTestSuite) TestCreateProject_RejectsForeignCategory() {
	owner := s.createUser("owner")
	other := s.createUser("other")
	category := &models.Category{Name: "Work", Color: "#ffffff", OwnerID: other.ID}
	s.Require().NoError(s.repos.Categories.Create(category))

	_, err := s.projectService().CreateProject(s.ctx, owner, CreateProjectInput{Name: "p", CategoryID: &category.ID})
	s.requireField(err, "category_id")
}

func (s *ProjectServiceTestSuite) TestNotes_AuthorRules() {
	owner := s.createUser("owner")
	admin := s.createUser("admin")
	member := s.createUser("member")
	viewer := s.createUser("viewer")
	stranger := s.createUser("stranger")
	svc := s.projectService()
	project := s.createProject(owner, "p").Project
	s.addMember(project.ID, admin, models.RoleAdmin)
	s.addMember(project.ID, member, models.RoleMember)
	s.addMember(project.ID, viewer, models.RoleViewer)

	_, err := svc.CreateNote(s.ctx, member, project.ID, NoteInput{Title: ptr("   ")})
	s.requireField(err, "title")
	_, err = svc.CreateNote(s.ctx, stranger, project.ID, NoteInput{Title: ptr("agenda")})
	s.ErrorIs(err, ErrNotFound)

	note, err := svc.CreateNote(s.ctx, member, project.ID, NoteInput{Title: ptr(" agenda "), Content: ptr("- launch")})
	s.Require().NoError(err)
	s.Equal("agenda", note.Title)
	s.Require().NotNil(note.CreatedByID)
	s.Equal(member.ID, *note.CreatedByID)

	// Only the author edits, even the owner may not.
	_, err = svc.UpdateNote(s.ctx, owner, project.ID, note.ID, NoteInput{Content: ptr("hijacked")})
	s.ErrorIs(err, ErrForbidden)
	_, err = svc.UpdateNote(s.ctx, stranger, project.ID, note.ID, NoteInput{Content: ptr("hijacked")})
	s.ErrorIs(err, ErrNotFound)

	edited, err := svc.UpdateNote(s.ctx, member, project.ID, note.ID, NoteInput{Content: ptr("- launch\n- retro")})
	s.Require().NoError(err)
	s.Equal("agenda", edited.Title)
	s.Equal("- launch\n- retro", edited.Content)

	_, err = svc.UpdateNote(s.ctx, member, project.ID, note.ID+100, NoteInput{Content: ptr("x")})
	s.ErrorIs(err, ErrNoteNotFound)

	// Viewers may add notes but not moderate others'.
	viewerNote, err := svc.CreateNote(s.ctx, viewer, project.ID, NoteInput{Title: ptr("question")})
	s.Require().NoError(err)
	s.ErrorIs(svc.DeleteNote(s.ctx, viewer, project.ID, note.ID), ErrForbidden)
	s.ErrorIs(svc.DeleteNote(s.ctx, stranger, project.ID, note.ID), ErrNotFound)

	_, err = svc.ListNotes(s.ctx, stranger, project.ID)
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(svc.DeleteNote(s.ctx, viewer, project.ID, viewerNote.ID))
	s.Require().NoError(svc.DeleteNote(s.ctx, admin, project.ID, note.ID))

	notes, err := svc.ListNotes(s.ctx, member, project.ID)
	s.Require().NoError(err)
	s.Empty(notes)
}

func (s *ProjectServiceTestSuite) TestGetProject_HiddenFromNonMembers() {
	owner := s.createUser("owner")
	stranger := s.createUser("stranger")
	detail := s.createProject(owner, "Secret")

	_, err := s.projectService().GetProject(s.ctx, stranger, detail.Project.ID)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.projectService().GetProject(s.ctx, owner, detail.Project.ID+100)
	s.ErrorIs(err, ErrProjectNotFound)
}

func (s *ProjectServiceTestSuite) TestUpdateProject_RoleRules() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	detail := s.createProject(owner, "p")
	s.addMember(detail.Project.ID, member, models.RoleMember)
	svc := s.projectService()

	_, err := svc.UpdateProject(s.ctx, member, detail.Project.ID, UpdateProjectInput{Name: ptr("renamed")})
	s.ErrorIs(err, ErrForbidden)

	status := models.ProjectStatusActive
	updated, err := svc.UpdateProject(s.ctx, owner, detail.Project.ID, UpdateProjectInput{Name: ptr("renamed"), Status: &status})
	s.Require().NoError(err)
	s.Equal("renamed", updated.Project.Name)
	s.Equal(models.ProjectStatusActive, updated.Project.Status)
}

func (s *ProjectServiceTestSuite) TestUpdateProject_ClearsDates() {
	owner := s.createUser("owner")
	svc := s.projectService()
	end := s.now.Add(48 * time.Hour)
	detail, err := svc.CreateProject(s.ctx, owner, CreateProjectInput{Name: "p", EndDate: &end})
	s.Require().NoError(err)
	s.Require().NotNil(detail.Project.EndDate)

	updated, err := svc.UpdateProject(s.ctx, owner, detail.Project.ID, UpdateProjectInput{ClearEndDate: true})
	s.Require().NoError(err)
	s.Nil(updated.Project.EndDate)

	meeting := s.now.Add(24 * time.Hour)
	updated, err = svc.UpdateProject(s.ctx, owner, detail.Project.ID, UpdateProjectInput{NextMeetingDate: &meeting})
	s.Require().NoError(err)
	s.Require().NotNil(updated.Project.NextMeetingDate)
	s.True(meeting.Equal(*updated.Project.NextMeetingDate))

	updated, err = svc.UpdateProject(s.ctx, owner, detail.Project.ID, UpdateProjectInput{ClearNextMeeting: true})
	s.Require().NoError(err)
	s.Nil(updated.Project.NextMeetingDate)
}

func (s *ProjectServiceTestSuite) TestDeleteProject_OnlyOwner() {
	owner := s.createUser("owner")
	admin := s.createUser("admin")
	detail := s.createProject(owner, "p")
	s.addMember(detail.Project.ID, admin, models.RoleAdmin)
	svc := s.projectService()

	s.ErrorIs(svc.DeleteProject(s.ctx, admin, detail.Project.ID), ErrForbidden)
	s.Require().NoError(svc.DeleteProject(s.ctx, owner, detail.Project.ID))

	var projects, members, boards int64
	s.db.Model(&models.Project{}).Count(&projects)
	s.db.Model(&models.ProjectMember{}).Count(&members)
	s.db.Model(&models.KanbanBoard{}).Count(&boards)
	s.Zero(projects)
	s.Zero(members)
	s.Zero(boards)
}

func (s *ProjectServiceTestSuite) TestGetOrCreateBoard_ConcurrentFirstAccess() {
	owner := s.createUser("owner")
	detail := s.createProject(owner, "p")
	s.Require().NoError(s.db.Where("project_id = ?", detail.Project.ID).Delete(&models.KanbanBoard{}).Error)

	svc := s.projectService()
	const workers = 8
	boards := make([]*models.KanbanBoard, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			boards[i], errs[i] = svc.GetOrCreateBoard(s.ctx, owner, detail.Project.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(boards[0].ID, boards[i].ID)
	}
	var count, columns int64
	s.db.Model(&models.KanbanBoard{}).Where("project_id = ?", detail.Project.ID).Count(&count)
	s.db.Model(&models.KanbanColumn{}).Where("board_id = ?", boards[0].ID).Count(&columns)
	s.Equal(int64(1), count)
	s.Equal(int64(4), columns)
}

func (s *ProjectServiceTestSuite) TestColumns_MemberEditsViewerCannot() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	viewer := s.createUser("viewer")
	detail := s.createProject(owner, "p")
	s.addMember(detail.Project.ID, member, models.RoleMember)
	s.addMember(detail.Project.ID, viewer, models.RoleViewer)
	svc := s.projectService()

	_, err := svc.CreateColumn(s.ctx, viewer, detail.Project.ID, ColumnInput{Name: ptr("Blocked")})
	s.ErrorIs(err, ErrForbidden)

	column, err := svc.CreateColumn(s.ctx, member, detail.Project.ID, ColumnInput{Name: ptr("Blocked")})
	s.Require().NoError(err)
	s.Equal(4, column.Order)
	s.Equal("#3498db", column.Color)

	moved, err := svc.UpdateColumn(s.ctx, member, detail.Project.ID, column.ID, ColumnInput{Order: ptr(0), Color: ptr("#ABCDEF")})
	s.Require().NoError(err)
	s.Equal(0, moved.Order)
	s.Equal("#abcdef", moved.Color)

	s.Require().NoError(svc.DeleteColumn(s.ctx, member, detail.Project.ID, column.ID))
	s.ErrorIs(svc.DeleteColumn(s.ctx, member, detail.Project.ID, column.ID), ErrColumnNotFound)
}

func (s *ProjectServiceTestSuite) TestProgress() {
	owner := s.createUser("owner")
	detail := s.createProject(owner, "p")
	tasks := s.taskService()
	for _, status := range []models.TaskStatus{models.TaskStatusDone, models.TaskStatusTodo, models.TaskStatusDone} {
		_, err := tasks.CreateTask(s.ctx, owner, CreateTaskInput{Title: "t", Status: status, ProjectID: &detail.Project.ID})
		s.Require().NoError(err)
	}

	got, err := s.projectService().GetProject(s.ctx, owner, detail.Project.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), got.TaskCount)
	s.Equal(int64(2), got.DoneCount)
	s.Equal(66, got.Progress())
}

// A failure after the project row is written rolls back the whole composite.
func TestCreateProject_RollsBackOnMembershipFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "projects"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "project_members"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	svc := NewProjectService(repository.New(db), nil)
	actor := &models.User{ID: 1}
	_, err = svc.CreateProject(context.Background(), actor, CreateProjectInput{Name: "p"})

	assert.ErrorContains(t, err, "failed to add owner to project")
	assert.NoError(t, mock.ExpectationsWereMet())
}
