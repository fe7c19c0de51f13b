package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
	"gorm.io/gorm"
)

// serviceSuite gives each test a fresh in-memory database and blob store.
type serviceSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	repos *repository.Repositories
	blobs *storage.LocalBlobStore
	now   time.Time
}

func (s *serviceSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	s.Require().NoError(err)
	s.db = db
	s.repos = repository.New(db)

	blobs, err := storage.NewLocalBlobStore(s.T().TempDir(), 1<<20)
	s.Require().NoError(err)
	s.blobs = blobs

	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *serviceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *serviceSuite) clock() time.Time { return s.now }

func (s *serviceSuite) createUser(uid string) *models.User {
	user := &models.User{
		FirebaseUID:        uid,
		Email:              uid + "@example.com",
		FirstName:          uid,
		ThemePreference:    "light",
		LanguagePreference: "en",
		Settings:           &models.UserSettings{TaskReminderMinutes: 30},
	}
	s.Require().NoError(s.repos.Users.Create(user))
	return user
}

func (s *serviceSuite) projectService() *ProjectService {
	svc := NewProjectService(s.repos, s.blobs)
	svc.now = s.clock
	return svc
}

func (s *serviceSuite) taskService() *TaskService {
	svc := NewTaskService(s.repos, s.blobs, nil)
	svc.now = s.clock
	return svc
}

func (s *serviceSuite) createProject(owner *models.User, name string) *ProjectDetail {
	detail, err := s.projectService().CreateProject(s.ctx, owner, CreateProjectInput{Name: name})
	s.Require().NoError(err)
	return detail
}

// addMember inserts a membership directly, bypassing authorization.
func (s *serviceSuite) addMember(projectID uint64, user *models.User, role models.ProjectRole) {
	s.Require().NoError(s.repos.Projects.AddMember(&models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
	}))
}

func (s *serviceSuite) requireField(err error, field string) {
	var validation *ValidationError
	s.Require().ErrorAs(err, &validation)
	s.Equal(field, validation.Field)
}

func ptr[T any](v T) *T { return &v }
