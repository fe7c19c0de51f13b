package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/models"
)

type UserServiceTestSuite struct {
	serviceSuite
	svc *UserService
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.svc = NewUserService(s.repos)
}

func (s *UserServiceTestSuite) TestLookupByEmail() {
	alice := s.createUser("alice")

	found, err := s.svc.LookupByEmail(s.ctx, "  ALICE@example.com ")
	s.Require().NoError(err)
	s.Equal(alice.ID, found.ID)

	_, err = s.svc.LookupByEmail(s.ctx, "ali")
	s.ErrorIs(err, ErrUserNotFound)

	_, err = s.svc.LookupByEmail(s.ctx, " ")
	s.requireField(err, "email")
}

func (s *UserServiceTestSuite) TestUpdateProfile() {
	user := s.createUser("alice")

	profile, err := s.svc.UpdateProfile(s.ctx, user, UpdateProfileInput{
		FirstName:       ptr("  Alice "),
		PhoneNumber:     ptr("+15551234567"),
		ThemePreference: ptr("dark"),
		Bio:             ptr("  "),
	})
	s.Require().NoError(err)
	s.Equal("Alice", profile.FirstName)
	s.Equal("dark", profile.ThemePreference)
	s.Require().NotNil(profile.PhoneNumber)
	s.Nil(profile.Bio)
	s.NotNil(profile.Settings)
}

func (s *UserServiceTestSuite) TestUpdateProfile_Validation() {
	user := s.createUser("alice")

	_, err := s.svc.UpdateProfile(s.ctx, user, UpdateProfileInput{ThemePreference: ptr("neon")})
	s.requireField(err, "theme_preference")

	_, err = s.svc.UpdateProfile(s.ctx, user, UpdateProfileInput{PhoneNumber: ptr("call me")})
	s.requireField(err, "phone_number")

	_, err = s.svc.UpdateProfile(s.ctx, user, UpdateProfileInput{LastName: ptr("abcdefghijklmnopqrstuvwxyzabcdefg")})
	s.requireField(err, "last_name")
}

func (s *UserServiceTestSuite) TestUpdateSettings() {
	user := s.createUser("alice")

	settings, err := s.svc.UpdateSettings(s.ctx, user, UpdateSettingsInput{
		TaskReminderMinutes: ptr(60),
		DailySummaryTime:    ptr("08:30"),
	})
	s.Require().NoError(err)
	s.Equal(60, settings.TaskReminderMinutes)

	_, err = s.svc.UpdateSettings(s.ctx, user, UpdateSettingsInput{TaskReminderMinutes: ptr(-5)})
	s.requireField(err, "task_reminder_minutes")

	_, err = s.svc.UpdateSettings(s.ctx, user, UpdateSettingsInput{DailySummaryTime: ptr("25:00")})
	s.requireField(err, "daily_summary_time")
}

func (s *UserServiceTestSuite) TestDeleteAccount_RefusedForSoleOwner() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	project := s.createProject(alice, "p").Project

	s.ErrorIs(s.svc.DeleteAccount(s.ctx, alice), ErrSoleOwner)

	s.addMember(project.ID, bob, models.RoleOwner)
	s.Require().NoError(s.svc.DeleteAccount(s.ctx, alice))

	_, err := s.svc.Profile(s.ctx, alice)
	s.ErrorIs(err, ErrUserNotFound)

	members, err := s.repos.Projects.ListMembers(project.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(bob.ID, members[0].UserID)
}

func (s *UserServiceTestSuite) TestDeleteAccount_KeepsAuthoredTasks() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	tasks := s.taskService()
	task, err := tasks.CreateTask(s.ctx, bob, CreateTaskInput{Title: "t", AssigneeID: &alice.ID})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteAccount(s.ctx, alice))

	got, err := tasks.GetTask(s.ctx, bob, task.ID)
	s.Require().NoError(err)
	s.Nil(got.AssigneeID)
}
