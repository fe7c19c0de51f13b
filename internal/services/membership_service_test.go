package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/models"
)

type MembershipServiceTestSuite struct {
	serviceSuite
	svc *MembershipService
}

func TestMembershipServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceTestSuite))
}

func (s *MembershipServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.svc = NewMembershipService(s.repos)
}

func (s *MembershipServiceTestSuite) TestAddMember_DefaultsToMember() {
	owner := s.createUser("owner")
	newcomer := s.createUser("newcomer")
	project := s.createProject(owner, "p").Project

	member, err := s.svc.AddMember(s.ctx, owner, project.ID, AddMemberInput{UserID: newcomer.ID})
	s.Require().NoError(err)
	s.Equal(models.RoleMember, member.Role)
	s.Equal(newcomer.ID, member.User.ID)

	_, err = s.svc.AddMember(s.ctx, owner, project.ID, AddMemberInput{UserID: newcomer.ID})
	s.ErrorIs(err, ErrAlreadyMember)

	_, err = s.svc.AddMember(s.ctx, owner, project.ID, AddMemberInput{UserID: 9999})
	s.ErrorIs(err, ErrUserNotFound)

	members, err := s.svc.ListMembers(s.ctx, newcomer, project.ID)
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *MembershipServiceTestSuite) TestAddMember_RoleRules() {
	owner := s.createUser("owner")
	admin := s.createUser("admin")
	member := s.createUser("member")
	target := s.createUser("target")
	stranger := s.createUser("stranger")
	project := s.createProject(owner, "p").Project
	s.addMember(project.ID, admin, models.RoleAdmin)
	s.addMember(project.ID, member, models.RoleMember)

	_, err := s.svc.AddMember(s.ctx, stranger, project.ID, AddMemberInput{UserID: target.ID})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.AddMember(s.ctx, member, project.ID, AddMemberInput{UserID: target.ID})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.AddMember(s.ctx, admin, project.ID, AddMemberInput{UserID: target.ID, Role: models.RoleOwner})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.AddMember(s.ctx, admin, project.ID, AddMemberInput{UserID: target.ID, Role: models.RoleViewer})
	s.NoError(err)

	_, err = s.svc.AddMember(s.ctx, owner, project.ID, AddMemberInput{UserID: stranger.ID, Role: "superuser"})
	s.requireField(err, "role")
}

func (s *MembershipServiceTestSuite) TestChangeRole_LastOwnerProtected() {
	owner := s.createUser("owner")
	second := s.createUser("second")
	project := s.createProject(owner, "p").Project

	_, err := s.svc.ChangeRole(s.ctx, owner, project.ID, owner.ID, models.RoleAdmin)
	s.ErrorIs(err, ErrLastOwnerProtected)

	s.addMember(project.ID, second, models.RoleOwner)
	changed, err := s.svc.ChangeRole(s.ctx, owner, project.ID, owner.ID, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, changed.Role)

	owners, err := s.repos.Projects.CountOwners(project.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), owners)
}

func (s *MembershipServiceTestSuite) TestChangeRole_UnknownMember() {
	owner := s.createUser("owner")
	outsider := s.createUser("outsider")
	project := s.createProject(owner, "p").Project

	_, err := s.svc.ChangeRole(s.ctx, owner, project.ID, outsider.ID, models.RoleAdmin)
	s.ErrorIs(err, ErrMemberNotFound)

	_, err = s.svc.ChangeRole(s.ctx, outsider, project.ID, outsider.ID, models.RoleAdmin)
	s.ErrorIs(err, ErrNotFound)
}

func (s *MembershipServiceTestSuite) TestRemoveMember() {
	owner := s.createUser("owner")
	admin := s.createUser("admin")
	viewer := s.createUser("viewer")
	project := s.createProject(owner, "p").Project
	s.addMember(project.ID, admin, models.RoleAdmin)
	s.addMember(project.ID, viewer, models.RoleViewer)

	// Members may leave on their own.
	s.Require().NoError(s.svc.RemoveMember(s.ctx, viewer, project.ID, viewer.ID))

	// The sole owner stays, whoever asks.
	s.ErrorIs(s.svc.RemoveMember(s.ctx, admin, project.ID, owner.ID), ErrLastOwnerProtected)
	s.ErrorIs(s.svc.RemoveMember(s.ctx, owner, project.ID, owner.ID), ErrLastOwnerProtected)

	s.Require().NoError(s.svc.RemoveMember(s.ctx, owner, project.ID, admin.ID))
	members, err := s.repos.Projects.ListMembers(project.ID)
	s.Require().NoError(err)
	s.Len(members, 1)
}

// Two owners demoting each other at the same time must leave one owner.
func (s *MembershipServiceTestSuite) TestConcurrentDemotionsKeepAnOwner() {
	first := s.createUser("first")
	second := s.createUser("second")
	project := s.createProject(first, "p").Project
	s.addMember(project.ID, second, models.RoleOwner)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]*models.User{{first, second}, {second, first}} {
		wg.Add(1)
		go func(i int, actor, target *models.User) {
			defer wg.Done()
			_, errs[i] = s.svc.ChangeRole(s.ctx, actor, project.ID, target.ID, models.RoleMember)
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	owners, err := s.repos.Projects.CountOwners(project.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), owners)

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	s.Equal(1, failed)
}

func (s *MembershipServiceTestSuite) TestLaunchWalkthrough() {
	a := s.createUser("a")
	b := s.createUser("b")
	c := s.createUser("c")
	tasks := s.taskService()

	detail := s.createProject(a, "Launch")
	project := detail.Project
	s.Equal(models.RoleOwner, detail.Role)
	names := make([]string, len(detail.Board.Columns))
	for i, col := range detail.Board.Columns {
		names[i] = col.Name
		s.Equal(i, col.Order)
	}
	s.Equal([]string{"To Do", "In Progress", "Review", "Done"}, names)

	task, err := tasks.CreateTask(s.ctx, a, CreateTaskInput{Title: "ship", ProjectID: &project.ID})
	s.Require().NoError(err)

	_, err = s.svc.AddMember(s.ctx, a, project.ID, AddMemberInput{UserID: b.ID, Role: models.RoleMember})
	s.Require().NoError(err)

	_, err = tasks.GetTask(s.ctx, b, task.ID)
	s.NoError(err)
	_, err = s.svc.AddMember(s.ctx, b, project.ID, AddMemberInput{UserID: c.ID})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.ChangeRole(s.ctx, a, project.ID, b.ID, models.RoleAdmin)
	s.Require().NoError(err)
	_, err = s.svc.AddMember(s.ctx, b, project.ID, AddMemberInput{UserID: c.ID})
	s.Require().NoError(err)

	err = s.svc.RemoveMember(s.ctx, b, project.ID, a.ID)
	s.ErrorIs(err, ErrLastOwnerProtected)
	_, err = s.svc.ChangeRole(s.ctx, b, project.ID, a.ID, models.RoleMember)
	s.ErrorIs(err, ErrLastOwnerProtected)
	err = s.svc.RemoveMember(s.ctx, a, project.ID, a.ID)
	s.ErrorIs(err, ErrLastOwnerProtected)

	members, err := s.svc.ListMembers(s.ctx, a, project.ID)
	s.Require().NoError(err)
	s.Len(members, 3)
}
