package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/models"
)

type fakeFacts struct {
	roles map[[2]uint64]models.ProjectRole
	err   error
}

func (f *fakeFacts) MemberRole(projectID, userID uint64) (models.ProjectRole, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	role, ok := f.roles[[2]uint64{projectID, userID}]
	return role, ok, nil
}

func (f *fakeFacts) CountOwners(projectID uint64) (int64, error) {
	var n int64
	for key, role := range f.roles {
		if key[0] == projectID && role == models.RoleOwner {
			n++
		}
	}
	return n, nil
}

func ptr(v uint64) *uint64 { return &v }

const (
	projectID uint64 = 10
	alice     uint64 = 1 // owner
	bob       uint64 = 2 // admin
	carol     uint64 = 3 // member
	dave      uint64 = 4 // viewer
	eve       uint64 = 5 // outsider
)

func newEngine() *Engine {
	return New(&fakeFacts{roles: map[[2]uint64]models.ProjectRole{
		{projectID, alice}: models.RoleOwner,
		{projectID, bob}:   models.RoleAdmin,
		{projectID, carol}: models.RoleMember,
		{projectID, dave}:  models.RoleViewer,
	}})
}

func user(id uint64) *models.User { return &models.User{ID: id} }

func TestProjectRules(t *testing.T) {
	engine := newEngine()
	project := &models.Project{ID: projectID, CreatorID: ptr(alice)}

	tests := []struct {
		name   string
		user   uint64
		action Action
		want   error
	}{
		{"viewer reads", dave, ActionView, nil},
		{"outsider reads", eve, ActionView, ErrNotFound},
		{"admin updates", bob, ActionUpdate, nil},
		{"member updates", carol, ActionUpdate, ErrForbidden},
		{"owner deletes", alice, ActionDelete, nil},
		{"admin deletes", bob, ActionDelete, ErrForbidden},
		{"member edits board", carol, ActionEditBoard, nil},
		{"viewer edits board", dave, ActionEditBoard, ErrForbidden},
		{"viewer creates task", dave, ActionCreateTask, ErrForbidden},
		{"outsider edits board", eve, ActionEditBoard, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Require(user(tt.user), ProjectResource(project), tt.action)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreatorWithoutMembershipCanOnlyView(t *testing.T) {
	engine := newEngine()
	project := &models.Project{ID: projectID, CreatorID: ptr(eve)}

	require.NoError(t, engine.Require(user(eve), ProjectResource(project), ActionView))
	require.ErrorIs(t, engine.Require(user(eve), ProjectResource(project), ActionUpdate), ErrForbidden)
}

func TestMembershipRules(t *testing.T) {
	engine := newEngine()
	project := &models.Project{ID: projectID}

	tests := []struct {
		name   string
		actor  uint64
		change MembershipChange
		want   error
	}{
		{"admin adds member", bob, MembershipChange{UserID: eve, NewRole: models.RoleMember}, nil},
		{"admin grants owner", bob, MembershipChange{UserID: eve, NewRole: models.RoleOwner}, ErrForbidden},
		{"owner grants owner", alice, MembershipChange{UserID: carol, CurrentRole: models.RoleMember, NewRole: models.RoleOwner}, nil},
		{"member adds member", carol, MembershipChange{UserID: eve, NewRole: models.RoleMember}, ErrForbidden},
		{"outsider adds member", eve, MembershipChange{UserID: eve, NewRole: models.RoleMember}, ErrNotFound},
		{"admin demotes sole owner", bob, MembershipChange{UserID: alice, CurrentRole: models.RoleOwner, NewRole: models.RoleAdmin}, ErrLastOwnerProtected},
		{"admin removes sole owner", bob, MembershipChange{UserID: alice, CurrentRole: models.RoleOwner}, ErrLastOwnerProtected},
		{"sole owner demotes self", alice, MembershipChange{UserID: alice, CurrentRole: models.RoleOwner, NewRole: models.RoleAdmin}, ErrLastOwnerProtected},
		{"sole owner leaves", alice, MembershipChange{UserID: alice, CurrentRole: models.RoleOwner}, ErrLastOwnerProtected},
		{"viewer leaves", dave, MembershipChange{UserID: dave, CurrentRole: models.RoleViewer}, nil},
		{"admin removes viewer", bob, MembershipChange{UserID: dave, CurrentRole: models.RoleViewer}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Require(user(tt.actor), MembershipResource(project, tt.change), ActionManageMembers)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOwnerRemovalAllowedWithSecondOwner(t *testing.T) {
	engine := New(&fakeFacts{roles: map[[2]uint64]models.ProjectRole{
		{projectID, alice}: models.RoleOwner,
		{projectID, bob}:   models.RoleOwner,
	}})
	project := &models.Project{ID: projectID}

	err := engine.Require(user(alice), MembershipResource(project, MembershipChange{UserID: bob, CurrentRole: models.RoleOwner}), ActionManageMembers)
	require.NoError(t, err)
}

func TestAdminCannotRemoveOneOfSeveralOwners(t *testing.T) {
	engine := New(&fakeFacts{roles: map[[2]uint64]models.ProjectRole{
		{projectID, alice}: models.RoleOwner,
		{projectID, bob}:   models.RoleOwner,
		{projectID, carol}: models.RoleAdmin,
	}})
	project := &models.Project{ID: projectID}

	err := engine.Require(user(carol), MembershipResource(project, MembershipChange{UserID: bob, CurrentRole: models.RoleOwner}), ActionManageMembers)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTaskRules(t *testing.T) {
	engine := newEngine()
	projectTask := &models.Task{ID: 1, ProjectID: ptr(projectID), CreatorID: ptr(carol)}
	personalTask := &models.Task{ID: 2, CreatorID: ptr(eve), AssigneeID: ptr(dave)}

	tests := []struct {
		name   string
		user   uint64
		task   *models.Task
		action Action
		want   error
	}{
		{"member views project task", carol, projectTask, ActionView, nil},
		{"viewer views project task", dave, projectTask, ActionView, nil},
		{"viewer updates project task", dave, projectTask, ActionUpdate, ErrForbidden},
		{"viewer comments on project task", dave, projectTask, ActionContribute, nil},
		{"outsider views project task", eve, projectTask, ActionView, ErrNotFound},
		{"admin deletes project task", bob, projectTask, ActionDelete, nil},
		{"creator deletes project task", carol, projectTask, ActionDelete, nil},
		{"assignee of personal task updates", dave, personalTask, ActionUpdate, nil},
		{"assignee of personal task deletes", dave, personalTask, ActionDelete, ErrForbidden},
		{"owner views personal task", alice, personalTask, ActionView, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Require(user(tt.user), TaskResource(tt.task), tt.action)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthoredRules(t *testing.T) {
	engine := newEngine()
	task := &models.Task{ID: 1, ProjectID: ptr(projectID)}
	comment := CommentResource(task, ptr(carol))

	require.NoError(t, engine.Require(user(carol), comment, ActionUpdate))
	require.ErrorIs(t, engine.Require(user(bob), comment, ActionUpdate), ErrForbidden)
	require.NoError(t, engine.Require(user(bob), comment, ActionDelete))
	require.ErrorIs(t, engine.Require(user(dave), comment, ActionDelete), ErrForbidden)
	require.ErrorIs(t, engine.Require(user(eve), comment, ActionView), ErrNotFound)

	project := &models.Project{ID: projectID}
	note := NoteResource(project, nil)
	require.NoError(t, engine.Require(user(alice), note, ActionDelete))
	require.ErrorIs(t, engine.Require(user(carol), note, ActionUpdate), ErrForbidden)
}

func TestOwnedRules(t *testing.T) {
	engine := newEngine()
	require.NoError(t, engine.Require(user(alice), TagResource(alice), ActionUpdate))
	require.ErrorIs(t, engine.Require(user(bob), CategoryResource(alice), ActionDelete), ErrNotFound)
}

func TestFactsErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	engine := New(&fakeFacts{err: boom})

	_, err := engine.Authorize(user(alice), ProjectResource(&models.Project{ID: projectID}), ActionView)
	require.ErrorIs(t, err, boom)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.ErrorIs(t, Decision{Reason: ReasonNotVisible}.Err(), ErrNotFound)
	assert.ErrorIs(t, Decision{Reason: ReasonNotAuthor}.Err(), ErrForbidden)
	assert.ErrorIs(t, Decision{Reason: ReasonLastOwner}.Err(), ErrLastOwnerProtected)
	assert.Equal(t, "insufficient role", ReasonInsufficientRole.String())
}
