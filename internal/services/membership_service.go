package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

// MembershipService manages who belongs to a project and with which role.
// Every change runs with the project row and its membership rows locked, so
// concurrent changes cannot strip a project of its last owner.
type MembershipService struct {
	repos *repository.Repositories
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(repos *repository.Repositories) *MembershipService {
	return &MembershipService{repos: repos}
}

// AddMemberInput represents parameters to add a user to a project.
type AddMemberInput struct {
	UserID uint64
	Role   models.ProjectRole
}

// lockMembership locks the project and its memberships and returns the
// target's current role, empty when the target is not a member.
func lockMembership(tx *repository.Repositories, projectID, userID uint64) (*models.Project, models.ProjectRole, error) {
	project, err := lockProject(tx, projectID)
	if err != nil {
		return nil, "", err
	}
	members, err := tx.Projects.LockMembers(projectID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to lock members: %w", err)
	}
	for _, m := range members {
		if m.UserID == userID {
			return project, m.Role, nil
		}
	}
	return project, "", nil
}

// ListMembers returns the project's members with their users.
func (s *MembershipService) ListMembers(ctx context.Context, actor *models.User, projectID uint64) ([]models.ProjectMember, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := viewProject(repos, actor, projectID); err != nil {
		return nil, err
	}
	members, err := repos.Projects.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// AddMember grants a user a role on the project.
func (s *MembershipService) AddMember(ctx context.Context, actor *models.User, projectID uint64, input AddMemberInput) (*models.ProjectMember, error) {
	if input.Role == "" {
		input.Role = models.RoleMember
	}
	if !input.Role.Valid() {
		return nil, invalid("role", "unknown project role")
	}
	if input.UserID == 0 {
		return nil, invalid("user_id", "is required")
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    input.UserID,
		Role:      input.Role,
	}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, current, err := lockMembership(tx, projectID, input.UserID)
		if err != nil {
			return err
		}
		change := authz.MembershipChange{UserID: input.UserID, NewRole: input.Role}
		if err := engine(tx).Require(actor, authz.MembershipResource(project, change), authz.ActionManageMembers); err != nil {
			return err
		}
		if current != "" {
			return ErrAlreadyMember
		}

		user, err := tx.Users.FindByID(input.UserID)
		if err != nil {
			return notFound(err, ErrUserNotFound, "find user")
		}
		if err := tx.Projects.AddMember(member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to add member: %w", err)
		}
		member.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "member added", "project_id", projectID, "user_id", input.UserID, "role", input.Role, "by", actor.ID)
	return member, nil
}

// ChangeRole sets a member's role. Demoting the last owner is refused.
func (s *MembershipService) ChangeRole(ctx context.Context, actor *models.User, projectID, userID uint64, role models.ProjectRole) (*models.ProjectMember, error) {
	if !role.Valid() {
		return nil, invalid("role", "unknown project role")
	}

	var member *models.ProjectMember
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, current, err := lockMembership(tx, projectID, userID)
		if err != nil {
			return err
		}
		if current == "" {
			if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionView); err != nil {
				return err
			}
			return ErrMemberNotFound
		}

		change := authz.MembershipChange{UserID: userID, CurrentRole: current, NewRole: role}
		if err := engine(tx).Require(actor, authz.MembershipResource(project, change), authz.ActionManageMembers); err != nil {
			return err
		}
		if current != role {
			if err := tx.Projects.UpdateMemberRole(projectID, userID, role); err != nil {
				return notFound(err, ErrMemberNotFound, "update member role")
			}
		}
		member, err = tx.Projects.FindMember(projectID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "member role changed", "project_id", projectID, "user_id", userID, "role", role, "by", actor.ID)
	return member, nil
}

// RemoveMember takes a user off the project. Members may remove themselves;
// removing the last owner is refused.
func (s *MembershipService) RemoveMember(ctx context.Context, actor *models.User, projectID, userID uint64) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, current, err := lockMembership(tx, projectID, userID)
		if err != nil {
			return err
		}
		if current == "" {
			if err := engine(tx).Require(actor, authz.ProjectResource(project), authz.ActionView); err != nil {
				return err
			}
			return ErrMemberNotFound
		}

		change := authz.MembershipChange{UserID: userID, CurrentRole: current}
		if err := engine(tx).Require(actor, authz.MembershipResource(project, change), authz.ActionManageMembers); err != nil {
			return err
		}
		if err := tx.Projects.RemoveMember(projectID, userID); err != nil {
			return notFound(err, ErrMemberNotFound, "remove member")
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "member removed", "project_id", projectID, "user_id", userID, "by", actor.ID)
	return nil
}
