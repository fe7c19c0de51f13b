package authz

import (
	"fmt"

	"github.com/yukikurage/project-management-api/internal/models"
)

// Facts supplies the membership state decisions are computed from.
type Facts interface {
	// MemberRole returns the user's role in the project and whether a
	// membership row exists.
	MemberRole(projectID, userID uint64) (models.ProjectRole, bool, error)

	// CountOwners counts the owner memberships of a project.
	CountOwners(projectID uint64) (int64, error)
}

// Engine evaluates authorization rules against Facts.
type Engine struct {
	facts Facts
}

func New(facts Facts) *Engine {
	return &Engine{facts: facts}
}

// Require authorizes and returns the decision's error, if any.
func (e *Engine) Require(principal *models.User, res Resource, action Action) error {
	decision, err := e.Authorize(principal, res, action)
	if err != nil {
		return err
	}
	return decision.Err()
}

// Authorize decides whether principal may perform action on res.
func (e *Engine) Authorize(principal *models.User, res Resource, action Action) (Decision, error) {
	if principal == nil {
		return deny(ReasonNotVisible), nil
	}

	switch res.Kind {
	case KindProject:
		return e.authorizeProject(principal.ID, res.Project, action)
	case KindMembership:
		return e.authorizeMembership(principal.ID, res.Project, res.Membership)
	case KindTask:
		return e.authorizeTask(principal.ID, res.Task, action)
	case KindComment, KindAttachment:
		return e.authorizeTaskChild(principal.ID, res, action)
	case KindNote, KindDocument:
		return e.authorizeProjectChild(principal.ID, res, action)
	case KindTag, KindCategory:
		if res.OwnerID != principal.ID {
			return deny(ReasonNotVisible), nil
		}
		return allow(), nil
	default:
		return Decision{}, fmt.Errorf("authz: unknown resource kind %q", res.Kind)
	}
}

func (e *Engine) projectRole(projectID, userID uint64) (models.ProjectRole, bool, error) {
	role, ok, err := e.facts.MemberRole(projectID, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up membership: %w", err)
	}
	return role, ok, nil
}

func (e *Engine) authorizeProject(userID uint64, p *models.Project, action Action) (Decision, error) {
	if p == nil {
		return deny(ReasonNotVisible), nil
	}

	role, isMember, err := e.projectRole(p.ID, userID)
	if err != nil {
		return Decision{}, err
	}

	isCreator := p.CreatorID != nil && *p.CreatorID == userID
	if !isMember && !isCreator {
		return deny(ReasonNotVisible), nil
	}
	if action == ActionView {
		return allow(), nil
	}
	if isMember && HasPermission(role, action) {
		return allow(), nil
	}
	return deny(ReasonInsufficientRole), nil
}

func (e *Engine) authorizeMembership(userID uint64, p *models.Project, change *MembershipChange) (Decision, error) {
	decision, err := e.authorizeProject(userID, p, ActionView)
	if err != nil || !decision.Allowed {
		return decision, err
	}
	if change == nil {
		return allow(), nil
	}

	// The sole owner can never be removed or demoted, whoever asks.
	if change.CurrentRole == models.RoleOwner && change.NewRole != models.RoleOwner {
		owners, err := e.facts.CountOwners(p.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return deny(ReasonLastOwner), nil
		}
	}

	leaving := change.UserID == userID && change.NewRole == "" && change.CurrentRole != ""
	if !leaving {
		role, isMember, err := e.projectRole(p.ID, userID)
		if err != nil {
			return Decision{}, err
		}
		if !isMember || !HasPermission(role, ActionManageMembers) {
			return deny(ReasonInsufficientRole), nil
		}
		// Only owners grant or revoke ownership.
		touchesOwner := change.CurrentRole == models.RoleOwner || change.NewRole == models.RoleOwner
		if touchesOwner && role != models.RoleOwner {
			return deny(ReasonInsufficientRole), nil
		}
	}

	return allow(), nil
}

func (e *Engine) authorizeTask(userID uint64, t *models.Task, action Action) (Decision, error) {
	if t == nil {
		return deny(ReasonNotVisible), nil
	}

	var (
		role     models.ProjectRole
		isMember bool
		err      error
	)
	if t.ProjectID != nil {
		role, isMember, err = e.projectRole(*t.ProjectID, userID)
		if err != nil {
			return Decision{}, err
		}
	}

	personal := t.IsCreator(userID) || t.IsAssignee(userID)
	if !personal && !isMember {
		return deny(ReasonNotVisible), nil
	}

	switch action {
	case ActionView, ActionContribute:
		return allow(), nil
	case ActionUpdate:
		if personal || HasPermission(role, ActionCreateTask) {
			return allow(), nil
		}
	case ActionDelete:
		if t.IsCreator(userID) || (isMember && HasPermission(role, ActionModerate)) {
			return allow(), nil
		}
	}
	return deny(ReasonInsufficientRole), nil
}

func (e *Engine) authorizeTaskChild(userID uint64, res Resource, action Action) (Decision, error) {
	decision, err := e.authorizeTask(userID, res.Task, ActionView)
	if err != nil || !decision.Allowed {
		return decision, err
	}

	var projectID *uint64
	if res.Task != nil {
		projectID = res.Task.ProjectID
	}
	return e.authorizeAuthored(userID, projectID, res.AuthorID, action)
}

func (e *Engine) authorizeProjectChild(userID uint64, res Resource, action Action) (Decision, error) {
	decision, err := e.authorizeProject(userID, res.Project, ActionView)
	if err != nil || !decision.Allowed {
		return decision, err
	}
	return e.authorizeAuthored(userID, &res.Project.ID, res.AuthorID, action)
}

// authorizeAuthored applies the author rules once the parent is visible.
func (e *Engine) authorizeAuthored(userID uint64, projectID, authorID *uint64, action Action) (Decision, error) {
	isAuthor := authorID != nil && *authorID == userID

	switch action {
	case ActionView, ActionContribute:
		return allow(), nil
	case ActionUpdate:
		if isAuthor {
			return allow(), nil
		}
		return deny(ReasonNotAuthor), nil
	case ActionDelete:
		if isAuthor {
			return allow(), nil
		}
		if projectID != nil {
			role, isMember, err := e.projectRole(*projectID, userID)
			if err != nil {
				return Decision{}, err
			}
			if isMember && HasPermission(role, ActionModerate) {
				return allow(), nil
			}
		}
		return deny(ReasonNotAuthor), nil
	}
	return deny(ReasonInsufficientRole), nil
}
