// Package authz decides whether a principal may perform an action on a
// resource. Decisions are computed from facts read inside the caller's
// transaction, so a check and the mutation it guards see the same state.
package authz

import (
	"errors"

	"github.com/yukikurage/project-management-api/internal/models"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("permission denied")
	ErrLastOwnerProtected = errors.New("project must keep at least one owner")
)

// Action represents an operation that can be performed on a resource
type Action string

const (
	ActionView          Action = "view"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
	ActionEditBoard     Action = "edit_board"
	ActionCreateTask    Action = "create_task"
	ActionContribute    Action = "contribute" // add comments, attachments, notes, documents
	ActionModerate      Action = "moderate"   // remove content authored by others
)

// ProjectPermissions defines what actions each role can perform at project level
var ProjectPermissions = map[models.ProjectRole]map[Action]bool{
	models.RoleOwner: {
		ActionView:          true,
		ActionUpdate:        true,
		ActionDelete:        true,
		ActionManageMembers: true,
		ActionEditBoard:     true,
		ActionCreateTask:    true,
		ActionContribute:    true,
		ActionModerate:      true,
	},
	models.RoleAdmin: {
		ActionView:          true,
		ActionUpdate:        true,
		ActionManageMembers: true,
		ActionEditBoard:     true,
		ActionCreateTask:    true,
		ActionContribute:    true,
		ActionModerate:      true,
	},
	models.RoleMember: {
		ActionView:       true,
		ActionEditBoard:  true,
		ActionCreateTask: true,
		ActionContribute: true,
	},
	models.RoleViewer: {
		ActionView:       true,
		ActionContribute: true,
	},
}

// HasPermission checks if a role has permission to perform an action
func HasPermission(role models.ProjectRole, action Action) bool {
	if rolePerms, ok := ProjectPermissions[role]; ok {
		return rolePerms[action]
	}
	return false
}

// Reason describes why a check was denied.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotVisible
	ReasonInsufficientRole
	ReasonNotAuthor
	ReasonLastOwner
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "allowed"
	case ReasonNotVisible:
		return "resource not visible"
	case ReasonInsufficientRole:
		return "insufficient role"
	case ReasonNotAuthor:
		return "not the author"
	case ReasonLastOwner:
		return "last owner protected"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a denial into the error callers return. Invisible resources
// read as missing so their existence is not disclosed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNotVisible:
		return ErrNotFound
	case ReasonLastOwner:
		return ErrLastOwnerProtected
	default:
		return ErrForbidden
	}
}
