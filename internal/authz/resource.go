package authz

import "github.com/yukikurage/project-management-api/internal/models"

type Kind string

const (
	KindProject    Kind = "project"
	KindMembership Kind = "membership"
	KindTask       Kind = "task"
	KindComment    Kind = "comment"
	KindAttachment Kind = "attachment"
	KindNote       Kind = "note"
	KindDocument   Kind = "document"
	KindTag        Kind = "tag"
	KindCategory   Kind = "category"
)

// MembershipChange describes a pending add, role change or removal.
// CurrentRole is empty when the target is not yet a member; NewRole is
// empty for a removal.
type MembershipChange struct {
	UserID      uint64
	CurrentRole models.ProjectRole
	NewRole     models.ProjectRole
}

// Resource is the target of an authorization check.
type Resource struct {
	Kind       Kind
	Project    *models.Project
	Task       *models.Task
	AuthorID   *uint64
	OwnerID    uint64
	Membership *MembershipChange
}

func ProjectResource(p *models.Project) Resource {
	return Resource{Kind: KindProject, Project: p}
}

func MembershipResource(p *models.Project, change MembershipChange) Resource {
	return Resource{Kind: KindMembership, Project: p, Membership: &change}
}

func TaskResource(t *models.Task) Resource {
	return Resource{Kind: KindTask, Task: t}
}

func CommentResource(t *models.Task, authorID *uint64) Resource {
	return Resource{Kind: KindComment, Task: t, AuthorID: authorID}
}

func AttachmentResource(t *models.Task, uploaderID *uint64) Resource {
	return Resource{Kind: KindAttachment, Task: t, AuthorID: uploaderID}
}

func NoteResource(p *models.Project, authorID *uint64) Resource {
	return Resource{Kind: KindNote, Project: p, AuthorID: authorID}
}

func DocumentResource(p *models.Project, uploaderID *uint64) Resource {
	return Resource{Kind: KindDocument, Project: p, AuthorID: uploaderID}
}

func TagResource(ownerID uint64) Resource {
	return Resource{Kind: KindTag, OwnerID: ownerID}
}

func CategoryResource(ownerID uint64) Resource {
	return Resource{Kind: KindCategory, OwnerID: ownerID}
}
