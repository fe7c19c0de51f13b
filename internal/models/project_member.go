package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectRole string

const (
	RoleOwner  ProjectRole = "owner"
	RoleAdmin  ProjectRole = "admin"
	RoleMember ProjectRole = "member"
	RoleViewer ProjectRole = "viewer"
)

// Valid reports whether r is a known project role.
func (r ProjectRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// ProjectMember is the (project, user, role) membership relation.
type ProjectMember struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ProjectID uint64      `gorm:"not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uint64      `gorm:"not null;uniqueIndex:idx_project_members_project_user;index" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:'member';index" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = tx.NowFunc()
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	return nil
}
