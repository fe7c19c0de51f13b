package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}

type Project struct {
	ID              uint64        `gorm:"primarykey" json:"id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	Description     string        `gorm:"type:text" json:"description"`
	Status          ProjectStatus `gorm:"type:varchar(20);not null;default:'planning';index" json:"status"`
	StartDate       *time.Time    `gorm:"index" json:"start_date"`
	EndDate         *time.Time    `gorm:"index" json:"end_date"`
	CreatorID       *uint64       `gorm:"index" json:"creator_id"`
	CategoryID      *uint64       `gorm:"index" json:"category_id"`
	Color           string        `gorm:"type:varchar(7);not null" json:"color"`
	Icon            string        `gorm:"type:varchar(50)" json:"icon"`
	IsPublic        bool          `gorm:"not null" json:"is_public"`
	NextMeetingDate *time.Time    `json:"next_meeting_date"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Relations
	Creator  *User           `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL" json:"creator,omitempty"`
	Category *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Members  []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Board    *KanbanBoard    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"board,omitempty"`
}

// IsOverdue reports whether the project end date has passed while the
// project is still open.
func (p Project) IsOverdue(now time.Time) bool {
	if p.EndDate == nil {
		return false
	}
	if p.Status == ProjectStatusCompleted || p.Status == ProjectStatusArchived {
		return false
	}
	return p.EndDate.Before(now)
}

// ProjectNote is a free-form note attached to a project.
type ProjectNote struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedByID *uint64   `gorm:"index" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`

	// Relations
	Project   *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy *User    `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
}

// ProjectDocument is an uploaded file attached to a project.
type ProjectDocument struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	ProjectID    uint64    `gorm:"not null;index" json:"project_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType  string    `gorm:"type:varchar(127)" json:"content_type"`
	Size         int64     `json:"size"`
	StorageKey   string    `gorm:"type:varchar(255);not null" json:"-"`
	Checksum     string    `gorm:"type:varchar(64)" json:"checksum"`
	UploadedByID *uint64   `gorm:"index" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	// Relations
	Project    *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	UploadedBy *User    `gorm:"foreignKey:UploadedByID;constraint:OnDelete:SET NULL" json:"uploaded_by,omitempty"`
}
