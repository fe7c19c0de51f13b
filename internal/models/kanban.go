package models

import "time"

// KanbanBoard is the single board owned by a project.
type KanbanBoard struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex" json:"project_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Columns []KanbanColumn `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"columns,omitempty"`
}

// KanbanColumn is one ordered column on a board.
type KanbanColumn struct {
	ID      uint64 `gorm:"primarykey" json:"id"`
	BoardID uint64 `gorm:"not null;index" json:"board_id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Order   int    `gorm:"column:position;not null" json:"order"`
	Color   string `gorm:"type:varchar(7);not null" json:"color"`
}

// DefaultKanbanColumns returns the columns seeded onto every new board.
func DefaultKanbanColumns() []KanbanColumn {
	return []KanbanColumn{
		{Name: "To Do", Order: 0, Color: "#3498db"},
		{Name: "In Progress", Order: 1, Color: "#f39c12"},
		{Name: "Review", Order: 2, Color: "#9b59b6"},
		{Name: "Done", Order: 3, Color: "#2ecc71"},
	}
}
