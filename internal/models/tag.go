package models

import "time"

// Tag is a per-user label that can be attached to tasks.
type Tag struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_tags_owner_name" json:"name"`
	Color     string    `gorm:"type:varchar(7);not null" json:"color"`
	OwnerID   uint64    `gorm:"not null;uniqueIndex:idx_tags_owner_name" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// Category groups a user's projects.
type Category struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_owner_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(7);not null" json:"color"`
	Icon        string    `gorm:"type:varchar(50)" json:"icon"`
	OwnerID     uint64    `gorm:"not null;uniqueIndex:idx_categories_owner_name" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
