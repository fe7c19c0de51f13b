package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User is the local principal record anchored to an identity-provider subject.
type User struct {
	ID                     uint64            `gorm:"primarykey" json:"id"`
	FirebaseUID            string            `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	Email                  string            `gorm:"type:varchar(255);index" json:"email"`
	FirstName              string            `gorm:"type:varchar(30)" json:"first_name"`
	LastName               string            `gorm:"type:varchar(30)" json:"last_name"`
	ProfilePicture         *string           `gorm:"type:varchar(512)" json:"profile_picture"`
	Bio                    *string           `gorm:"type:text" json:"bio"`
	PhoneNumber            *string           `gorm:"type:varchar(15)" json:"phone_number"`
	NotificationPreference datatypes.JSONMap `json:"notification_preference"`
	ThemePreference        string            `gorm:"type:varchar(10);not null" json:"theme_preference"`
	LanguagePreference     string            `gorm:"type:varchar(10);not null" json:"language_preference"`
	TokensValidAfter       *time.Time        `json:"-"`
	LastLogin              *time.Time        `json:"last_login"`
	CreatedAt              time.Time         `json:"date_joined"`
	UpdatedAt              time.Time         `json:"updated_at"`

	// Relations
	Settings *UserSettings `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}

// FullName returns "first last", falling back to the email address.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// SplitDisplayName splits an identity-provider display name on the first
// whitespace run into first and last name.
func SplitDisplayName(displayName string) (first, last string) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "", ""
	}
	first = fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(displayName), first))
	return first, rest
}

// UserSettings holds per-user reminder and notification settings.
type UserSettings struct {
	ID                   uint64  `gorm:"primarykey" json:"-"`
	UserID               uint64  `gorm:"uniqueIndex;not null" json:"-"`
	CalendarSync         bool    `gorm:"not null" json:"calendar_sync"`
	TaskReminderMinutes  int     `gorm:"not null" json:"task_reminder_minutes"`
	DailySummaryTime     *string `gorm:"type:varchar(5)" json:"daily_summary_time"`
	WeekendNotifications bool    `gorm:"not null" json:"weekend_notifications"`
}
