package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID             uint64  `json:"id"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FullName       string  `json:"full_name"`
	ProfilePicture *string `json:"profile_picture"`
}

// UserLookupDTO is the minimal view returned by the email lookup
type UserLookupDTO struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// SettingsDTO represents user settings in API responses
type SettingsDTO struct {
	CalendarSync         bool    `json:"calendar_sync"`
	TaskReminderMinutes  int     `json:"task_reminder_minutes"`
	DailySummaryTime     *string `json:"daily_summary_time"`
	WeekendNotifications bool    `json:"weekend_notifications"`
}

// ProfileDTO is the full view of the acting user
type ProfileDTO struct {
	UserDTO
	Bio                    *string                `json:"bio"`
	PhoneNumber            *string                `json:"phone_number"`
	ThemePreference        string                 `json:"theme_preference"`
	LanguagePreference     string                 `json:"language_preference"`
	NotificationPreference map[string]interface{} `json:"notification_preference"`
	LastLogin              *time.Time             `json:"last_login"`
	DateJoined             time.Time              `json:"date_joined"`
	Settings               *SettingsDTO           `json:"settings,omitempty"`
}

// UpdateProfileRequest is the body of PATCH /api/users/me
type UpdateProfileRequest struct {
	FirstName              *string                `json:"first_name"`
	LastName               *string                `json:"last_name"`
	ProfilePicture         *string                `json:"profile_picture"`
	Bio                    *string                `json:"bio"`
	PhoneNumber            *string                `json:"phone_number"`
	ThemePreference        *string                `json:"theme_preference"`
	LanguagePreference     *string                `json:"language_preference"`
	NotificationPreference map[string]interface{} `json:"notification_preference"`
}

func (r UpdateProfileRequest) Input() services.UpdateProfileInput {
	return services.UpdateProfileInput{
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		ProfilePicture:         r.ProfilePicture,
		Bio:                    r.Bio,
		PhoneNumber:            r.PhoneNumber,
		ThemePreference:        r.ThemePreference,
		LanguagePreference:     r.LanguagePreference,
		NotificationPreference: r.NotificationPreference,
	}
}

// UpdateSettingsRequest is the body of PATCH /api/users/me/settings
type UpdateSettingsRequest struct {
	CalendarSync         *bool   `json:"calendar_sync"`
	TaskReminderMinutes  *int    `json:"task_reminder_minutes"`
	DailySummaryTime     *string `json:"daily_summary_time"`
	WeekendNotifications *bool   `json:"weekend_notifications"`
}

func (r UpdateSettingsRequest) Input() services.UpdateSettingsInput {
	return services.UpdateSettingsInput{
		CalendarSync:         r.CalendarSync,
		TaskReminderMinutes:  r.TaskReminderMinutes,
		DailySummaryTime:     r.DailySummaryTime,
		WeekendNotifications: r.WeekendNotifications,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		FullName:       user.FullName(),
		ProfilePicture: user.ProfilePicture,
	}
}

// ToUserLookupDTO converts a User model to UserLookupDTO
func ToUserLookupDTO(user models.User) UserLookupDTO {
	return UserLookupDTO{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName(),
	}
}

// toUserPtr converts an optional preloaded user
func toUserPtr(user *models.User) *UserDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	dto := ToUserDTO(*user)
	return &dto
}

// ToSettingsDTO converts a UserSettings model to SettingsDTO
func ToSettingsDTO(settings models.UserSettings) SettingsDTO {
	return SettingsDTO{
		CalendarSync:         settings.CalendarSync,
		TaskReminderMinutes:  settings.TaskReminderMinutes,
		DailySummaryTime:     settings.DailySummaryTime,
		WeekendNotifications: settings.WeekendNotifications,
	}
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	dto := ProfileDTO{
		UserDTO:                ToUserDTO(user),
		Bio:                    user.Bio,
		PhoneNumber:            user.PhoneNumber,
		ThemePreference:        user.ThemePreference,
		LanguagePreference:     user.LanguagePreference,
		NotificationPreference: user.NotificationPreference,
		LastLogin:              user.LastLogin,
		DateJoined:             user.CreatedAt,
	}
	if dto.NotificationPreference == nil {
		dto.NotificationPreference = map[string]interface{}{}
	}

	// Include settings if preloaded
	if user.Settings != nil {
		settings := ToSettingsDTO(*user.Settings)
		dto.Settings = &settings
	}
	return dto
}
