package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/datatypes"
)

var (
	dailySummaryPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	phonePattern        = regexp.MustCompile(`^\+?[0-9]{6,14}$`)
)

const maxReminderMinutes = 7 * 24 * 60

// UserService provides profile, settings and account operations for the
// acting principal.
type UserService struct {
	repos *repository.Repositories
}

// NewUserService creates a new UserService.
func NewUserService(repos *repository.Repositories) *UserService {
	return &UserService{repos: repos}
}

// UpdateProfileInput carries the profile fields to change; nil leaves a field as is.
type UpdateProfileInput struct {
	FirstName              *string
	LastName               *string
	ProfilePicture         *string
	Bio                    *string
	PhoneNumber            *string
	ThemePreference        *string
	LanguagePreference     *string
	NotificationPreference map[string]interface{}
}

// UpdateSettingsInput carries the settings to change; nil leaves a field as is.
type UpdateSettingsInput struct {
	CalendarSync         *bool
	TaskReminderMinutes  *int
	DailySummaryTime     *string
	WeekendNotifications *bool
}

// Profile returns the principal with settings loaded.
func (s *UserService) Profile(ctx context.Context, principal *models.User) (*models.User, error) {
	user, err := s.repos.WithContext(ctx).Users.FindByID(principal.ID, "Settings")
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "load profile")
	}
	return user, nil
}

// LookupByEmail finds a user by exact, case-insensitive email so owners can
// add them to a project.
func (s *UserService) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "is required")
	}

	user, err := s.repos.WithContext(ctx).Users.FindByEmail(email)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "look up user")
	}
	return user, nil
}

// UpdateProfile applies profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, principal *models.User, input UpdateProfileInput) (*models.User, error) {
	fields := map[string]interface{}{}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if len([]rune(name)) > 30 {
			return nil, invalid("first_name", "must be at most 30 characters")
		}
		fields["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if len([]rune(name)) > 30 {
			return nil, invalid("last_name", "must be at most 30 characters")
		}
		fields["last_name"] = name
	}
	if input.ProfilePicture != nil {
		fields["profile_picture"] = nullableString(*input.ProfilePicture)
	}
	if input.Bio != nil {
		fields["bio"] = nullableString(*input.Bio)
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone != "" && !phonePattern.MatchString(phone) {
			return nil, invalid("phone_number", "must be digits with an optional leading +")
		}
		fields["phone_number"] = nullableString(phone)
	}
	if input.ThemePreference != nil {
		switch *input.ThemePreference {
		case "light", "dark":
			fields["theme_preference"] = *input.ThemePreference
		default:
			return nil, invalid("theme_preference", "must be light or dark")
		}
	}
	if input.LanguagePreference != nil {
		lang := strings.TrimSpace(*input.LanguagePreference)
		if len(lang) < 2 || len(lang) > 10 {
			return nil, invalid("language_preference", "must be a language code")
		}
		fields["language_preference"] = lang
	}
	if input.NotificationPreference != nil {
		fields["notification_preference"] = datatypes.JSONMap(input.NotificationPreference)
	}

	repos := s.repos.WithContext(ctx)
	if len(fields) > 0 {
		if err := repos.Users.Update(principal.ID, fields); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.Profile(ctx, principal)
}

// Settings returns the principal's settings.
func (s *UserService) Settings(ctx context.Context, principal *models.User) (*models.UserSettings, error) {
	settings, err := s.repos.WithContext(ctx).Users.FindSettings(principal.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "load settings")
	}
	return settings, nil
}

// UpdateSettings applies settings changes.
func (s *UserService) UpdateSettings(ctx context.Context, principal *models.User, input UpdateSettingsInput) (*models.UserSettings, error) {
	fields := map[string]interface{}{}

	if input.CalendarSync != nil {
		fields["calendar_sync"] = *input.CalendarSync
	}
	if input.TaskReminderMinutes != nil {
		if *input.TaskReminderMinutes < 0 || *input.TaskReminderMinutes > maxReminderMinutes {
			return nil, invalid("task_reminder_minutes", "must be between 0 and 10080")
		}
		fields["task_reminder_minutes"] = *input.TaskReminderMinutes
	}
	if input.DailySummaryTime != nil {
		value := strings.TrimSpace(*input.DailySummaryTime)
		if value != "" && !dailySummaryPattern.MatchString(value) {
			return nil, invalid("daily_summary_time", "must be HH:MM")
		}
		fields["daily_summary_time"] = nullableString(value)
	}
	if input.WeekendNotifications != nil {
		fields["weekend_notifications"] = *input.WeekendNotifications
	}

	if len(fields) > 0 {
		if err := s.repos.WithContext(ctx).Users.UpdateSettings(principal.ID, fields); err != nil {
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
	}
	return s.Settings(ctx, principal)
}

// DeleteAccount removes the principal. It is refused while the principal is
// the only owner of any project.
func (s *UserService) DeleteAccount(ctx context.Context, principal *models.User) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		projectIDs, err := tx.Projects.SoleOwnedProjectIDs(principal.ID)
		if err != nil {
			return fmt.Errorf("failed to check project ownership: %w", err)
		}
		if len(projectIDs) > 0 {
			return fmt.Errorf("%w: projects %v", ErrSoleOwner, projectIDs)
		}
		if err := tx.Users.Delete(principal.ID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "account deleted", "user_id", principal.ID)
	return nil
}

func nullableString(v string) interface{} {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return v
}
