package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/identity"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

// lastLoginResolution limits how often a request refreshes last_login.
const lastLoginResolution = 15 * time.Minute

// IdentityService maps verified ID tokens to local principals.
type IdentityService struct {
	repos    *repository.Repositories
	verifier identity.Verifier
	now      func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(repos *repository.Repositories, verifier identity.Verifier) *IdentityService {
	return &IdentityService{
		repos:    repos,
		verifier: verifier,
		now:      time.Now,
	}
}

// Resolve verifies token and returns the principal it names, creating the
// principal on first sight. Verification failures are returned with their
// identity error kind intact.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreate(ctx, claims)
	if err != nil {
		return nil, err
	}

	if user.TokensValidAfter != nil && claims.IssuedAt.Before(*user.TokensValidAfter) {
		return nil, fmt.Errorf("%w: token issued before revocation", identity.ErrRevokedCredential)
	}

	now := s.now().UTC()
	if user.LastLogin == nil || now.Sub(*user.LastLogin) > lastLoginResolution {
		if err := s.repos.WithContext(ctx).Users.Update(user.ID, map[string]interface{}{"last_login": now}); err != nil {
			return nil, fmt.Errorf("failed to record login: %w", err)
		}
		user.LastLogin = &now
	}

	return user, nil
}

// findOrCreate looks the subject up and inserts it when missing. A
// concurrent insert of the same subject loses on the unique index and
// re-reads the winner's row.
func (s *IdentityService) findOrCreate(ctx context.Context, claims *identity.Claims) (*models.User, error) {
	repos := s.repos.WithContext(ctx)

	user, err := repos.Users.FindByFirebaseUID(claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}

	user = newPrincipal(claims)
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Users.Create(user)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		user, err = repos.Users.FindByFirebaseUID(claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read principal: %w", err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	slog.InfoContext(ctx, "principal created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func newPrincipal(claims *identity.Claims) *models.User {
	first, last := models.SplitDisplayName(claims.DisplayName)

	user := &models.User{
		FirebaseUID:        claims.Subject,
		Email:              strings.ToLower(strings.TrimSpace(claims.Email)),
		FirstName:          truncate(first, 30),
		LastName:           truncate(last, 30),
		ThemePreference:    constants.DefaultThemePreference,
		LanguagePreference: constants.DefaultLanguagePreference,
		Settings: &models.UserSettings{
			TaskReminderMinutes:  constants.DefaultTaskReminderMinutes,
			WeekendNotifications: true,
		},
	}
	if claims.Picture != "" {
		picture := claims.Picture
		user.ProfilePicture = &picture
	}
	return user
}

// RevokeTokens rejects every token issued before now for the principal.
func (s *IdentityService) RevokeTokens(ctx context.Context, principal *models.User) error {
	validAfter := s.now().UTC().Truncate(time.Second)
	if err := s.repos.WithContext(ctx).Users.Update(principal.ID, map[string]interface{}{"tokens_valid_after": validAfter}); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	slog.InfoContext(ctx, "tokens revoked", "user_id", principal.ID)
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
