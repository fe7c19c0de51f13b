package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims mirrors the payload of a Firebase ID token.
type tokenClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) toClaims() (*Claims, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	claims := &Claims{
		Subject:     c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		Picture:     c.Picture,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims, nil
}

// classify maps jwt parse failures onto the package error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrVerificationUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredCredential, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
}
