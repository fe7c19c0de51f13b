// Package identity verifies third-party ID tokens and turns them into claims
// the rest of the service can trust.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredential       = errors.New("identity: invalid credential")
	ErrExpiredCredential       = errors.New("identity: credential expired")
	ErrRevokedCredential       = errors.New("identity: credential revoked")
	ErrVerificationUnavailable = errors.New("identity: verification unavailable")
)

// Claims are the verified fields extracted from an ID token.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	Picture     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Verifier validates a raw token and returns its claims. Implementations
// return one of the package errors so callers can map them to responses.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
