package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"
)

// idTokenVerifier is the part of the Firebase auth client the verifier uses.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseConfig configures a FirebaseVerifier.
type FirebaseConfig struct {
	ProjectID string
	// CredentialsFile is a service account key. Without one the verifier only
	// checks signatures, which needs no credentials.
	CredentialsFile string
	// CheckRevoked asks Firebase whether the user's sessions were revoked or
	// the account disabled. Requires credentials.
	CheckRevoked bool
	Timeout      time.Duration
}

// FirebaseVerifier verifies Firebase ID tokens with the Firebase Admin SDK,
// which fetches and caches the rotating signing certificates.
type FirebaseVerifier struct {
	client       idTokenVerifier
	checkRevoked bool
	timeout      time.Duration
}

func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case !cfg.CheckRevoked:
		opts = append(opts, option.WithoutAuthentication())
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}
	return newFirebaseVerifier(client, cfg), nil
}

func newFirebaseVerifier(client idTokenVerifier, cfg FirebaseConfig) *FirebaseVerifier {
	return &FirebaseVerifier{
		client:       client,
		checkRevoked: cfg.CheckRevoked,
		timeout:      cfg.Timeout,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	verify := v.client.VerifyIDToken
	if v.checkRevoked {
		verify = v.client.VerifyIDTokenAndCheckRevoked
	}

	token, err := verify(ctx, raw)
	if err != nil {
		return nil, classifyFirebase(err)
	}
	return claimsFromToken(token)
}

func claimsFromToken(token *auth.Token) (*Claims, error) {
	if strings.TrimSpace(token.UID) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	claims := &Claims{
		Subject:   token.UID,
		IssuedAt:  time.Unix(token.IssuedAt, 0),
		ExpiresAt: time.Unix(token.Expires, 0),
	}
	claims.Email, _ = token.Claims["email"].(string)
	claims.DisplayName, _ = token.Claims["name"].(string)
	claims.Picture, _ = token.Claims["picture"].(string)
	return claims, nil
}

// classifyFirebase maps Firebase Admin SDK failures onto the package error kinds.
func classifyFirebase(err error) error {
	switch {
	case auth.IsCertificateFetchFailed(err),
		errorutils.IsUnavailable(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	case auth.IsIDTokenExpired(err):
		return fmt.Errorf("%w: %v", ErrExpiredCredential, err)
	case auth.IsIDTokenRevoked(err), auth.IsUserDisabled(err):
		return fmt.Errorf("%w: %v", ErrRevokedCredential, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
}
