package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "demo-project"

type fakeTokenClient struct {
	token        *auth.Token
	err          error
	plainCalls   int
	revokedCalls int
	hadDeadline  bool
}

func (f *fakeTokenClient) VerifyIDToken(ctx context.Context, _ string) (*auth.Token, error) {
	f.plainCalls++
	_, f.hadDeadline = ctx.Deadline()
	return f.token, f.err
}

func (f *fakeTokenClient) VerifyIDTokenAndCheckRevoked(ctx context.Context, _ string) (*auth.Token, error) {
	f.revokedCalls++
	_, f.hadDeadline = ctx.Deadline()
	return f.token, f.err
}

func sdkToken(now time.Time) *auth.Token {
	return &auth.Token{
		UID:      "uid-ada",
		Subject:  "uid-ada",
		IssuedAt: now.Add(-time.Minute).Unix(),
		Expires:  now.Add(time.Hour).Unix(),
		Claims: map[string]interface{}{
			"email":   "ada@example.com",
			"name":    "Ada Lovelace",
			"picture": "https://example.com/ada.png",
		},
	}
}

func TestFirebaseVerifier_ExtractsClaims(t *testing.T) {
	now := time.Now()
	client := &fakeTokenClient{token: sdkToken(now)}
	v := newFirebaseVerifier(client, FirebaseConfig{Timeout: time.Second})

	claims, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "uid-ada", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada Lovelace", claims.DisplayName)
	assert.Equal(t, "https://example.com/ada.png", claims.Picture)
	assert.Equal(t, now.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
	assert.True(t, client.hadDeadline)
	assert.Equal(t, 1, client.plainCalls)
	assert.Zero(t, client.revokedCalls)
}

func TestFirebaseVerifier_CheckRevoked(t *testing.T) {
	client := &fakeTokenClient{token: sdkToken(time.Now())}
	v := newFirebaseVerifier(client, FirebaseConfig{CheckRevoked: true})

	_, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 1, client.revokedCalls)
	assert.Zero(t, client.plainCalls)
}

func TestFirebaseVerifier_ClientFailures(t *testing.T) {
	noSubject := sdkToken(time.Now())
	noSubject.UID = ""

	tests := []struct {
		name    string
		client  *fakeTokenClient
		token   string
		wantErr error
	}{
		{"empty", &fakeTokenClient{}, "", ErrInvalidCredential},
		{"rejected", &fakeTokenClient{err: errors.New("bad signature")}, "token", ErrInvalidCredential},
		{"timeout", &fakeTokenClient{err: context.DeadlineExceeded}, "token", ErrVerificationUnavailable},
		{"missing subject", &fakeTokenClient{token: noSubject}, "token", ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newFirebaseVerifier(tt.client, FirebaseConfig{})
			_, err := v.Verify(context.Background(), tt.token)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// emulatorToken builds an unsigned token, which the SDK accepts when
// FIREBASE_AUTH_EMULATOR_HOST is set.
func emulatorToken(t *testing.T, mutate func(jwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       "https://securetoken.google.com/" + testProject,
		"aud":       testProject,
		"sub":       "uid-ada",
		"iat":       now.Add(-time.Minute).Unix(),
		"auth_time": now.Add(-time.Minute).Unix(),
		"exp":       now.Add(time.Hour).Unix(),
		"email":     "ada@example.com",
		"name":      "Ada Lovelace",
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

func TestFirebaseVerifier_Emulator(t *testing.T) {
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "127.0.0.1:9099")

	v, err := NewFirebaseVerifier(context.Background(), FirebaseConfig{ProjectID: testProject, Timeout: time.Second})
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), emulatorToken(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "uid-ada", claims.Subject)
	assert.Equal(t, "Ada Lovelace", claims.DisplayName)

	expired := emulatorToken(t, func(c jwt.MapClaims) {
		c["iat"] = time.Now().Add(-3 * time.Hour).Unix()
		c["auth_time"] = c["iat"]
		c["exp"] = time.Now().Add(-2 * time.Hour).Unix()
	})
	_, err = v.Verify(context.Background(), expired)
	require.ErrorIs(t, err, ErrExpiredCredential)

	wrongAudience := emulatorToken(t, func(c jwt.MapClaims) { c["aud"] = "other-project" })
	_, err = v.Verify(context.Background(), wrongAudience)
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = v.Verify(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := NewHMACVerifier("dev-secret", "dev")

	token, err := v.Issue("uid-1", "grace@example.com", "Grace Hopper", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "Grace Hopper", claims.DisplayName)
}

func TestHMACVerifier_Rejections(t *testing.T) {
	v := NewHMACVerifier("dev-secret", "dev")
	other := NewHMACVerifier("other-secret", "dev")

	expired, err := v.Issue("uid-1", "", "", -time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue("uid-1", "", "", time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), expired)
	require.ErrorIs(t, err, ErrExpiredCredential)

	_, err = v.Verify(context.Background(), forged)
	require.ErrorIs(t, err, ErrInvalidCredential)
}
