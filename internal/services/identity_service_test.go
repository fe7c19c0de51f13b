package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/identity"
)

// stubVerifier accepts any token present in its claims map.
type stubVerifier struct {
	claims map[string]*identity.Claims
}

func (v stubVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	claims, ok := v.claims[token]
	if !ok {
		return nil, identity.ErrInvalidCredential
	}
	copied := *claims
	return &copied, nil
}

type IdentityServiceTestSuite struct {
	serviceSuite
	verifier stubVerifier
	svc      *IdentityService
}

func TestIdentityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceTestSuite))
}

func (s *IdentityServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.verifier = stubVerifier{claims: map[string]*identity.Claims{
		"alice-token": {
			Subject:     "uid-alice",
			Email:       " Alice@Example.com ",
			DisplayName: "Alice Liddell",
			Picture:     "https://example.com/alice.png",
			IssuedAt:    s.now.Add(-time.Minute),
			ExpiresAt:   s.now.Add(time.Hour),
		},
	}}
	s.svc = NewIdentityService(s.repos, s.verifier)
	s.svc.now = s.clock
}

func (s *IdentityServiceTestSuite) TestResolve_CreatesPrincipalOnce() {
	first, err := s.svc.Resolve(s.ctx, "alice-token")
	s.Require().NoError(err)
	s.Equal("uid-alice", first.FirebaseUID)
	s.Equal("alice@example.com", first.Email)
	s.Equal("Alice", first.FirstName)
	s.Equal("Liddell", first.LastName)
	s.Require().NotNil(first.ProfilePicture)
	s.Require().NotNil(first.LastLogin)
	s.True(first.LastLogin.Equal(s.now))

	second, err := s.svc.Resolve(s.ctx, "alice-token")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	settings, err := s.repos.Users.FindSettings(first.ID)
	s.Require().NoError(err)
	s.True(settings.WeekendNotifications)
}

func (s *IdentityServiceTestSuite) TestResolve_RejectsUnknownToken() {
	_, err := s.svc.Resolve(s.ctx, "forged")
	s.ErrorIs(err, identity.ErrInvalidCredential)
}

func (s *IdentityServiceTestSuite) TestResolve_ConcurrentFirstLogin() {
	const n = 6
	ids := make([]uint64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := s.svc.Resolve(s.ctx, "alice-token")
			errs[i] = err
			if err == nil {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		s.Equal(ids[0], ids[i])
	}
	var count int64
	s.Require().NoError(s.db.Table("users").Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *IdentityServiceTestSuite) TestRevokeTokens() {
	user, err := s.svc.Resolve(s.ctx, "alice-token")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RevokeTokens(s.ctx, user))

	_, err = s.svc.Resolve(s.ctx, "alice-token")
	s.ErrorIs(err, identity.ErrRevokedCredential)

	// A token issued after the revocation is accepted again.
	s.verifier.claims["fresh-token"] = &identity.Claims{
		Subject:  "uid-alice",
		Email:    "alice@example.com",
		IssuedAt: s.now.Add(time.Second),
	}
	again, err := s.svc.Resolve(s.ctx, "fresh-token")
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
}
