package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"atsnet/internal/storage"
	"atsnet/internal/validation"
	dErrors "atsnet/pkg/domain-errors"
)

var authNow = time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)

type AuthServiceSuite struct {
	suite.Suite
	svc      *Service
	sessions *MemorySessionStore
	now      time.Time
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = authNow
	clock := func() time.Time { return s.now }

	store := storage.NewMemory()
	validator := validation.New(validation.WithClock(clock))
	s.sessions = NewMemorySessionStore(clock)
	tokens := NewTokenService("test-signing-key", "atsnet", WithTokenClock(clock))

	s.svc = New(store, validator, s.sessions, tokens, WithClock(clock), WithTokenTTL(time.Hour))
}

func (s *AuthServiceSuite) createUser(email, password, role string) *User {
	user, err := s.svc.CreateUser(context.Background(), map[string]any{
		"email":    email,
		"role":     role,
		"fullName": "Test Operator",
	}, password)
	s.Require().NoError(err)
	return user
}

func (s *AuthServiceSuite) TestLoginSucceeds() {
	s.createUser("operator@example.com", "s3cret-pass", "ats_testing")

	result, err := s.svc.Login(context.Background(), "operator@example.com", "s3cret-pass")
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)
	s.Equal("Bearer", result.TokenType)
	s.Equal(int64(3600), result.ExpiresIn)
	s.Equal("operator@example.com", result.User.Email)
	s.Empty(result.User.PasswordHash)
}

func (s *AuthServiceSuite) TestLoginWrongPasswordAndUnknownEmailLookAlike() {
	s.createUser("operator@example.com", "s3cret-pass", "ats_testing")

	_, wrongPass := s.svc.Login(context.Background(), "operator@example.com", "not-the-password")
	_, unknown := s.svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")

	s.Require().Error(wrongPass)
	s.Require().Error(unknown)
	s.True(dErrors.HasCode(wrongPass, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(unknown, dErrors.CodeUnauthorized))
	s.Equal(wrongPass.Error(), unknown.Error())
}

func (s *AuthServiceSuite) TestLoginRejectsInactiveAccount() {
	_, err := s.svc.CreateUser(context.Background(), map[string]any{
		"email":  "dormant@example.com",
		"role":   "ats_owner",
		"status": "inactive",
	}, "s3cret-pass")
	s.Require().NoError(err)

	_, err = s.svc.Login(context.Background(), "dormant@example.com", "s3cret-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *AuthServiceSuite) TestLoginRequiresCredentials() {
	_, err := s.svc.Login(context.Background(), "", "pass")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.svc.Login(context.Background(), "a@b.com", "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *AuthServiceSuite) TestAuthenticateRoundTrip() {
	user := s.createUser("operator@example.com", "s3cret-pass", "ats_testing")
	result, err := s.svc.Login(context.Background(), "operator@example.com", "s3cret-pass")
	s.Require().NoError(err)

	claims, err := s.svc.Authenticate(context.Background(), result.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID.String(), claims.UserID)
	s.Equal("ats_testing", claims.Role)
	s.NotEmpty(claims.SessionID)
}

func (s *AuthServiceSuite) TestAuthenticateFailsAfterLogout() {
	s.createUser("operator@example.com", "s3cret-pass", "ats_testing")
	result, err := s.svc.Login(context.Background(), "operator@example.com", "s3cret-pass")
	s.Require().NoError(err)

	claims, err := s.svc.Authenticate(context.Background(), result.AccessToken)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(context.Background(), claims.SessionID))

	_, err = s.svc.Authenticate(context.Background(), result.AccessToken)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "no longer valid")
}

func (s *AuthServiceSuite) TestAuthenticateFailsAfterSessionExpiry() {
	s.createUser("operator@example.com", "s3cret-pass", "ats_testing")
	result, err := s.svc.Login(context.Background(), "operator@example.com", "s3cret-pass")
	s.Require().NoError(err)

	s.now = authNow.Add(2 * time.Hour)

	_, err = s.svc.Authenticate(context.Background(), result.AccessToken)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestCreateUserValidatesDocument() {
	_, err := s.svc.CreateUser(context.Background(), map[string]any{
		"email": "not-an-email",
		"role":  "ats_testing",
	}, "s3cret-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
}

func (s *AuthServiceSuite) TestCreateUserRejectsUnknownRole() {
	_, err := s.svc.CreateUser(context.Background(), map[string]any{
		"email": "operator@example.com",
		"role":  "superuser",
	}, "s3cret-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AuthServiceSuite) TestCreateUserRejectsDuplicateEmail() {
	s.createUser("operator@example.com", "s3cret-pass", "ats_testing")

	_, err := s.svc.CreateUser(context.Background(), map[string]any{
		"email": "operator@example.com",
		"role":  "ats_owner",
	}, "other-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	now := authNow
	store := NewMemorySessionStore(func() time.Time { return now })

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, LoginSession{ID: "ls-1"}, time.Minute))

	got, err := store.Get(ctx, "ls-1")
	require.NoError(t, err)
	assert.Equal(t, "ls-1", got.ID)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "ls-1")
	require.Error(t, err)

	// the expired entry is removed, later reads see a plain miss
	_, err = store.Get(ctx, "ls-1")
	require.Error(t, err)
}
