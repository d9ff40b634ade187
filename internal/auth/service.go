package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"atsnet/internal/audit"
	"atsnet/internal/storage"
	"atsnet/internal/validation"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
	"atsnet/pkg/platform/sentinel"
)

const defaultTokenTTL = time.Hour

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// Service implements login, logout, token verification and user creation.
type Service struct {
	store     storage.Store
	validator *validation.Validator
	sessions  SessionStore
	tokens    *TokenService
	publisher *audit.Publisher
	tokenTTL  time.Duration
	clock     func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// New constructs the auth service.
func New(store storage.Store, validator *validation.Validator, sessions SessionStore, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validator,
		sessions:  sessions,
		tokens:    tokens,
		tokenTTL:  defaultTokenTTL,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials, opens a revocable login session and issues an
// access token. Unknown emails and wrong passwords return the same error so
// accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	var user User
	_, err := s.store.FindByField(ctx, domain.CollectionUsers, "email", email, &user)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "user lookup failed")
	}
	if user.Status != UserActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is not active")
	}
	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "credential check failed")
	}

	now := s.clock()
	session := LoginSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.sessions.Create(ctx, session, s.tokenTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open login session")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, session.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}

	if s.publisher != nil {
		s.publisher.Publish(audit.ActionUserLoggedIn, user.ID.String(), "user", user.ID.String(), map[string]any{
			"role": user.Role.String(),
		})
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL / time.Second),
		User:        user.Public(),
	}, nil
}

// Logout revokes one login session; tokens bound to it stop verifying.
func (s *Service) Logout(ctx context.Context, loginSessionID string) error {
	if loginSessionID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "login session id is required")
	}
	if err := s.sessions.Delete(ctx, loginSessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke login session")
	}
	return nil
}

// Authenticate verifies a bearer token and confirms its login session is
// still live, so revoked logins fail even before the token expires.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Get(ctx, claims.SessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "login session is no longer valid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login session lookup failed")
	}
	return claims, nil
}

// CreateUser validates and persists a new account document with a hashed
// password. The caller is expected to be an admin; handlers enforce that.
func (s *Service) CreateUser(ctx context.Context, doc map[string]any, password string) (*User, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, ok := doc["status"]; !ok {
		doc["status"] = string(UserActive)
	}
	if err := s.validator.ValidateDocument(ctx, domain.CollectionUsers, doc, validation.OpCreate); err != nil {
		return nil, err
	}

	roleValue, _ := doc["role"].(string)
	role, err := domain.ParseRole(roleValue)
	if err != nil {
		return nil, err
	}
	email, _ := doc["email"].(string)

	var existing User
	_, err = s.store.FindByField(ctx, domain.CollectionUsers, "email", email, &existing)
	if err == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", email)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "email lookup failed")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	statusValue, _ := doc["status"].(string)
	user := User{
		ID:           domain.NewUserID(),
		Email:        email,
		Role:         role,
		Status:       UserStatus(statusValue),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if fullName, ok := doc["fullName"].(string); ok {
		user.FullName = fullName
	}
	if phone, ok := doc["phone"].(string); ok {
		user.Phone = phone
	}
	if centerID, ok := doc["centerId"].(string); ok && centerID != "" {
		parsed, err := domain.ParseCenterID(centerID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "centerId is not a valid id")
		}
		user.CenterID = &parsed
	}

	if err := s.store.Insert(ctx, domain.CollectionUsers, user.ID.String(), user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist user")
	}
	public := user.Public()
	return &public, nil
}
