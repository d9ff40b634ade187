package auth

import (
	"context"

	"atsnet/internal/platform/middleware"
)

// MiddlewareAdapter exposes the auth service through the middleware's
// Authenticator interface.
type MiddlewareAdapter struct {
	service *Service
}

// NewMiddlewareAdapter wraps the auth service for HTTP middleware use.
func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Authenticate(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := a.service.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	}, nil
}
