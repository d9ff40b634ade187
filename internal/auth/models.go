// Package auth handles login, access token issuance and verification, and
// the redis-backed login sessions that make tokens revocable.
package auth

import (
	"time"

	"atsnet/pkg/domain"
)

// UserStatus is the account state of a user document.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User is the stored account document. PasswordHash is a bcrypt hash and is
// never serialized outward.
type User struct {
	ID           domain.UserID    `json:"id"`
	Email        string           `json:"email"`
	FullName     string           `json:"fullName,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Role         domain.Role      `json:"role"`
	Status       UserStatus       `json:"status"`
	CenterID     *domain.CenterID `json:"centerId,omitempty"`
	PasswordHash string           `json:"passwordHash,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Public returns a copy safe to serialize in API responses.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// LoginSession is one revocable login, stored in redis under its ID with a
// TTL matching the access token lifetime.
type LoginSession struct {
	ID        string        `json:"id"`
	UserID    domain.UserID `json:"userId"`
	Role      domain.Role   `json:"role"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}
