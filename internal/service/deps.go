package service

import (
	"bitwise74/community-api/internal/model"
	"context"
	"time"
)

// Clock returns the current time. Every expiry check goes through one so
// tests can move time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}

	return c()
}

// UserStore is the part of store.UserStore the services depend on
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error
	ConsumeVerificationToken(ctx context.Context, userID, token string, now time.Time) (bool, error)
	ClearExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
	SetRole(ctx context.Context, userID string, role model.Role) error
	LastResend(ctx context.Context, userID string) (time.Time, error)
	TouchResend(ctx context.Context, userID string, at time.Time) error
}

// SessionStore is the part of store.SessionStore the services depend on
type SessionStore interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*model.Session, error)
	FindUser(ctx context.Context, token string, now time.Time) (*model.User, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHasher is implemented by security.ArgonHash
type PasswordHasher interface {
	Hash(p string) (string, error)
	Compare(p, e string) (bool, error)
}
