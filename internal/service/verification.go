package service

import (
	"bitwise74/community-api/internal/store"
	"bitwise74/community-api/pkg/security"
	"context"
	"errors"
	"time"
)

// DefaultVerificationTTL is how long a verification link stays usable
const DefaultVerificationTTL = 24 * time.Hour

type VerificationService struct {
	users UserStore
	ttl   time.Duration
	clock Clock
}

func NewVerificationService(users UserStore, ttl time.Duration, clock Clock) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}

	return &VerificationService{users: users, ttl: ttl, clock: clock}
}

// Issue creates a new token for the user, replacing any older one
func (v *VerificationService) Issue(ctx context.Context, userID string) (string, error) {
	token, err := security.GenerateToken(security.TokenSize)
	if err != nil {
		return "", storeFailure("generate verification token", err)
	}

	if err := v.users.SetVerificationToken(ctx, userID, token, v.clock.now().Add(v.ttl)); err != nil {
		return "", storeFailure("persist verification token", err)
	}

	return token, nil
}

// Consume verifies the owner of token and returns its ID. The token can only
// ever be consumed once.
func (v *VerificationService) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", newError(ErrInvalidOrExpiredToken, "empty token")
	}

	u, err := v.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", newError(ErrInvalidOrExpiredToken, "no user holds this token")
		}

		return "", storeFailure("find user by verification token", err)
	}

	now := v.clock.now()
	if u.VerificationTokenExpires == nil || !now.Before(*u.VerificationTokenExpires) {
		return "", newError(ErrInvalidOrExpiredToken, "token expired")
	}

	ok, err := v.users.ConsumeVerificationToken(ctx, u.ID, token, now)
	if err != nil {
		return "", storeFailure("consume verification token", err)
	}

	if !ok {
		return "", newError(ErrInvalidOrExpiredToken, "token consumed by a concurrent request")
	}

	return u.ID, nil
}

// Cleanup drops tokens that expired without being used
func (v *VerificationService) Cleanup(ctx context.Context) (int64, error) {
	return v.users.ClearExpiredVerificationTokens(ctx, v.clock.now())
}
