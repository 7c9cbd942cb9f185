package service

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/internal/store"
	"bitwise74/community-api/pkg/security"
	"context"
	"errors"
	"time"
)

// DefaultSessionTTL is the fixed lifetime of a session, it is never renewed
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionToken is what the transport hands back to the client
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

type SessionManager struct {
	sessions SessionStore
	ttl      time.Duration
	clock    Clock
}

func NewSessionManager(sessions SessionStore, ttl time.Duration, clock Clock) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionManager{sessions: sessions, ttl: ttl, clock: clock}
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) Create(ctx context.Context, userID string) (*SessionToken, error) {
	token, err := security.GenerateToken(security.TokenSize)
	if err != nil {
		return nil, storeFailure("generate session token", err)
	}

	expires := m.clock.now().Add(m.ttl)

	if _, err := m.sessions.Create(ctx, userID, token, expires); err != nil {
		return nil, storeFailure("persist session", err)
	}

	return &SessionToken{Token: token, ExpiresAt: expires}, nil
}

// Validate returns the owner of a live session. The user is read fresh so a
// changed role applies immediately. Validating never extends a session.
func (m *SessionManager) Validate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, newError(ErrNoSession, "empty token")
	}

	u, err := m.sessions.FindUser(ctx, token, m.clock.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrNoSession, "unknown or expired session")
		}

		return nil, storeFailure("validate session", err)
	}

	return u, nil
}

// Destroy ends a session. Unknown tokens are ignored.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := m.sessions.Delete(ctx, token); err != nil {
		return storeFailure("delete session", err)
	}

	return nil
}

// Cleanup removes sessions that can no longer validate
func (m *SessionManager) Cleanup(ctx context.Context) (int64, error) {
	return m.sessions.DeleteExpired(ctx, m.clock.now())
}
