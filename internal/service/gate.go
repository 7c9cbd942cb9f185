package service

import (
	"bitwise74/community-api/internal/model"
	"context"
	"errors"
	"fmt"
)

type AuthResult struct {
	Success bool
	User    *model.UserView
}

// Gate answers who is behind a session token and what they may access.
// The token is always passed in explicitly.
type Gate struct {
	sessions *SessionManager
}

func NewGate(sessions *SessionManager) *Gate {
	return &Gate{sessions: sessions}
}

// Authenticate resolves token to its user. A missing, unknown or expired
// token is an unsuccessful result, not an error.
func (g *Gate) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	u, err := g.sessions.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return &AuthResult{}, nil
		}

		return nil, err
	}

	return &AuthResult{Success: true, User: u.View()}, nil
}

// RequireRole admits the user only if their current role is one of allowed
func (g *Gate) RequireRole(ctx context.Context, token string, allowed ...model.Role) (*model.UserView, error) {
	res, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if !res.Success {
		return nil, newError(ErrUnauthenticated, "no valid session")
	}

	if !res.User.Role.In(allowed...) {
		return nil, newError(ErrUnauthorized, fmt.Sprintf("role %s not in %v", res.User.Role, allowed))
	}

	return res.User, nil
}
