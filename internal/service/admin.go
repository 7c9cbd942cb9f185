package service

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/internal/store"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// RoleAdmin is the only way a role ever changes. It is wired to operator
// tooling, never to a route.
type RoleAdmin struct {
	users UserStore
	log   *zap.Logger
}

func NewRoleAdmin(users UserStore, log *zap.Logger) *RoleAdmin {
	if log == nil {
		log = zap.L()
	}

	return &RoleAdmin{users: users, log: log}
}

func (a *RoleAdmin) SetRole(ctx context.Context, email string, role model.Role) (*model.UserView, error) {
	if !role.Valid() {
		return nil, validationError(fmt.Errorf("unknown role %q", string(role)))
	}

	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, storeFailure("find user by email", err)
	}

	if err := a.users.SetRole(ctx, u.ID, role); err != nil {
		return nil, storeFailure("set role", err)
	}

	a.log.Info("Role changed",
		zap.String("user_id", u.ID),
		zap.String("from", string(u.Role)),
		zap.String("to", string(role)))

	u.Role = role

	return u.View(), nil
}
